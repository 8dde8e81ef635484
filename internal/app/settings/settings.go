// Package settings stores the indexing settings of the server.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const (
	DefaultAlbumArtPattern           = "Folder.(jpeg|jpg|png)"
	DefaultSleepDurationSeconds int32 = 1800

	keyAlbumArtPattern = "index_album_art_pattern"
	keySleepDuration   = "index_sleep_duration_seconds"
)

var ErrInvalidAlbumArtPattern = errors.New("invalid album art pattern")

// Settings is the complete, persisted settings record.
type Settings struct {
	IndexAlbumArtPattern      string
	IndexSleepDurationSeconds int32
}

// NewSettings is a sparse patch. Nil fields are left unchanged.
type NewSettings struct {
	AlbumArtPattern      *string
	ReindexEveryNSeconds *int32
}

type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Read returns the current settings, falling back to defaults for keys that
// were never written.
func (m *Manager) Read(ctx context.Context) (Settings, error) {
	s := Settings{
		IndexAlbumArtPattern:      DefaultAlbumArtPattern,
		IndexSleepDurationSeconds: DefaultSleepDurationSeconds,
	}

	rows, err := m.db.QueryContext(ctx, `SELECT key, value FROM settings WHERE key IN (?, ?)`, keyAlbumArtPattern, keySleepDuration)
	if err != nil {
		return s, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, fmt.Errorf("scan settings row: %w", err)
		}
		switch key {
		case keyAlbumArtPattern:
			s.IndexAlbumArtPattern = value
		case keySleepDuration:
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return s, fmt.Errorf("parse %s %q: %w", keySleepDuration, value, err)
			}
			s.IndexSleepDurationSeconds = int32(n)
		}
	}
	return s, rows.Err()
}

// Amend writes the fields present in the patch.
func (m *Manager) Amend(ctx context.Context, patch NewSettings) error {
	if patch.AlbumArtPattern != nil {
		if _, err := regexp.Compile(*patch.AlbumArtPattern); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAlbumArtPattern, err)
		}
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if patch.AlbumArtPattern != nil {
		if err := upsert(ctx, tx, keyAlbumArtPattern, *patch.AlbumArtPattern); err != nil {
			return err
		}
	}
	if patch.ReindexEveryNSeconds != nil {
		if err := upsert(ctx, tx, keySleepDuration, strconv.Itoa(int(*patch.ReindexEveryNSeconds))); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AlbumArtRegex compiles the configured album art pattern, matching case-insensitively.
func (m *Manager) AlbumArtRegex(ctx context.Context) (*regexp.Regexp, error) {
	s, err := m.Read(ctx)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile("(?i)" + s.IndexAlbumArtPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAlbumArtPattern, err)
	}
	return re, nil
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}
