// Package playlist stores named, ordered track lists per user.
package playlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Saecki/polaris/internal/app/index"
)

var (
	ErrPlaylistNotFound  = errors.New("playlist not found")
	ErrEmptyPlaylistName = errors.New("playlist name is empty")
)

type SongSource interface {
	GetSongs(ctx context.Context, paths []string) ([]index.Song, error)
}

type Manager struct {
	db    *sql.DB
	songs SongSource
}

func NewManager(db *sql.DB, songs SongSource) *Manager {
	return &Manager{db: db, songs: songs}
}

// List returns the names of owner's playlists, alphabetically.
func (m *Manager) List(ctx context.Context, owner string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM playlists WHERE owner = ? ORDER BY name COLLATE NOCASE`, owner)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Save creates or overwrites a playlist. Tracks are stored in the given order,
// duplicates included.
func (m *Manager) Save(ctx context.Context, owner, name string, tracks []string) error {
	if name == "" {
		return ErrEmptyPlaylistName
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO playlists (owner, name) VALUES (?, ?) ON CONFLICT(owner, name) DO NOTHING`, owner, name); err != nil {
		return fmt.Errorf("create playlist %s: %w", name, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlists WHERE owner = ? AND name = ?`, owner, name).Scan(&id); err != nil {
		return fmt.Errorf("lookup playlist %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("clear playlist %s: %w", name, err)
	}
	for i, p := range tracks {
		if _, err := tx.ExecContext(ctx, `INSERT INTO playlist_songs (playlist_id, path, position) VALUES (?, ?, ?)`, id, p, i); err != nil {
			return fmt.Errorf("add track to playlist %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// Tracks returns the stored paths of a playlist in order.
func (m *Manager) Tracks(ctx context.Context, owner, name string) ([]string, error) {
	id, err := m.playlistID(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, `SELECT path FROM playlist_songs WHERE playlist_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query playlist songs: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Read returns the songs of a playlist in order. Tracks that are no longer
// indexed are left out.
func (m *Manager) Read(ctx context.Context, owner, name string) ([]index.Song, error) {
	paths, err := m.Tracks(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return m.songs.GetSongs(ctx, paths)
}

func (m *Manager) Delete(ctx context.Context, owner, name string) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM playlists WHERE owner = ? AND name = ?`, owner, name)
	if err != nil {
		return fmt.Errorf("delete playlist %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, name)
	}
	return nil
}

func (m *Manager) playlistID(ctx context.Context, owner, name string) (int64, error) {
	var id int64
	err := m.db.QueryRowContext(ctx, `SELECT id FROM playlists WHERE owner = ? AND name = ?`, owner, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", ErrPlaylistNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup playlist %s: %w", name, err)
	}
	return id, nil
}
