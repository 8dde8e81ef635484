// Package index scans mount directories for music and answers collection queries.
//
// Every path stored by the index is virtual (see package vfs).
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Saecki/polaris/internal/app/vfs"
)

var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrSongNotFound      = errors.New("song not found")
)

// ArtistKey identifies an artist row. Resolve keys to names with ResolveArtists.
type ArtistKey int64

type Song struct {
	Path         string
	Parent       string
	TrackNumber  *int64
	DiscNumber   *int64
	Title        *string
	Artists      []ArtistKey
	AlbumArtists []ArtistKey
	Year         *int64
	Album        *string
	Artwork      *string
	Duration     *int64
	Lyricist     *string
	Composer     *string
	Genre        *string
	Label        *string
}

type Directory struct {
	Path      string
	Parent    *string
	Artists   []ArtistKey
	Year      *int64
	Album     *string
	Artwork   *string
	DateAdded int64
}

type MountSource interface {
	MountDirs(ctx context.Context) ([]vfs.MountDir, error)
}

type AlbumArtSource interface {
	AlbumArtRegex(ctx context.Context) (*regexp.Regexp, error)
}

type Manager struct {
	db       *sql.DB
	mounts   MountSource
	albumArt AlbumArtSource

	mu       sync.Mutex
	updating bool
}

func NewManager(db *sql.DB, mounts MountSource, albumArt AlbumArtSource) *Manager {
	return &Manager{db: db, mounts: mounts, albumArt: albumArt}
}

// Trigger starts an update in the background unless one is already running.
func (m *Manager) Trigger() {
	go func() {
		if err := m.Update(context.Background()); err != nil {
			log.Printf("[INDEX] Update failed: %v", err)
		}
	}()
}

// Update rescans every mount directory and replaces the stored index.
// Concurrent calls return immediately while a scan is in progress.
func (m *Manager) Update(ctx context.Context) error {
	m.mu.Lock()
	if m.updating {
		m.mu.Unlock()
		log.Println("[INDEX] Update already in progress, skipping")
		return nil
	}
	m.updating = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.updating = false
		m.mu.Unlock()
	}()

	start := time.Now()
	dirs, err := m.mounts.MountDirs(ctx)
	if err != nil {
		return err
	}
	artRegex, err := m.albumArt.AlbumArtRegex(ctx)
	if err != nil {
		return err
	}
	known, err := m.dateAddedByPath(ctx)
	if err != nil {
		return err
	}

	s := &scanner{artRegex: artRegex, dateAdded: known}
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.scanDir(d.Source, d.Name, nil)
	}

	if err := m.store(ctx, s); err != nil {
		return err
	}
	log.Printf("[INDEX] Indexed %d directories and %d songs in %s",
		len(s.directories), len(s.songs), time.Since(start).Round(time.Millisecond))
	return nil
}

func (m *Manager) dateAddedByPath(ctx context.Context) (map[string]int64, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT path, date_added FROM directories`)
	if err != nil {
		return nil, fmt.Errorf("query directories: %w", err)
	}
	defer rows.Close()

	known := make(map[string]int64)
	for rows.Next() {
		var p string
		var added int64
		if err := rows.Scan(&p, &added); err != nil {
			return nil, err
		}
		known[p] = added
	}
	return known, rows.Err()
}

// store swaps the previous index for the scan result in one transaction.
func (m *Manager) store(ctx context.Context, s *scanner) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"song_artists", "directory_artists", "songs", "directories", "artists"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	artistIDs := make(map[string]int64)
	artistID := func(name string) (int64, error) {
		key := normalizeKey(name)
		if id, ok := artistIDs[key]; ok {
			return id, nil
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO artists (name) VALUES (?)`, name)
		if err != nil {
			return 0, fmt.Errorf("insert artist %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		artistIDs[key] = id
		return id, nil
	}

	for _, d := range s.directories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO directories (path, parent, year, album, artwork, date_added) VALUES (?, ?, ?, ?, ?, ?)`,
			d.Path, d.Parent, d.Year, d.Album, d.Artwork, d.DateAdded); err != nil {
			return fmt.Errorf("insert directory %s: %w", d.Path, err)
		}
		for i, name := range d.artists {
			id, err := artistID(name)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO directory_artists (directory_path, artist_id, position) VALUES (?, ?, ?)`, d.Path, id, i); err != nil {
				return fmt.Errorf("link directory artist: %w", err)
			}
		}
	}

	for _, sg := range s.songs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO songs (path, parent, track_number, disc_number, title, year, album, artwork, duration, lyricist, composer, genre, label)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sg.Path, sg.Parent, sg.TrackNumber, sg.DiscNumber, sg.Title, sg.Year, sg.Album, sg.Artwork,
			sg.Duration, sg.Lyricist, sg.Composer, sg.Genre, sg.Label); err != nil {
			return fmt.Errorf("insert song %s: %w", sg.Path, err)
		}
		for role, names := range map[string][]string{roleArtist: sg.artists, roleAlbumArtist: sg.albumArtists} {
			for i, name := range names {
				id, err := artistID(name)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx, `INSERT INTO song_artists (song_path, artist_id, role, position) VALUES (?, ?, ?, ?)`, sg.Path, id, role, i); err != nil {
					return fmt.Errorf("link song artist: %w", err)
				}
			}
		}
	}
	return tx.Commit()
}

// ResolveArtists turns keys into display names. Order is kept and names that
// differ only in case or spacing appear once.
func (m *Manager) ResolveArtists(ctx context.Context, keys []ArtistKey) ([]string, error) {
	names := make([]string, 0, len(keys))
	if len(keys) == 0 {
		return names, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = int64(k)
	}
	rows, err := m.db.QueryContext(ctx, `SELECT id, name FROM artists WHERE id IN (`+placeholders(len(keys))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	byID := make(map[ArtistKey]string, len(keys))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		byID[ArtistKey(id)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, k := range keys {
		name, ok := byID[k]
		if !ok {
			continue
		}
		key := normalizeKey(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names, nil
}

// normalizeKey trims, folds case, and collapses whitespace for stable comparisons.
func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
