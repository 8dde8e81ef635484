package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	songColumns = `path, parent, track_number, disc_number, title, year, album, artwork, duration, lyricist, composer, genre, label`
	dirColumns  = `path, parent, year, album, artwork, date_added`

	maxParams = 500
)

// Browse lists the directories and songs directly inside path. An empty path
// lists the mount roots.
func (m *Manager) Browse(ctx context.Context, path string) ([]Directory, []Song, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		dirs, err := m.queryDirectories(ctx, `SELECT `+dirColumns+` FROM directories WHERE parent IS NULL ORDER BY path`)
		return dirs, []Song{}, err
	}
	if err := m.requireDirectory(ctx, path); err != nil {
		return nil, nil, err
	}
	dirs, err := m.queryDirectories(ctx, `SELECT `+dirColumns+` FROM directories WHERE parent = ? ORDER BY path`, path)
	if err != nil {
		return nil, nil, err
	}
	songs, err := m.querySongs(ctx, `SELECT `+songColumns+` FROM songs WHERE parent = ? ORDER BY path`, path)
	if err != nil {
		return nil, nil, err
	}
	return dirs, songs, nil
}

// Flatten lists every song below path, recursively.
func (m *Manager) Flatten(ctx context.Context, path string) ([]Song, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return m.querySongs(ctx, `SELECT `+songColumns+` FROM songs ORDER BY path`)
	}
	if err := m.requireDirectory(ctx, path); err != nil {
		return nil, err
	}
	return m.querySongs(ctx, `SELECT `+songColumns+` FROM songs WHERE path LIKE ? ESCAPE '\' ORDER BY path`,
		escapeLike(path)+"/%")
}

// Random returns up to n albums in random order.
func (m *Manager) Random(ctx context.Context, n int) ([]Directory, error) {
	return m.queryDirectories(ctx, `SELECT `+dirColumns+` FROM directories WHERE album IS NOT NULL ORDER BY RANDOM() LIMIT ?`, n)
}

// Recent returns up to n albums, most recently added first.
func (m *Manager) Recent(ctx context.Context, n int) ([]Directory, error) {
	return m.queryDirectories(ctx, `SELECT `+dirColumns+` FROM directories WHERE album IS NOT NULL ORDER BY date_added DESC, path LIMIT ?`, n)
}

// Search matches query against paths, titles, albums and artist names.
func (m *Manager) Search(ctx context.Context, query string) ([]Directory, []Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Directory{}, []Song{}, nil
	}
	like := "%" + escapeLike(query) + "%"

	dirs, err := m.queryDirectories(ctx, `SELECT `+dirColumns+` FROM directories
		WHERE path LIKE ?1 ESCAPE '\' OR album LIKE ?1 ESCAPE '\'
		ORDER BY path`, like)
	if err != nil {
		return nil, nil, err
	}
	songs, err := m.querySongs(ctx, `SELECT `+songColumns+` FROM songs
		WHERE path LIKE ?1 ESCAPE '\' OR title LIKE ?1 ESCAPE '\' OR album LIKE ?1 ESCAPE '\'
			OR EXISTS (SELECT 1 FROM song_artists sa JOIN artists a ON a.id = sa.artist_id
				WHERE sa.song_path = songs.path AND a.name LIKE ?1 ESCAPE '\')
		ORDER BY path`, like)
	if err != nil {
		return nil, nil, err
	}
	return dirs, songs, nil
}

func (m *Manager) GetSong(ctx context.Context, path string) (Song, error) {
	songs, err := m.querySongs(ctx, `SELECT `+songColumns+` FROM songs WHERE path = ?`, path)
	if err != nil {
		return Song{}, err
	}
	if len(songs) == 0 {
		return Song{}, fmt.Errorf("%w: %s", ErrSongNotFound, path)
	}
	return songs[0], nil
}

// GetSongs returns the indexed songs for paths in the same order. Paths that
// are not indexed are skipped.
func (m *Manager) GetSongs(ctx context.Context, paths []string) ([]Song, error) {
	byPath := make(map[string]Song, len(paths))
	for start := 0; start < len(paths); start += maxParams {
		end := min(start+maxParams, len(paths))
		chunk := paths[start:end]
		args := make([]any, len(chunk))
		for i, p := range chunk {
			args[i] = p
		}
		songs, err := m.querySongs(ctx, `SELECT `+songColumns+` FROM songs WHERE path IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return nil, err
		}
		for _, sg := range songs {
			byPath[sg.Path] = sg
		}
	}

	out := make([]Song, 0, len(paths))
	for _, p := range paths {
		if sg, ok := byPath[p]; ok {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (m *Manager) requireDirectory(ctx context.Context, path string) error {
	var exists int
	err := m.db.QueryRowContext(ctx, `SELECT 1 FROM directories WHERE path = ?`, path).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("query directory %s: %w", path, err)
	}
	return nil
}

func (m *Manager) querySongs(ctx context.Context, query string, args ...any) ([]Song, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	songs := make([]Song, 0)
	for rows.Next() {
		var sg Song
		if err := rows.Scan(&sg.Path, &sg.Parent, &sg.TrackNumber, &sg.DiscNumber, &sg.Title, &sg.Year, &sg.Album,
			&sg.Artwork, &sg.Duration, &sg.Lyricist, &sg.Composer, &sg.Genre, &sg.Label); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan song row: %w", err)
		}
		songs = append(songs, sg)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := m.loadSongArtists(ctx, songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func (m *Manager) queryDirectories(ctx context.Context, query string, args ...any) ([]Directory, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query directories: %w", err)
	}
	dirs := make([]Directory, 0)
	for rows.Next() {
		var d Directory
		if err := rows.Scan(&d.Path, &d.Parent, &d.Year, &d.Album, &d.Artwork, &d.DateAdded); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan directory row: %w", err)
		}
		dirs = append(dirs, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := m.loadDirectoryArtists(ctx, dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

// loadSongArtists runs after the song rows are closed so it also works on a
// single-connection database.
func (m *Manager) loadSongArtists(ctx context.Context, songs []Song) error {
	pos := make(map[string]int, len(songs))
	paths := make([]any, len(songs))
	for i, sg := range songs {
		pos[sg.Path] = i
		paths[i] = sg.Path
	}
	return forChunks(paths, func(chunk []any) error {
		rows, err := m.db.QueryContext(ctx, `SELECT song_path, artist_id, role FROM song_artists
			WHERE song_path IN (`+placeholders(len(chunk))+`) ORDER BY song_path, role, position`, chunk...)
		if err != nil {
			return fmt.Errorf("query song artists: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var p, role string
			var id int64
			if err := rows.Scan(&p, &id, &role); err != nil {
				return err
			}
			sg := &songs[pos[p]]
			switch role {
			case roleArtist:
				sg.Artists = append(sg.Artists, ArtistKey(id))
			case roleAlbumArtist:
				sg.AlbumArtists = append(sg.AlbumArtists, ArtistKey(id))
			}
		}
		return rows.Err()
	})
}

func (m *Manager) loadDirectoryArtists(ctx context.Context, dirs []Directory) error {
	pos := make(map[string]int, len(dirs))
	paths := make([]any, len(dirs))
	for i, d := range dirs {
		pos[d.Path] = i
		paths[i] = d.Path
	}
	return forChunks(paths, func(chunk []any) error {
		rows, err := m.db.QueryContext(ctx, `SELECT directory_path, artist_id FROM directory_artists
			WHERE directory_path IN (`+placeholders(len(chunk))+`) ORDER BY directory_path, position`, chunk...)
		if err != nil {
			return fmt.Errorf("query directory artists: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var p string
			var id int64
			if err := rows.Scan(&p, &id); err != nil {
				return err
			}
			d := &dirs[pos[p]]
			d.Artists = append(d.Artists, ArtistKey(id))
		}
		return rows.Err()
	})
}

func forChunks(args []any, fn func([]any) error) error {
	for start := 0; start < len(args); start += maxParams {
		if err := fn(args[start:min(start+maxParams, len(args))]); err != nil {
			return err
		}
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
