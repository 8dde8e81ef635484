// Package storage opens the SQLite database and keeps its schema current.
package storage

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the SQLite database at path and migrates it.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	} else if !strings.Contains(path, "?") {
		dsn = path + "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a distinct database.
		db.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate performs idempotent schema migrations. It is safe to run on every start.
func Migrate(db *sql.DB) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"settings", `CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY NOT NULL,
			value TEXT NOT NULL
		);`},
		{"users", `CREATE TABLE IF NOT EXISTS users (
			name TEXT PRIMARY KEY NOT NULL,
			password_hash TEXT NOT NULL,
			admin INTEGER NOT NULL DEFAULT 0
		);`},
		{"mount_dirs", `CREATE TABLE IF NOT EXISTS mount_dirs (
			position INTEGER NOT NULL,
			name TEXT UNIQUE NOT NULL,
			source TEXT NOT NULL
		);`},
		{"ddns_config", `CREATE TABLE IF NOT EXISTS ddns_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			host TEXT NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL
		);`},
		{"directories", `CREATE TABLE IF NOT EXISTS directories (
			path TEXT PRIMARY KEY NOT NULL,
			parent TEXT,
			year INTEGER,
			album TEXT,
			artwork TEXT,
			date_added INTEGER NOT NULL DEFAULT 0
		);`},
		{"songs", `CREATE TABLE IF NOT EXISTS songs (
			path TEXT PRIMARY KEY NOT NULL,
			parent TEXT NOT NULL,
			track_number INTEGER,
			disc_number INTEGER,
			title TEXT,
			year INTEGER,
			album TEXT,
			artwork TEXT,
			duration INTEGER,
			lyricist TEXT,
			composer TEXT,
			genre TEXT,
			label TEXT
		);`},
		{"artists", `CREATE TABLE IF NOT EXISTS artists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		);`},
		{"song_artists", `CREATE TABLE IF NOT EXISTS song_artists (
			song_path TEXT NOT NULL,
			artist_id INTEGER NOT NULL,
			role TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY(song_path) REFERENCES songs(path) ON DELETE CASCADE,
			FOREIGN KEY(artist_id) REFERENCES artists(id) ON DELETE CASCADE
		);`},
		{"directory_artists", `CREATE TABLE IF NOT EXISTS directory_artists (
			directory_path TEXT NOT NULL,
			artist_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY(directory_path) REFERENCES directories(path) ON DELETE CASCADE,
			FOREIGN KEY(artist_id) REFERENCES artists(id) ON DELETE CASCADE
		);`},
		{"playlists", `CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			name TEXT NOT NULL,
			UNIQUE(owner, name),
			FOREIGN KEY(owner) REFERENCES users(name) ON DELETE CASCADE
		);`},
		{"playlist_songs", `CREATE TABLE IF NOT EXISTS playlist_songs (
			playlist_id INTEGER NOT NULL,
			path TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY(playlist_id) REFERENCES playlists(id) ON DELETE CASCADE
		);`},
		{"idx_playlist_songs_order", `CREATE INDEX IF NOT EXISTS idx_playlist_songs_order ON playlist_songs (playlist_id, position);`},
		{"idx_songs_parent", `CREATE INDEX IF NOT EXISTS idx_songs_parent ON songs (parent);`},
		{"idx_directories_parent", `CREATE INDEX IF NOT EXISTS idx_directories_parent ON directories (parent);`},
	}

	for _, st := range statements {
		if _, err := db.Exec(st.sql); err != nil {
			log.Printf("migrateDB: failed to ensure %s: %v", st.name, err)
			return fmt.Errorf("migrate %s: %w", st.name, err)
		}
	}

	// Columns added after the first schema version.
	if err := ensureColumnExists(db, "users", "lastfm_session_key", "TEXT"); err != nil {
		return err
	}
	return nil
}

// ensureColumnExists adds a column to a table when it is missing.
// SQLite has no ADD COLUMN IF NOT EXISTS, so a duplicate column error means
// the migration already ran.
func ensureColumnExists(db *sql.DB, table, column, definition string) error {
	_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", table, column, definition))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate column name") || strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	log.Printf("migrateDB: added column %s.%s", table, column)
	return nil
}
