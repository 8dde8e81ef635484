package storage

import (
	"testing"
)

func TestMigrate_IdempotentAndCreatesExpectedTables(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	// Open already migrated once; run it again.
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	rows, err := db.Query(`PRAGMA table_info(users)`)
	if err != nil {
		t.Fatalf("pragma failed: %v", err)
	}
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		cols[name] = true
	}
	rows.Close()
	if !cols["admin"] || !cols["lastfm_session_key"] {
		t.Fatalf("expected users table to have admin and lastfm_session_key columns, got cols=%v", cols)
	}

	for _, table := range []string{"settings", "mount_dirs", "ddns_config", "songs", "directories", "artists", "playlists", "playlist_songs"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}
