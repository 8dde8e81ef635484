// Package vfs maps real filesystem directories onto named virtual roots.
//
// A virtual path is the mount name followed by the path relative to the
// mount source, always with forward slashes: "Music/Artist/Album/01.mp3".
package vfs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var ErrMountDirNotFound = errors.New("no mount directory matches path")

// MountDir exposes Source under the virtual root Name.
type MountDir struct {
	Source string
	Name   string
}

type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// MountDirs returns the mounts in the order they were configured.
func (m *Manager) MountDirs(ctx context.Context) ([]MountDir, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT source, name FROM mount_dirs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query mount dirs: %w", err)
	}
	defer rows.Close()

	dirs := make([]MountDir, 0)
	for rows.Next() {
		var d MountDir
		if err := rows.Scan(&d.Source, &d.Name); err != nil {
			return nil, fmt.Errorf("scan mount dir row: %w", err)
		}
		dirs = append(dirs, d)
	}
	return dirs, rows.Err()
}

// SetMountDirs replaces every configured mount with dirs.
func (m *Manager) SetMountDirs(ctx context.Context, dirs []MountDir) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mount_dirs`); err != nil {
		return fmt.Errorf("clear mount dirs: %w", err)
	}
	for i, d := range dirs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO mount_dirs (position, name, source) VALUES (?, ?, ?)`, i, d.Name, d.Source); err != nil {
			return fmt.Errorf("insert mount dir %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

// VirtualToReal resolves a virtual path to a path on disk.
func (m *Manager) VirtualToReal(ctx context.Context, virtual string) (string, error) {
	dirs, err := m.MountDirs(ctx)
	if err != nil {
		return "", err
	}
	return VirtualToReal(dirs, virtual)
}

// RealToVirtual maps a path on disk back into the virtual tree.
func (m *Manager) RealToVirtual(ctx context.Context, real string) (string, error) {
	dirs, err := m.MountDirs(ctx)
	if err != nil {
		return "", err
	}
	return RealToVirtual(dirs, real)
}

func VirtualToReal(dirs []MountDir, virtual string) (string, error) {
	virtual = strings.Trim(path.Clean("/"+filepath.ToSlash(virtual)), "/")
	name, rest, _ := strings.Cut(virtual, "/")
	for _, d := range dirs {
		if d.Name == name {
			if rest == "" {
				return filepath.Clean(d.Source), nil
			}
			return filepath.Join(d.Source, filepath.FromSlash(rest)), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrMountDirNotFound, virtual)
}

func RealToVirtual(dirs []MountDir, real string) (string, error) {
	real = filepath.Clean(real)
	for _, d := range dirs {
		rel, err := filepath.Rel(filepath.Clean(d.Source), real)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			return d.Name, nil
		}
		return d.Name + "/" + filepath.ToSlash(rel), nil
	}
	return "", fmt.Errorf("%w: %s", ErrMountDirNotFound, real)
}
