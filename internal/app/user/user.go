// Package user manages accounts, password hashing and scoped auth tokens.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyUsername        = errors.New("username must not be empty")
	ErrEmptyPassword        = errors.New("password must not be empty")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrIncorrectCredentials = errors.New("incorrect username or password")
)

// User is a stored account. Admin follows the storage convention: any
// non-zero value grants admin rights.
type User struct {
	Name             string
	Admin            int64
	LastFMSessionKey string
}

func (u User) IsAdmin() bool {
	return u.Admin != 0
}

// NewUser is a request to create (or, in a full replace, overwrite) an account.
type NewUser struct {
	Name     string
	Password string
	Admin    bool
}

type Manager struct {
	db     *sql.DB
	secret []byte

	// HashCost is the bcrypt cost used for new password hashes.
	HashCost int
}

func NewManager(db *sql.DB, secret string) *Manager {
	return &Manager{
		db:       db,
		secret:   []byte(secret),
		HashCost: bcrypt.DefaultCost,
	}
}

// adminFlag is the canonical stored form of the admin bit.
func adminFlag(admin bool) int64 {
	if admin {
		return 1
	}
	return 0
}

func (m *Manager) Create(ctx context.Context, nu NewUser) error {
	if nu.Name == "" {
		return ErrEmptyUsername
	}
	if nu.Password == "" {
		return ErrEmptyPassword
	}
	hash, err := m.hashPassword(nu.Password)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, `INSERT INTO users (name, password_hash, admin) VALUES (?, ?, ?)`, nu.Name, hash, adminFlag(nu.Admin))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateUsername, nu.Name)
		}
		return fmt.Errorf("insert user %s: %w", nu.Name, err)
	}
	return nil
}

func (m *Manager) Get(ctx context.Context, name string) (User, error) {
	var u User
	var sessionKey sql.NullString
	err := m.db.QueryRowContext(ctx, `SELECT name, admin, lastfm_session_key FROM users WHERE name = ?`, name).
		Scan(&u.Name, &u.Admin, &sessionKey)
	if err == sql.ErrNoRows {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	if err != nil {
		return User{}, fmt.Errorf("query user %s: %w", name, err)
	}
	u.LastFMSessionKey = sessionKey.String
	return u, nil
}

func (m *Manager) List(ctx context.Context) ([]User, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name, admin, lastfm_session_key FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		var sessionKey sql.NullString
		if err := rows.Scan(&u.Name, &u.Admin, &sessionKey); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.LastFMSessionKey = sessionKey.String
		users = append(users, u)
	}
	return users, rows.Err()
}

func (m *Manager) Delete(ctx context.Context, name string) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", name, err)
	}
	return requireAffected(res, name)
}

// Patch changes some fields of an existing account. Nil fields are kept.
type Patch struct {
	Password *string
	Admin    *bool
}

// Update applies every field of p in one transaction.
func (m *Manager) Update(ctx context.Context, name string, p Patch) error {
	var hash string
	if p.Password != nil {
		if *p.Password == "" {
			return ErrEmptyPassword
		}
		var err error
		if hash, err = m.hashPassword(*p.Password); err != nil {
			return err
		}
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE name = ?`, name).Scan(&exists); err != nil {
		return fmt.Errorf("lookup user %s: %w", name, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	if p.Password != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE name = ?`, hash, name); err != nil {
			return fmt.Errorf("update password for %s: %w", name, err)
		}
	}
	if p.Admin != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET admin = ? WHERE name = ?`, adminFlag(*p.Admin), name); err != nil {
			return fmt.Errorf("update admin flag for %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (m *Manager) HasAnyUsers(ctx context.Context) (bool, error) {
	var count int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

// ReplaceAll makes the stored accounts exactly the given list. Listed accounts
// that already exist keep their playlists; their admin flag is overwritten and
// their password is overwritten when one is given. Unlisted accounts are deleted.
func (m *Manager) ReplaceAll(ctx context.Context, users []NewUser) error {
	hashes := make([]string, len(users))
	for i, nu := range users {
		if nu.Name == "" {
			return ErrEmptyUsername
		}
		if nu.Password == "" {
			continue
		}
		hash, err := m.hashPassword(nu.Password)
		if err != nil {
			return err
		}
		hashes[i] = hash
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	keep := make(map[string]bool, len(users))
	for i, nu := range users {
		keep[nu.Name] = true

		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE name = ?`, nu.Name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("lookup user %s: %w", nu.Name, err)
		}

		switch {
		case exists == 0 && hashes[i] == "":
			return fmt.Errorf("%w: new user %s", ErrEmptyPassword, nu.Name)
		case exists == 0:
			_, err = tx.ExecContext(ctx, `INSERT INTO users (name, password_hash, admin) VALUES (?, ?, ?)`, nu.Name, hashes[i], adminFlag(nu.Admin))
		case hashes[i] == "":
			_, err = tx.ExecContext(ctx, `UPDATE users SET admin = ? WHERE name = ?`, adminFlag(nu.Admin), nu.Name)
		default:
			_, err = tx.ExecContext(ctx, `UPDATE users SET admin = ?, password_hash = ? WHERE name = ?`, adminFlag(nu.Admin), hashes[i], nu.Name)
		}
		if err != nil {
			return fmt.Errorf("write user %s: %w", nu.Name, err)
		}
	}

	rows, err := tx.QueryContext(ctx, `SELECT name FROM users`)
	if err != nil {
		return fmt.Errorf("query users: %w", err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan user row: %w", err)
		}
		if !keep[name] {
			stale = append(stale, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate users: %w", err)
	}
	rows.Close()

	for _, name := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete user %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (m *Manager) LinkLastFM(ctx context.Context, name, sessionKey string) error {
	res, err := m.db.ExecContext(ctx, `UPDATE users SET lastfm_session_key = ? WHERE name = ?`, sessionKey, name)
	if err != nil {
		return fmt.Errorf("store lastfm session for %s: %w", name, err)
	}
	return requireAffected(res, name)
}

func (m *Manager) UnlinkLastFM(ctx context.Context, name string) error {
	res, err := m.db.ExecContext(ctx, `UPDATE users SET lastfm_session_key = NULL WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("clear lastfm session for %s: %w", name, err)
	}
	return requireAffected(res, name)
}

func (m *Manager) checkPassword(ctx context.Context, name, password string) (User, error) {
	var u User
	var hash string
	err := m.db.QueryRowContext(ctx, `SELECT name, admin, password_hash FROM users WHERE name = ?`, name).
		Scan(&u.Name, &u.Admin, &hash)
	if err == sql.ErrNoRows {
		return User{}, ErrIncorrectCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("query user %s: %w", name, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrIncorrectCredentials
	}
	return u, nil
}

func (m *Manager) hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), m.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func requireAffected(res sql.Result, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	return nil
}
