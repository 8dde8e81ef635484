// Package ddns keeps the YDNS dynamic DNS record pointed at this server.
package ddns

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

const DefaultUpdateURL = "https://ydns.io/api/v1/update/"

// Config holds the YDNS host and its credentials.
type Config struct {
	Host     string
	Username string
	Password string
}

type Manager struct {
	db     *sql.DB
	client *http.Client

	// UpdateURL is the YDNS endpoint; the host is passed as a query parameter.
	UpdateURL string
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{
		db:        db,
		client:    &http.Client{Timeout: 10 * time.Second},
		UpdateURL: DefaultUpdateURL,
	}
}

// Config returns the stored configuration, or the zero Config when none was set.
func (m *Manager) Config(ctx context.Context) (Config, error) {
	var c Config
	err := m.db.QueryRowContext(ctx, `SELECT host, username, password FROM ddns_config WHERE id = 1`).
		Scan(&c.Host, &c.Username, &c.Password)
	if err == sql.ErrNoRows {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("query ddns config: %w", err)
	}
	return c, nil
}

func (m *Manager) SetConfig(ctx context.Context, c Config) error {
	_, err := m.db.ExecContext(ctx, `INSERT INTO ddns_config (id, host, username, password) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET host = excluded.host, username = excluded.username, password = excluded.password`,
		c.Host, c.Username, c.Password)
	if err != nil {
		return fmt.Errorf("write ddns config: %w", err)
	}
	return nil
}

// Update asks YDNS to point the configured host at the caller's address.
// Nothing happens while no host is configured.
func (m *Manager) Update(ctx context.Context) error {
	c, err := m.Config(ctx)
	if err != nil {
		return err
	}
	if c.Host == "" {
		return nil
	}

	u, err := url.Parse(m.UpdateURL)
	if err != nil {
		return fmt.Errorf("parse ddns url: %w", err)
	}
	q := u.Query()
	q.Set("host", c.Host)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.Username, c.Password)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ddns update request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ddns update for %s returned status %d", c.Host, resp.StatusCode)
	}
	log.Printf("[DDNS] Updated record for %s", c.Host)
	return nil
}
