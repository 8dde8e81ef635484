// Package lastfm links user accounts to Last.fm for scrobbling.
package lastfm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Saecki/polaris/internal/app/user"
)

const DefaultAPIURL = "https://ws.audioscrobbler.com/2.0/"

var (
	ErrNotConfigured = errors.New("last.fm api credentials are not configured")
	ErrLinkFailed    = errors.New("last.fm rejected the link request")
)

type UserStore interface {
	GenerateAuthToken(name string, scope user.Scope) (user.AuthToken, error)
	LinkLastFM(ctx context.Context, name, sessionKey string) error
	UnlinkLastFM(ctx context.Context, name string) error
}

type Manager struct {
	users     UserStore
	apiKey    string
	apiSecret string
	client    *http.Client

	// APIURL is the Last.fm web service root.
	APIURL string
}

func NewManager(users UserStore, apiKey, apiSecret string) *Manager {
	return &Manager{
		users:     users,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: 10 * time.Second},
		APIURL:    DefaultAPIURL,
	}
}

// LinkToken issues a short-lived token that only authorizes completing a link.
func (m *Manager) LinkToken(username string) (user.AuthToken, error) {
	return m.users.GenerateAuthToken(username, user.ScopeLastFMLink)
}

// Link exchanges a Last.fm token for a session key and stores it for username.
func (m *Manager) Link(ctx context.Context, username, token string) error {
	if m.apiKey == "" || m.apiSecret == "" {
		return ErrNotConfigured
	}
	params := map[string]string{
		"method":  "auth.getSession",
		"api_key": m.apiKey,
		"token":   token,
	}
	params["api_sig"] = sign(params, m.apiSecret)
	params["format"] = "json"

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.APIURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("last.fm request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Session struct {
			Name string `json:"name"`
			Key  string `json:"key"`
		} `json:"session"`
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode last.fm response: %w", err)
	}
	if body.Error != 0 || body.Session.Key == "" {
		return fmt.Errorf("%w: %d %s", ErrLinkFailed, body.Error, body.Message)
	}

	if err := m.users.LinkLastFM(ctx, username, body.Session.Key); err != nil {
		return err
	}
	log.Printf("Linked user %s to last.fm account %s", username, body.Session.Name)
	return nil
}

func (m *Manager) Unlink(ctx context.Context, username string) error {
	return m.users.UnlinkLastFM(ctx, username)
}

// sign computes the api_sig Last.fm expects: the md5 of every parameter name
// and value in name order, followed by the shared secret.
func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(params[k])
	}
	sb.WriteString(secret)
	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
