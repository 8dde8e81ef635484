package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Saecki/polaris/internal/ids"
)

var (
	ErrInvalidAuthToken = errors.New("invalid auth token")
	ErrIncorrectScope   = errors.New("auth token has the wrong scope")
)

// Scope restricts what an auth token may be used for.
type Scope string

const (
	ScopePolarisAuth Scope = "polaris-auth"
	ScopeLastFMLink  Scope = "lastfm-link"
)

// LastFMLinkTTL bounds the lifetime of a LastFM link token.
const LastFMLinkTTL = 10 * time.Minute

type AuthToken string

// Authorization is the result of a successful login or token check.
type Authorization struct {
	Username string
	Token    AuthToken
	IsAdmin  bool
}

type claims struct {
	Username string `json:"username"`
	Scope    Scope  `json:"scope"`
	jwt.RegisteredClaims
}

// Login checks the credentials and issues a general purpose auth token.
func (m *Manager) Login(ctx context.Context, name, password string) (Authorization, error) {
	u, err := m.checkPassword(ctx, name, password)
	if err != nil {
		return Authorization{}, err
	}
	token, err := m.GenerateAuthToken(u.Name, ScopePolarisAuth)
	if err != nil {
		return Authorization{}, err
	}
	return Authorization{Username: u.Name, Token: token, IsAdmin: u.IsAdmin()}, nil
}

// GenerateAuthToken signs a token for the user limited to scope.
func (m *Manager) GenerateAuthToken(name string, scope Scope) (AuthToken, error) {
	now := time.Now()
	c := claims{
		Username: name,
		Scope:    scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       ids.NewBase62(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if scope == ScopeLastFMLink {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(LastFMLinkTTL))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign auth token: %w", err)
	}
	return AuthToken(signed), nil
}

// Authenticate verifies token for scope and reloads the user it names, so a
// deleted account or a revoked admin flag takes effect immediately.
func (m *Manager) Authenticate(ctx context.Context, token AuthToken, scope Scope) (Authorization, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(string(token), &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Authorization{}, ErrInvalidAuthToken
	}
	if _, err := ids.Base62ToUUID(c.ID); err != nil {
		return Authorization{}, ErrInvalidAuthToken
	}
	if c.Scope != scope {
		return Authorization{}, ErrIncorrectScope
	}

	u, err := m.Get(ctx, c.Username)
	if errors.Is(err, ErrUserNotFound) {
		return Authorization{}, ErrInvalidAuthToken
	}
	if err != nil {
		return Authorization{}, err
	}
	return Authorization{Username: u.Name, Token: token, IsAdmin: u.IsAdmin()}, nil
}
