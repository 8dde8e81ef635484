package main

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/app/index"
	"github.com/Saecki/polaris/internal/app/lastfm"
	"github.com/Saecki/polaris/internal/app/playlist"
	"github.com/Saecki/polaris/internal/app/settings"
	"github.com/Saecki/polaris/internal/app/user"
	"github.com/Saecki/polaris/internal/app/vfs"
	"github.com/Saecki/polaris/internal/dto"
)

const (
	ctxUsername = "username"
	ctxIsAdmin  = "isAdmin"
)

var (
	ErrDeletingOwnAccount     = errors.New("cannot delete your own account")
	ErrRemovingOwnAdminRights = errors.New("cannot remove your own admin privileges")
	ErrAuthorizationRequired  = errors.New("authorization required")
	ErrAdminRequired          = errors.New("admin access required")
)

// respondError writes the status that matches err and aborts the request.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, user.ErrIncorrectCredentials),
		errors.Is(err, user.ErrInvalidAuthToken),
		errors.Is(err, user.ErrIncorrectScope),
		errors.Is(err, ErrAuthorizationRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrAdminRequired):
		status = http.StatusForbidden
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, playlist.ErrPlaylistNotFound),
		errors.Is(err, index.ErrDirectoryNotFound),
		errors.Is(err, index.ErrSongNotFound),
		errors.Is(err, vfs.ErrMountDirNotFound):
		status = http.StatusNotFound
	case errors.Is(err, user.ErrDuplicateUsername),
		errors.Is(err, ErrDeletingOwnAccount),
		errors.Is(err, ErrRemovingOwnAdminRights):
		status = http.StatusConflict
	case errors.Is(err, user.ErrEmptyUsername),
		errors.Is(err, user.ErrEmptyPassword),
		errors.Is(err, settings.ErrInvalidAlbumArtPattern),
		errors.Is(err, playlist.ErrEmptyPlaylistName),
		errors.Is(err, dto.ErrUnknownThumbnailSize):
		status = http.StatusBadRequest
	case errors.Is(err, lastfm.ErrLinkFailed):
		status = http.StatusBadGateway
	case errors.Is(err, lastfm.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindError answers a request whose body or query could not be decoded.
func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
}

// requestToken reads the bearer token, falling back to the auth_token query
// parameter.
func requestToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	var q dto.AuthQueryParameters
	if err := c.ShouldBindQuery(&q); err == nil {
		return q.AuthToken
	}
	return ""
}

func (s *server) authenticate(c *gin.Context) bool {
	token := requestToken(c)
	if token == "" {
		respondError(c, ErrAuthorizationRequired)
		return false
	}
	auth, err := s.users.Authenticate(c.Request.Context(), user.AuthToken(token), user.ScopePolarisAuth)
	if err != nil {
		respondError(c, err)
		return false
	}
	c.Set(ctxUsername, auth.Username)
	c.Set(ctxIsAdmin, auth.IsAdmin)
	return true
}

func (s *server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authenticate(c) {
			return
		}
		c.Next()
	}
}

// adminOrSetup requires an admin, except while no account exists yet so the
// first one can be configured.
func (s *server) adminOrSetup() gin.HandlerFunc {
	return func(c *gin.Context) {
		hasUsers, err := s.users.HasAnyUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if !hasUsers {
			c.Next()
			return
		}
		if !s.authenticate(c) {
			return
		}
		adminOnly()(c)
	}
}

func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxIsAdmin) {
			respondError(c, ErrAdminRequired)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(ctxUsername)
}
