package main

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/app/user"
	"github.com/Saecki/polaris/internal/dto"
)

func (s *server) getLastFMLinkToken(c *gin.Context) {
	token, err := s.lastfm.LinkToken(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LastFMLinkToken{Value: string(token)})
}

// linkLastFM is the callback Last.fm redirects the browser to. It carries its
// own link-scoped token instead of a regular session.
func (s *server) linkLastFM(c *gin.Context) {
	ctx := c.Request.Context()
	var link dto.LastFMLink
	if err := c.ShouldBindQuery(&link); err != nil {
		bindError(c, err)
		return
	}
	content, err := base64.StdEncoding.DecodeString(link.Content)
	if err != nil {
		bindError(c, err)
		return
	}

	auth, err := s.users.Authenticate(ctx, user.AuthToken(link.AuthToken), user.ScopeLastFMLink)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := s.lastfm.Link(ctx, auth.Username, link.Token); err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", content)
}

func (s *server) unlinkLastFM(c *gin.Context) {
	if err := s.lastfm.Unlink(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
