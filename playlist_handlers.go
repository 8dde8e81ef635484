package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/dto"
)

func (s *server) listPlaylists(c *gin.Context) {
	names, err := s.playlists.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.ListPlaylistsEntry, len(names))
	for i, name := range names {
		out[i] = dto.ListPlaylistsEntry{Name: name}
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) savePlaylist(c *gin.Context) {
	var in dto.SavePlaylistInput
	if err := c.ShouldBindJSON(&in); err != nil {
		bindError(c, err)
		return
	}
	if err := s.playlists.Save(c.Request.Context(), currentUser(c), c.Param("name"), in.Tracks); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *server) readPlaylist(c *gin.Context) {
	ctx := c.Request.Context()
	songs, err := s.playlists.Read(ctx, currentUser(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.songDTOs(ctx, songs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) deletePlaylist(c *gin.Context) {
	if err := s.playlists.Delete(c.Request.Context(), currentUser(c), c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
