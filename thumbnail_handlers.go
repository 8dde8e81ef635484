package main

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/dto"
)

// thumbnailOptions reads size and pad from the query string. Absent
// parameters stay absent so the defaults apply.
func thumbnailOptions(c *gin.Context) (dto.ThumbnailOptions, error) {
	var opts dto.ThumbnailOptions
	if raw, ok := c.GetQuery("size"); ok {
		size, err := dto.ParseThumbnailSize(raw)
		if err != nil {
			return dto.ThumbnailOptions{}, err
		}
		opts.Size = &size
	}
	if raw, ok := c.GetQuery("pad"); ok {
		pad, err := strconv.ParseBool(raw)
		if err != nil {
			return dto.ThumbnailOptions{}, err
		}
		opts.Pad = &pad
	}
	return opts, nil
}

func (s *server) getThumbnail(c *gin.Context) {
	ctx := c.Request.Context()
	opts, err := thumbnailOptions(c)
	if err != nil {
		bindError(c, err)
		return
	}

	imagePath, err := s.vfs.VirtualToReal(ctx, strings.Trim(c.Param("path"), "/"))
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := os.Stat(imagePath); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}

	out, err := s.thumbnails.Get(imagePath, opts.Options())
	if err != nil {
		respondError(c, err)
		return
	}
	c.File(out)
}
