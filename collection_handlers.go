package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Saecki/polaris/internal/app/index"
	"github.com/Saecki/polaris/internal/dto"
)

const albumListSize = 20

func (s *server) browse(c *gin.Context) {
	ctx := c.Request.Context()
	dirs, songs, err := s.index.Browse(ctx, strings.Trim(c.Param("path"), "/"))
	if err != nil {
		respondError(c, err)
		return
	}
	files, err := s.collectionFiles(ctx, dirs, songs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (s *server) flatten(c *gin.Context) {
	ctx := c.Request.Context()
	songs, err := s.index.Flatten(ctx, strings.Trim(c.Param("path"), "/"))
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

func (s *server) random(c *gin.Context) {
	ctx := c.Request.Context()
	dirs, err := s.index.Random(ctx, albumListSize)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.directoryDTOs(ctx, dirs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) recent(c *gin.Context) {
	ctx := c.Request.Context()
	dirs, err := s.index.Recent(ctx, albumListSize)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := s.directoryDTOs(ctx, dirs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) search(c *gin.Context) {
	ctx := c.Request.Context()
	dirs, songs, err := s.index.Search(ctx, strings.TrimPrefix(c.Param("query"), "/"))
	if err != nil {
		respondError(c, err)
		return
	}
	files, err := s.collectionFiles(ctx, dirs, songs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// collectionFiles lists directories before songs, each group in index order.
func (s *server) collectionFiles(ctx context.Context, dirs []index.Directory, songs []index.Song) (dto.CollectionFiles, error) {
	files := make(dto.CollectionFiles, 0, len(dirs)+len(songs))
	for _, d := range dirs {
		dir, err := s.directoryDTO(ctx, d)
		if err != nil {
			return nil, err
		}
		files = append(files, dir)
	}
	for _, sg := range songs {
		song, err := s.songDTO(ctx, sg)
		if err != nil {
			return nil, err
		}
		files = append(files, song)
	}
	return files, nil
}

func (s *server) songDTO(ctx context.Context, sg index.Song) (dto.Song, error) {
	artists, err := s.index.ResolveArtists(ctx, sg.Artists)
	if err != nil {
		return dto.Song{}, err
	}
	albumArtists, err := s.index.ResolveArtists(ctx, sg.AlbumArtists)
	if err != nil {
		return dto.Song{}, err
	}
	return dto.NewSong(sg, artists, albumArtists), nil
}

func (s *server) directoryDTO(ctx context.Context, d index.Directory) (dto.Directory, error) {
	artists, err := s.index.ResolveArtists(ctx, d.Artists)
	if err != nil {
		return dto.Directory{}, err
	}
	return dto.NewDirectory(d, artists), nil
}

func (s *server) songDTOs(ctx context.Context, songs []index.Song) ([]dto.Song, error) {
	out := make([]dto.Song, len(songs))
	for i, sg := range songs {
		song, err := s.songDTO(ctx, sg)
		if err != nil {
			return nil, err
		}
		out[i] = song
	}
	return out, nil
}

func (s *server) directoryDTOs(ctx context.Context, dirs []index.Directory) ([]dto.Directory, error) {
	out := make([]dto.Directory, len(dirs))
	for i, d := range dirs {
		dir, err := s.directoryDTO(ctx, d)
		if err != nil {
			return nil, err
		}
		out[i] = dir
	}
	return out, nil
}
