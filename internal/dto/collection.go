package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Saecki/polaris/internal/app/index"
)

var ErrUnknownCollectionFile = errors.New("collection file must be exactly one of Song or Directory")

const (
	tagSong      = "Song"
	tagDirectory = "Directory"
)

// CollectionFile is an entry of the music collection. Song and Directory are
// its only implementations.
type CollectionFile interface {
	collectionFile()
}

type Song struct {
	Path         string   `json:"path"`
	Parent       string   `json:"parent"`
	TrackNumber  *int64   `json:"track_number"`
	DiscNumber   *int64   `json:"disc_number"`
	Title        *string  `json:"title"`
	Artists      []string `json:"artists"`
	AlbumArtists []string `json:"album_artists"`
	Year         *int64   `json:"year"`
	Album        *string  `json:"album"`
	Artwork      *string  `json:"artwork"`
	Duration     *int64   `json:"duration"`
	Lyricist     *string  `json:"lyricist"`
	Composer     *string  `json:"composer"`
	Genre        *string  `json:"genre"`
	Label        *string  `json:"label"`
}

type Directory struct {
	Path      string   `json:"path"`
	Artists   []string `json:"artists"`
	Year      *int64   `json:"year"`
	Album     *string  `json:"album"`
	Artwork   *string  `json:"artwork"`
	DateAdded int64    `json:"date_added"`
}

func (Song) collectionFile()      {}
func (Directory) collectionFile() {}

// NewSong builds a Song from an index record and artist names that were
// already resolved, in the order they should be shown.
func NewSong(s index.Song, artists, albumArtists []string) Song {
	return Song{
		Path:         s.Path,
		Parent:       s.Parent,
		TrackNumber:  s.TrackNumber,
		DiscNumber:   s.DiscNumber,
		Title:        s.Title,
		Artists:      nonNil(artists),
		AlbumArtists: nonNil(albumArtists),
		Year:         s.Year,
		Album:        s.Album,
		Artwork:      s.Artwork,
		Duration:     s.Duration,
		Lyricist:     s.Lyricist,
		Composer:     s.Composer,
		Genre:        s.Genre,
		Label:        s.Label,
	}
}

func NewDirectory(d index.Directory, artists []string) Directory {
	return Directory{
		Path:      d.Path,
		Artists:   nonNil(artists),
		Year:      d.Year,
		Album:     d.Album,
		Artwork:   d.Artwork,
		DateAdded: d.DateAdded,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MarshalCollectionFile encodes f tagged with its variant name, as in
// {"Song": {...}} or {"Directory": {...}}.
func MarshalCollectionFile(f CollectionFile) ([]byte, error) {
	switch v := f.(type) {
	case Song:
		return json.Marshal(map[string]Song{tagSong: v})
	case *Song:
		if v != nil {
			return json.Marshal(map[string]Song{tagSong: *v})
		}
	case Directory:
		return json.Marshal(map[string]Directory{tagDirectory: v})
	case *Directory:
		if v != nil {
			return json.Marshal(map[string]Directory{tagDirectory: *v})
		}
	}
	return nil, ErrUnknownCollectionFile
}

// UnmarshalCollectionFile decodes a tagged entry. The result is a Song or a
// Directory value.
func UnmarshalCollectionFile(data []byte) (CollectionFile, error) {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownCollectionFile, err)
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("%w: found %d tags", ErrUnknownCollectionFile, len(tagged))
	}
	for tag, payload := range tagged {
		if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
			return nil, fmt.Errorf("%w: %s has no payload", ErrUnknownCollectionFile, tag)
		}
		switch tag {
		case tagSong:
			var s Song
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("decode song: %w", err)
			}
			s.Artists = nonNil(s.Artists)
			s.AlbumArtists = nonNil(s.AlbumArtists)
			return s, nil
		case tagDirectory:
			var d Directory
			if err := json.Unmarshal(payload, &d); err != nil {
				return nil, fmt.Errorf("decode directory: %w", err)
			}
			d.Artists = nonNil(d.Artists)
			return d, nil
		default:
			return nil, fmt.Errorf("%w: unknown tag %q", ErrUnknownCollectionFile, tag)
		}
	}
	return nil, ErrUnknownCollectionFile
}

// CollectionFiles is a JSON array of tagged collection entries.
type CollectionFiles []CollectionFile

func (c CollectionFiles) MarshalJSON() ([]byte, error) {
	items := make([]json.RawMessage, len(c))
	for i, f := range c {
		b, err := MarshalCollectionFile(f)
		if err != nil {
			return nil, err
		}
		items[i] = b
	}
	return json.Marshal(items)
}

func (c *CollectionFiles) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(CollectionFiles, len(items))
	for i, item := range items {
		f, err := UnmarshalCollectionFile(item)
		if err != nil {
			return fmt.Errorf("collection file %d: %w", i, err)
		}
		out[i] = f
	}
	*c = out
	return nil
}
