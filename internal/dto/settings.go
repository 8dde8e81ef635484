package dto

import "github.com/Saecki/polaris/internal/app/settings"

// Settings is the full, read-back view of the server settings.
type Settings struct {
	AlbumArtPattern      string `json:"album_art_pattern"`
	ReindexEveryNSeconds int32  `json:"reindex_every_n_seconds"`
}

func NewSettingsFromInternal(s settings.Settings) Settings {
	return Settings{
		AlbumArtPattern:      s.IndexAlbumArtPattern,
		ReindexEveryNSeconds: s.IndexSleepDurationSeconds,
	}
}

// NewSettings is a sparse settings patch. Absent fields keep their value.
type NewSettings struct {
	AlbumArtPattern      *string `json:"album_art_pattern,omitempty" toml:"album_art_pattern,omitempty"`
	ReindexEveryNSeconds *int32  `json:"reindex_every_n_seconds,omitempty" toml:"reindex_every_n_seconds,omitempty"`
}

func (s NewSettings) Internal() settings.NewSettings {
	return settings.NewSettings{
		AlbumArtPattern:      s.AlbumArtPattern,
		ReindexEveryNSeconds: s.ReindexEveryNSeconds,
	}
}
