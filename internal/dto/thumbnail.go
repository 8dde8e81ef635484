package dto

import (
	"errors"
	"fmt"

	"github.com/Saecki/polaris/internal/app/thumbnail"
)

var ErrUnknownThumbnailSize = errors.New("unknown thumbnail size")

type ThumbnailSize string

const (
	ThumbnailSizeSmall  ThumbnailSize = "small"
	ThumbnailSizeLarge  ThumbnailSize = "large"
	ThumbnailSizeNative ThumbnailSize = "native"
)

// ParseThumbnailSize accepts only the wire names of the known sizes.
func ParseThumbnailSize(s string) (ThumbnailSize, error) {
	switch ThumbnailSize(s) {
	case ThumbnailSizeSmall, ThumbnailSizeLarge, ThumbnailSizeNative:
		return ThumbnailSize(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownThumbnailSize, s)
}

func (s ThumbnailSize) MarshalText() ([]byte, error) {
	if _, err := ParseThumbnailSize(string(s)); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (s *ThumbnailSize) UnmarshalText(text []byte) error {
	parsed, err := ParseThumbnailSize(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MaxDimension is the bound on the longest edge. Native has no bound and
// returns nil.
func (s ThumbnailSize) MaxDimension() *uint32 {
	var dim uint32
	switch s {
	case ThumbnailSizeSmall:
		dim = 400
	case ThumbnailSizeLarge:
		dim = 1200
	default:
		return nil
	}
	return &dim
}

type ThumbnailOptions struct {
	Size *ThumbnailSize `json:"size,omitempty"`
	Pad  *bool          `json:"pad,omitempty"`
}

// Options overlays the fields present in o onto the default thumbnail options.
func (o ThumbnailOptions) Options() thumbnail.Options {
	opts := thumbnail.DefaultOptions()
	if o.Size != nil {
		opts.MaxDimension = o.Size.MaxDimension()
	}
	if o.Pad != nil {
		opts.PadToSquare = *o.Pad
	}
	return opts
}
