// Package thumbnail renders and caches resized album art.
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/Saecki/polaris/internal/ids"
)

var ErrUnreadableImage = errors.New("image could not be decoded")

// Options controls how a thumbnail is produced. A nil MaxDimension keeps the
// source resolution.
type Options struct {
	MaxDimension         *uint32
	ResizeIfAlmostSquare bool
	PadToSquare          bool
}

// DefaultOptions returns the options used when a caller specifies nothing.
func DefaultOptions() Options {
	maxDimension := uint32(400)
	return Options{
		MaxDimension:         &maxDimension,
		ResizeIfAlmostSquare: true,
		PadToSquare:          true,
	}
}

// cacheKey distinguishes every option combination, including nil vs set bounds.
func (o Options) cacheKey() string {
	dim := "native"
	if o.MaxDimension != nil {
		dim = strconv.FormatUint(uint64(*o.MaxDimension), 10)
	}
	return fmt.Sprintf("%s-%t-%t", dim, o.ResizeIfAlmostSquare, o.PadToSquare)
}

type Manager struct {
	cacheDir string
}

func NewManager(cacheDir string) *Manager {
	return &Manager{cacheDir: filepath.Join(cacheDir, "thumbnails")}
}

// Get returns the path of a cached thumbnail for imagePath, rendering it first
// when no cached copy exists.
func (m *Manager) Get(imagePath string, opts Options) (string, error) {
	out := filepath.Join(m.cacheDir, ids.StableKey(imagePath, opts.cacheKey())+".jpg")
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	src, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableImage, imagePath, err)
	}
	thumb := Render(src, opts)

	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail cache: %w", err)
	}
	// Concurrent renders of one thumbnail each get their own temp file; the
	// last rename wins.
	tmp, err := os.CreateTemp(m.cacheDir, "*.tmp")
	if err != nil {
		return "", fmt.Errorf("create thumbnail file: %w", err)
	}
	err = imaging.Encode(tmp, thumb, imaging.JPEG, imaging.JPEGQuality(80))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	log.Printf("[THUMB] Rendered %s (%s)", imagePath, opts.cacheKey())
	return out, nil
}

// Render applies opts to src.
func Render(src image.Image, opts Options) image.Image {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	longest := width
	if height > longest {
		longest = height
	}

	target := longest
	if opts.MaxDimension != nil && int(*opts.MaxDimension) < longest {
		target = int(*opts.MaxDimension)
	}

	shortest := width + height - longest
	almostSquare := longest > 0 && float64(shortest)/float64(longest) >= 0.95

	var out image.Image = src
	switch {
	case opts.ResizeIfAlmostSquare && almostSquare:
		out = imaging.Resize(src, target, target, imaging.Lanczos)
	case target < longest:
		out = imaging.Fit(src, target, target, imaging.Lanczos)
	}

	if opts.PadToSquare {
		ob := out.Bounds()
		side := ob.Dx()
		if ob.Dy() > side {
			side = ob.Dy()
		}
		if ob.Dx() != ob.Dy() {
			canvas := imaging.New(side, side, color.White)
			out = imaging.PasteCenter(canvas, out)
		}
	}
	return out
}
