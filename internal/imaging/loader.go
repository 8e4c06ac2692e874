package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMaxSide caps the longest side of an uploaded label photo.
	DefaultMaxSide = 1800

	// DefaultDisplayWidth is the widest the selection canvas is rendered.
	DefaultDisplayWidth = 700

	// MaxPixels is the largest decoded image accepted, in pixels.
	MaxPixels = 50_000_000
)

var (
	// ErrUnsupportedFormat is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format (want JPEG or PNG)")

	// ErrTooManyPixels is returned when the image header declares more than
	// MaxPixels pixels. Nothing beyond the header is decoded.
	ErrTooManyPixels = errors.New("image dimensions too large")
)

// SourceImage is an uploaded label photo after decoding, downsizing and
// colour normalization.
//
// The pixel buffer is always three-channel colour stored as *image.NRGBA with
// every alpha value at 255. A SourceImage is never mutated after Decode
// returns; a new upload replaces it wholesale.
type SourceImage struct {
	// Image is the normalized pixel buffer with bounds starting at (0, 0).
	Image *image.NRGBA `json:"-"`

	// Width is the image width in pixels after any downsizing.
	Width int `json:"width"`

	// Height is the image height in pixels after any downsizing.
	Height int `json:"height"`

	// Format is the detected encoding: "jpeg" or "png".
	Format string `json:"format"`

	// OriginalWidth and OriginalHeight are the decoded dimensions before the
	// size cap was applied.
	OriginalWidth  int `json:"original_width"`
	OriginalHeight int `json:"original_height"`

	// Downscaled reports whether the size cap shrank the image.
	Downscaled bool `json:"downscaled"`
}

// Bounds returns the pixel bounds of the source image.
func (s *SourceImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.Width, s.Height)
}

// Decode reads an uploaded JPEG or PNG and returns a normalized SourceImage.
//
// Parameters:
//   - r: The encoded image stream. It is read to EOF.
//   - maxSide: Longest permitted side in pixels. Larger images are shrunk with
//     a Lanczos filter, preserving aspect ratio. Zero or negative disables the cap.
//
// EXIF orientation is honoured so phone photos are not rotated sideways.
// Transparent pixels are flattened onto white.
//
// # Errors
//
//   - ErrUnsupportedFormat if the stream is not a JPEG or PNG
//   - ErrTooManyPixels (wrapped) if the header declares more than MaxPixels
//   - a wrapped decode error if the stream is corrupt
func Decode(r io.Reader, maxSide int) (*SourceImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, ErrUnsupportedFormat
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return Normalize(img, format, maxSide), nil
}

// Normalize converts an already decoded image into a SourceImage.
func Normalize(img image.Image, format string, maxSide int) *SourceImage {
	b := img.Bounds()
	rgb := flatten(img)

	src := &SourceImage{
		Format:         format,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
	}

	if maxSide > 0 && (b.Dx() > maxSide || b.Dy() > maxSide) {
		rgb = imaging.Fit(rgb, maxSide, maxSide, imaging.Lanczos)
		src.Downscaled = true
	}

	src.Image = rgb
	src.Width = rgb.Bounds().Dx()
	src.Height = rgb.Bounds().Dy()
	return src
}

// flatten composites img over an opaque white canvas, dropping the alpha channel.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// DisplayScale is the ratio between the on-screen canvas width and the source
// image width. A value of 1 means the canvas shows source pixels one to one.
type DisplayScale float64

// DisplayGeometry describes how a SourceImage is shown on the selection canvas.
type DisplayGeometry struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Scale  DisplayScale `json:"scale"`
}

// Display computes the canvas size for a source image rendered no wider than
// maxWidth. Images that already fit are shown at scale 1.
func (s *SourceImage) Display(maxWidth int) DisplayGeometry {
	if maxWidth <= 0 || s.Width <= maxWidth {
		return DisplayGeometry{Width: s.Width, Height: s.Height, Scale: 1}
	}
	scale := float64(maxWidth) / float64(s.Width)
	return DisplayGeometry{
		Width:  maxWidth,
		Height: int(float64(s.Height) * scale),
		Scale:  DisplayScale(scale),
	}
}

// Render returns the source image resized to the given display geometry.
func (s *SourceImage) Render(g DisplayGeometry) *image.NRGBA {
	if g.Width == s.Width && g.Height == s.Height {
		return imaging.Clone(s.Image)
	}
	return imaging.Resize(s.Image, g.Width, g.Height, imaging.Lanczos)
}
