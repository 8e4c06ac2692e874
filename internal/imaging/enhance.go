package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultContrast is the contrast multiplier applied before OCR.
	DefaultContrast = 2.0

	// MinContrast and MaxContrast bound the configurable multiplier.
	MinContrast = 2.0
	MaxContrast = 2.5
)

// PrepareForOCR converts a cropped colour region to single-channel grayscale
// and then stretches contrast by factor around the mean gray level.
//
// The order is fixed: grayscale first, contrast second. For every pixel
//
//	out = mean + factor*(in - mean)
//
// clamped to [0, 255], where mean is the rounded average gray value of the
// region. A factor of 1 leaves the grayscale image unchanged.
func PrepareForOCR(img image.Image, factor float64) *image.Gray {
	return AdjustContrast(Grayscale(img), factor)
}

// Grayscale returns img as a one-byte-per-pixel gray image with bounds at the
// origin. bild's grayscale output is still four-channel RGBA, so it is copied
// into an image.Gray.
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), rgba, b.Min, draw.Src)
	return gray
}

// AdjustContrast applies a mean-centred contrast multiplier to a gray image
// in place and returns it.
func AdjustContrast(gray *image.Gray, factor float64) *image.Gray {
	b := gray.Bounds()
	if b.Empty() {
		return gray
	}

	mean := MeanGray(gray)

	var lut [256]uint8
	for i := range lut {
		v := mean + factor*(float64(i)-mean)
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		lut[i] = uint8(v + 0.5)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y) : gray.PixOffset(b.Min.X, y)+b.Dx()]
		for i, p := range row {
			row[i] = lut[p]
		}
	}
	return gray
}

// MeanGray returns the average gray level of img rounded to the nearest integer.
func MeanGray(gray *image.Gray) float64 {
	b := gray.Bounds()
	var hist [256]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y) : gray.PixOffset(b.Min.X, y)+b.Dx()]
		for _, p := range row {
			hist[p]++
		}
	}

	levels := make([]float64, 256)
	for i := range levels {
		levels[i] = float64(i)
	}
	return float64(int(stat.Mean(levels, hist[:]) + 0.5))
}
