package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// CropResult contains a cropped region encoded for transport to a client.
type CropResult struct {
	Region      Region `json:"region"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts a source-space region from img at full resolution.
//
// The region is clamped to the image bounds first, so a rectangle that
// overruns the right or bottom edge by a rounding pixel still crops cleanly.
// A region with no area after clamping returns ErrNoSelection.
func Crop(img image.Image, r Region) (*image.NRGBA, error) {
	clamped := Clamp(r, img.Bounds())
	if clamped.Empty() {
		return nil, ErrNoSelection
	}
	return imaging.Crop(img, clamped.Rect()), nil
}

// CropPreview crops a region and returns it as a base64 PNG, optionally
// rescaled by scale (1.0 keeps the native size).
func CropPreview(img image.Image, r Region, scale float64) (*CropResult, error) {
	cropped, err := Crop(img, r)
	if err != nil {
		return nil, err
	}

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Region:      Clamp(r, img.Bounds()),
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
