//go:build cgo

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine runs Tesseract in-process through the gosseract binding.
//
// A new client is created per call. gosseract clients are not safe for
// concurrent use.
type GosseractEngine struct {
	tessdataDir string
}

// NewGosseractEngine returns an engine backed by libtesseract.
func NewGosseractEngine(tessdataDir string) (Engine, error) {
	return &GosseractEngine{tessdataDir: tessdataDir}, nil
}

// Name implements Engine.
func (g *GosseractEngine) Name() string { return "gosseract" }

// Recognize implements Engine.
func (g *GosseractEngine) Recognize(ctx context.Context, img []byte, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if g.tessdataDir != "" {
		if err := client.SetTessdataPrefix(g.tessdataDir); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(opts.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Version returns the linked libtesseract version.
func (g *GosseractEngine) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
