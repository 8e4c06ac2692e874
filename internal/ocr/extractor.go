package ocr

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/metrics"
)

// ErrNoSelection is returned when the region handed to the extractor has no
// pixels. The engine is not called.
var ErrNoSelection = imaging.ErrNoSelection

// Extractor turns a cropped label region into raw text.
type Extractor struct {
	engine   Engine
	language string
	contrast float64
	log      logrus.FieldLogger
}

// ExtractorConfig holds the fixed preprocessing and engine settings.
type ExtractorConfig struct {
	// Language is the Tesseract language code. Defaults to "eng".
	Language string

	// Contrast is the multiplier applied after grayscale conversion. Values
	// outside [imaging.MinContrast, imaging.MaxContrast] are clamped.
	Contrast float64
}

// NewExtractor wraps engine with the label preprocessing pipeline.
func NewExtractor(engine Engine, cfg ExtractorConfig, log logrus.FieldLogger) *Extractor {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	switch {
	case cfg.Contrast == 0:
		cfg.Contrast = imaging.DefaultContrast
	case cfg.Contrast < imaging.MinContrast:
		cfg.Contrast = imaging.MinContrast
	case cfg.Contrast > imaging.MaxContrast:
		cfg.Contrast = imaging.MaxContrast
	}
	return &Extractor{
		engine:   engine,
		language: cfg.Language,
		contrast: cfg.Contrast,
		log:      log.WithField("engine", engine.Name()),
	}
}

// EngineName reports the backend in use.
func (e *Extractor) EngineName() string { return e.engine.Name() }

// Extract recognizes the text in a cropped colour region.
//
// The region is converted to grayscale, contrast-stretched, and passed to the
// engine in single-block mode. The result is NFKC-normalized so typographic
// ligatures come back as plain letters. An empty string is a valid result
// meaning the engine found nothing; a region with no pixels returns
// ErrNoSelection instead.
func (e *Extractor) Extract(ctx context.Context, region image.Image) (string, error) {
	if region == nil || region.Bounds().Empty() {
		metrics.OCRRuns.WithLabelValues("no_selection").Inc()
		return "", ErrNoSelection
	}

	prepared := imaging.PrepareForOCR(region, e.contrast)
	data, err := imaging.EncodePNG(prepared)
	if err != nil {
		metrics.OCRRuns.WithLabelValues("error").Inc()
		return "", err
	}

	start := time.Now()
	text, err := e.engine.Recognize(ctx, data, Options{
		Language:    e.language,
		PageSegMode: PSMSingleBlock,
	})
	elapsed := time.Since(start)
	metrics.OCRDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.OCRRuns.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%s: %w", e.engine.Name(), err)
	}
	metrics.OCRRuns.WithLabelValues("ok").Inc()

	e.log.WithFields(logrus.Fields{
		"width":    region.Bounds().Dx(),
		"height":   region.Bounds().Dy(),
		"chars":    len(text),
		"duration": elapsed,
	}).Debug("extracted text")

	return norm.NFKC.String(text), nil
}
