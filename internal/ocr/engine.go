package ocr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// PageSegMode values understood by Tesseract. Only the modes this module
// uses are named.
const (
	// PSMAuto lets Tesseract analyse the full page layout.
	PSMAuto = 3

	// PSMSingleBlock asserts the image holds a single uniform block of text.
	PSMSingleBlock = 6
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Backend names accepted by NewEngine.
const (
	BackendAuto      = "auto"
	BackendGosseract = "gosseract"
	BackendExec      = "exec"
)

// ErrEngineUnavailable is returned when no OCR backend can be constructed.
var ErrEngineUnavailable = errors.New("no OCR engine available")

// Options are per-call recognition settings.
type Options struct {
	// Language is a Tesseract language code such as "eng".
	Language string

	// PageSegMode is the Tesseract page segmentation mode.
	PageSegMode int
}

// Engine recognizes text in an encoded PNG image.
type Engine interface {
	// Name identifies the backend in logs and health output.
	Name() string

	// Recognize returns the raw text Tesseract found in img.
	Recognize(ctx context.Context, img []byte, opts Options) (string, error)
}

// EngineConfig selects and configures an OCR backend.
type EngineConfig struct {
	// Backend is "auto", "gosseract" or "exec".
	Backend string

	// Binary is the tesseract executable used by the exec backend.
	Binary string

	// TessdataDir overrides the directory holding *.traineddata files.
	TessdataDir string
}

// NewEngine constructs the configured backend.
//
// "auto" prefers the in-process gosseract binding when the binary was built
// with cgo, and falls back to the tesseract executable on PATH.
func NewEngine(cfg EngineConfig, log logrus.FieldLogger) (Engine, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendGosseract:
		return NewGosseractEngine(cfg.TessdataDir)
	case BackendExec:
		return NewExecEngine(cfg.Binary, cfg.TessdataDir)
	case BackendAuto:
		eng, err := NewGosseractEngine(cfg.TessdataDir)
		if err == nil {
			return eng, nil
		}
		log.WithError(err).Debug("gosseract unavailable, trying tesseract binary")
		eng, execErr := NewExecEngine(cfg.Binary, cfg.TessdataDir)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v; %v", ErrEngineUnavailable, err, execErr)
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", cfg.Backend)
	}
}

// lookBinary resolves the tesseract executable path.
func lookBinary(bin string) (string, error) {
	if bin == "" {
		bin = "tesseract"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("tesseract binary not found: %w", err)
	}
	return path, nil
}
