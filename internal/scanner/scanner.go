// Package scanner runs the label pipeline for a session: upload, crop
// selection, text extraction, text editing and compound lookup.
//
// Every operation locks its session for its whole duration, validates the
// transition before doing any work, and only moves the session forward once
// the work succeeded. A failed OCR call or a rejected selection leaves the
// session exactly as it was.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/labelscan/internal/detection"
	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/ingredients"
	"github.com/ironsheep/labelscan/internal/pubchem"
	"github.com/ironsheep/labelscan/internal/session"
)

// Recognizer extracts text from a cropped region. *ocr.Extractor implements it.
type Recognizer interface {
	Extract(ctx context.Context, region image.Image) (string, error)
	EngineName() string
}

// Resolver looks up a batch of candidates. *pubchem.Resolver implements it.
type Resolver interface {
	ResolveAll(ctx context.Context, candidates []ingredients.Candidate) []pubchem.Result
}

// Space says which coordinate system a selection is expressed in.
type Space int

const (
	// DisplaySpace is the width-capped canvas the image is shown on.
	DisplaySpace Space = iota
	// SourceSpace is the stored source image.
	SourceSpace
)

// ParseSpace accepts "display" and "source". Empty means display.
func ParseSpace(s string) (Space, error) {
	switch s {
	case "", "display":
		return DisplaySpace, nil
	case "source":
		return SourceSpace, nil
	}
	return DisplaySpace, fmt.Errorf("unknown coordinate space %q", s)
}

// Config holds image geometry settings.
type Config struct {
	// MaxSide caps the longest side of uploaded images.
	MaxSide int

	// DisplayWidth caps the width of the selection canvas.
	DisplayWidth int

	// Suggest enables pre-filling a crop box from detected text blocks.
	Suggest bool
}

// Service runs pipeline steps against sessions in a store.
type Service struct {
	store    *session.Store
	ocr      Recognizer
	resolver Resolver
	cfg      Config
	log      logrus.FieldLogger
}

// New returns a service. Zero config values use the imaging defaults.
func New(store *session.Store, ocr Recognizer, resolver Resolver, cfg Config, log logrus.FieldLogger) *Service {
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = imaging.DefaultMaxSide
	}
	if cfg.DisplayWidth <= 0 {
		cfg.DisplayWidth = imaging.DefaultDisplayWidth
	}
	return &Service{store: store, ocr: ocr, resolver: resolver, cfg: cfg, log: log}
}

// Store returns the session store the service operates on.
func (s *Service) Store() *session.Store { return s.store }

// EngineName reports the OCR backend.
func (s *Service) EngineName() string { return s.ocr.EngineName() }

// withSession runs fn with the session locked.
func (s *Service) withSession(id string, fn func(*session.Session) error) error {
	sess, err := s.store.Get(id)
	if err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()
	return fn(sess)
}

// Upload decodes an image into the session, replacing whatever was there.
func (s *Service) Upload(ctx context.Context, id string, r io.Reader) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.withSession(id, func(sess *session.Session) error {
		src, err := imaging.Decode(r, s.cfg.MaxSide)
		if err != nil {
			return err
		}
		if err := sess.Apply(session.Upload); err != nil {
			return err
		}
		sess.Source = src
		sess.Display = src.Display(s.cfg.DisplayWidth)

		if s.cfg.Suggest {
			if region, ok := detection.SuggestTextBlock(src.Image); ok {
				sess.Suggested = region
			}
		}

		s.log.WithFields(logrus.Fields{
			"session":    id,
			"width":      src.Width,
			"height":     src.Height,
			"format":     src.Format,
			"downscaled": src.Downscaled,
		}).Info("image loaded")

		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// SelectRegion stores a crop box. Display-space boxes are mapped back to
// source pixels through the session's display scale.
func (s *Service) SelectRegion(id string, sel imaging.Selection, space Space) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.withSession(id, func(sess *session.Session) error {
		if _, err := session.Next(sess.State, session.SelectRegion); err != nil {
			return err
		}

		scale := imaging.DisplayScale(1)
		if space == DisplaySpace {
			scale = sess.Display.Scale
		}
		region, err := imaging.MapToSource(sel, scale, sess.Source.Bounds())
		if err != nil {
			return err
		}

		if err := sess.Apply(session.SelectRegion); err != nil {
			return err
		}
		sess.Region = region
		sess.Suggested = imaging.Region{}

		s.log.WithFields(logrus.Fields{
			"session": id,
			"region":  region.String(),
		}).Debug("region selected")

		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// Preview returns the selected region cropped at full resolution and scaled
// by scale.
func (s *Service) Preview(id string, scale float64) (*imaging.CropResult, error) {
	var out *imaging.CropResult
	err := s.withSession(id, func(sess *session.Session) error {
		if sess.Source == nil || sess.Region.Empty() {
			return imaging.ErrNoSelection
		}
		res, err := imaging.CropPreview(sess.Source.Image, sess.Region, scale)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

// Extract crops the selected region and runs OCR on it. Any text, including
// an empty string, replaces the session's text.
func (s *Service) Extract(ctx context.Context, id string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.withSession(id, func(sess *session.Session) error {
		if _, err := session.Next(sess.State, session.Extract); err != nil {
			return err
		}

		cropped, err := imaging.Crop(sess.Source.Image, sess.Region)
		if err != nil {
			return err
		}
		text, err := s.ocr.Extract(ctx, cropped)
		if err != nil {
			return fmt.Errorf("text extraction failed: %w", err)
		}

		if err := sess.Apply(session.Extract); err != nil {
			return err
		}
		sess.Text = text

		s.log.WithFields(logrus.Fields{
			"session": id,
			"region":  sess.Region.String(),
			"chars":   len(text),
		}).Info("text extracted")

		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// EditText replaces the session's text with the user's corrected version.
func (s *Service) EditText(id, text string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.withSession(id, func(sess *session.Session) error {
		if err := sess.Apply(session.EditText); err != nil {
			return err
		}
		sess.Text = text
		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// Search parses the session's text into candidates and looks each one up.
// Per-candidate failures are reported in the results, never as an error.
func (s *Service) Search(ctx context.Context, id string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.withSession(id, func(sess *session.Session) error {
		if _, err := session.Next(sess.State, session.Search); err != nil {
			return err
		}

		candidates := ingredients.Parse(sess.Text)
		results := s.resolver.ResolveAll(ctx, candidates)

		if err := sess.Apply(session.Search); err != nil {
			return err
		}
		sess.Candidates = candidates
		sess.Results = results

		s.log.WithFields(logrus.Fields{
			"session":    id,
			"candidates": len(candidates),
			"found":      countStatus(results, pubchem.StatusFound),
			"failed":     countStatus(results, pubchem.StatusFailed),
		}).Info("ingredients resolved")

		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(id string) (session.Snapshot, error) {
	var snap session.Snapshot
	err := s.withSession(id, func(sess *session.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	return snap, err
}

// ErrNoImage is returned when a session has no image to render.
var ErrNoImage = errors.New("no image loaded")

// Overlay renders the display-size image with the selected region, or the
// suggested one when nothing is selected yet, drawn on top.
func (s *Service) Overlay(id string, style imaging.OverlayStyle) (*image.NRGBA, error) {
	var out *image.NRGBA
	err := s.withSession(id, func(sess *session.Session) error {
		if sess.Source == nil {
			return ErrNoImage
		}
		canvas := sess.Source.Render(sess.Display)

		box := sess.Region
		if box.Empty() {
			box = sess.Suggested
		}
		if box.Empty() {
			out = canvas
			return nil
		}

		img, err := imaging.DrawSelection(canvas, box.Scaled(sess.Display.Scale), style)
		if err != nil {
			return err
		}
		out = img
		return nil
	})
	return out, err
}

func countStatus(results []pubchem.Result, st pubchem.Status) int {
	n := 0
	for _, r := range results {
		if r.Status == st {
			n++
		}
	}
	return n
}
