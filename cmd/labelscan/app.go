package main

import (
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/labelscan/internal/config"
	"github.com/ironsheep/labelscan/internal/logging"
	"github.com/ironsheep/labelscan/internal/ocr"
	"github.com/ironsheep/labelscan/internal/pubchem"
	"github.com/ironsheep/labelscan/internal/scanner"
	"github.com/ironsheep/labelscan/internal/session"
	"github.com/ironsheep/labelscan/internal/server"
)

// app holds the wired pipeline shared by every command.
type app struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *session.Store
	svc   *scanner.Service
}

// newApp builds the logger, OCR engine, PubChem client and scanner service
// from cfg. Logs go to logOut.
func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, err
	}

	engine, err := ocr.NewEngine(ocr.EngineConfig{
		Backend:     cfg.OCR.Backend,
		Binary:      cfg.OCR.Binary,
		TessdataDir: cfg.OCR.Tessdata,
	}, log)
	if err != nil {
		return nil, err
	}
	extractor := ocr.NewExtractor(engine, ocr.ExtractorConfig{
		Language: cfg.OCR.Language,
		Contrast: cfg.OCR.Contrast,
	}, log)

	client := pubchem.NewClient(
		pubchem.WithBaseURL(cfg.PubChem.BaseURL),
		pubchem.WithHTTPClient(&http.Client{Timeout: cfg.PubChem.Timeout}),
		pubchem.WithRate(cfg.PubChem.Rate),
	)
	resolver := pubchem.NewResolver(client, cfg.PubChem.Workers, log)

	store := session.NewStore(cfg.Session.TTL, log)
	svc := scanner.New(store, extractor, resolver, scanner.Config{
		MaxSide:      cfg.Image.MaxSide,
		DisplayWidth: cfg.Image.DisplayWidth,
		Suggest:      cfg.Image.Suggest,
	}, log)

	log.WithFields(logrus.Fields{
		"ocr_engine": engine.Name(),
		"language":   cfg.OCR.Language,
		"pubchem":    cfg.PubChem.BaseURL,
		"workers":    cfg.PubChem.Workers,
	}).Debug("pipeline ready")

	return &app{cfg: cfg, log: log, store: store, svc: svc}, nil
}

func (a *app) web() (*server.Web, error) {
	return server.NewWeb(a.svc, server.WebConfig{
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
	}, a.log)
}
