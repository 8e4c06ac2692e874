package server

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/pubchem"
	"github.com/ironsheep/labelscan/internal/scanner"
	"github.com/ironsheep/labelscan/internal/session"
)

// SessionCookie holds the browser's session id.
const SessionCookie = "labelscan_session"

//go:embed templates/*.html
var templateFS embed.FS

// WebConfig configures the browser interface.
type WebConfig struct {
	// MaxUploadBytes caps the multipart upload body.
	MaxUploadBytes int64

	// Overlay styles the crop box drawn on the preview image.
	Overlay imaging.OverlayStyle
}

// Web serves the HTML interface for label scanning.
type Web struct {
	svc  *scanner.Service
	cfg  WebConfig
	log  logrus.FieldLogger
	tmpl *template.Template
}

// NewWeb parses the page templates and returns the HTTP front end.
func NewWeb(svc *scanner.Service, cfg WebConfig, log logrus.FieldLogger) (*Web, error) {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	if cfg.Overlay == (imaging.OverlayStyle{}) {
		cfg.Overlay = imaging.DefaultOverlayStyle
	}

	tmpl, err := template.New("layout").Funcs(template.FuncMap{
		"isFound":    func(s pubchem.Status) bool { return s == pubchem.StatusFound },
		"isNotFound": func(s pubchem.Status) bool { return s == pubchem.StatusNotFound },
		"isFailed":   func(s pubchem.Status) bool { return s == pubchem.StatusFailed },
		"isSkipped":  func(s pubchem.Status) bool { return s == pubchem.StatusSkipped },
		"atLeast": func(s session.State, name string) bool {
			switch name {
			case "image":
				return s >= session.ImageLoaded
			case "region":
				return s >= session.RegionSelected
			case "text":
				return s >= session.TextExtracted
			}
			return false
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Web{svc: svc, cfg: cfg, log: log, tmpl: tmpl}, nil
}

// Handler returns the routed HTTP handler, wrapped with request logging.
func (web *Web) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", web.handleIndex)
	mux.HandleFunc("POST /upload", web.handleUpload)
	mux.HandleFunc("GET /image", web.handleImage)
	mux.HandleFunc("POST /select", web.handleSelect)
	mux.HandleFunc("POST /extract", web.handleExtract)
	mux.HandleFunc("POST /verify", web.handleVerify)
	mux.HandleFunc("POST /search", web.handleSearch)
	mux.HandleFunc("GET /healthz", web.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return web.logRequests(mux)
}

// pageData is what index.html renders.
type pageData struct {
	session.Snapshot

	// Box is the crop box in display pixels, pre-filled from the selection
	// or the detected text block.
	Box imaging.Region

	Flash     string
	FlashKind string

	Engine string

	// ImageVersion busts the browser cache after each change.
	ImageVersion int64
}

// sessionID returns the caller's session, creating one and setting the
// cookie when the request carries none or an expired one.
func (web *Web) sessionID(w http.ResponseWriter, r *http.Request) string {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess := web.svc.Store().GetOrCreate(id)
	if sess.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess.ID
}

func (web *Web) render(w http.ResponseWriter, id string, status int, flash, kind string) {
	snap, err := web.svc.Snapshot(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := pageData{
		Snapshot:     snap,
		Flash:        flash,
		FlashKind:    kind,
		Engine:       web.svc.EngineName(),
		ImageVersion: time.Now().UnixNano(),
	}
	switch {
	case snap.Region != nil:
		data.Box = snap.Region.Scaled(snap.Display.Scale)
	case snap.Suggested != nil:
		data.Box = snap.Suggested.Scaled(snap.Display.Scale)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := web.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		web.log.WithError(err).Error("template execution failed")
	}
}

// fail re-renders the page with an error message and a status matching err.
func (web *Web) fail(w http.ResponseWriter, id string, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, imaging.ErrNoSelection):
		status = http.StatusBadRequest
		msg = "Please select a region containing the ingredient list first."
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		status = http.StatusBadRequest
		msg = "Please upload a JPEG or PNG image."
	case errors.Is(err, session.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		msg = "The image is too large."
	case errors.Is(err, imaging.ErrTooManyPixels):
		status = http.StatusRequestEntityTooLarge
		msg = "The image has too many pixels. Please upload a smaller photo."
	}

	if status >= http.StatusInternalServerError {
		web.log.WithField("session", id).WithError(err).Error("request failed")
	}
	web.render(w, id, status, msg, "error")
}

// done redirects back to the page after a successful form post.
func (web *Web) done(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (web *Web) handleIndex(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)
	web.render(w, id, http.StatusOK, "", "")
}

func (web *Web) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, web.cfg.MaxUploadBytes)

	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			web.fail(w, id, err)
			return
		}
		web.render(w, id, http.StatusBadRequest, "Please choose an image to upload.", "error")
		return
	}
	defer file.Close()

	if _, err := web.svc.Upload(r.Context(), id, file); err != nil {
		web.fail(w, id, err)
		return
	}
	web.done(w, r)
}

func (web *Web) handleImage(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)
	img, err := web.svc.Overlay(id, web.cfg.Overlay)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scanner.ErrNoImage) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (web *Web) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)

	var sel imaging.Selection
	fields := []struct {
		name string
		dst  *float64
	}{
		{"left", &sel.Left},
		{"top", &sel.Top},
		{"width", &sel.Width},
		{"height", &sel.Height},
		{"scale_x", &sel.ScaleX},
		{"scale_y", &sel.ScaleY},
	}
	for _, f := range fields {
		v := r.FormValue(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			web.render(w, id, http.StatusBadRequest, "Crop box values must be numbers.", "error")
			return
		}
		*f.dst = n
	}

	if _, err := web.svc.SelectRegion(id, sel, scanner.DisplaySpace); err != nil {
		web.fail(w, id, err)
		return
	}
	web.done(w, r)
}

func (web *Web) handleExtract(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)
	if _, err := web.svc.Extract(r.Context(), id); err != nil {
		web.fail(w, id, err)
		return
	}
	web.done(w, r)
}

func (web *Web) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)
	if _, err := web.svc.EditText(id, r.FormValue("text")); err != nil {
		web.fail(w, id, err)
		return
	}
	web.done(w, r)
}

func (web *Web) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := web.sessionID(w, r)

	// The search form carries the text box; save edits before looking up.
	if err := r.ParseForm(); err == nil && r.PostForm.Has("text") {
		text := r.PostForm.Get("text")
		if snap, err := web.svc.Snapshot(id); err == nil && text != snap.Text {
			if _, err := web.svc.EditText(id, text); err != nil {
				web.fail(w, id, err)
				return
			}
		}
	}

	if _, err := web.svc.Search(r.Context(), id); err != nil {
		web.fail(w, id, err)
		return
	}
	web.done(w, r)
}

func (web *Web) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     "ok",
		"ocr_engine": web.svc.EngineName(),
		"sessions":   web.svc.Store().Len(),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (web *Web) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		web.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("http request")
	})
}
