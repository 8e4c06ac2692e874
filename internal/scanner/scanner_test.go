package scanner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/labelscan/internal/imaging"
	"github.com/ironsheep/labelscan/internal/ingredients"
	"github.com/ironsheep/labelscan/internal/pubchem"
	"github.com/ironsheep/labelscan/internal/session"
)

type fakeRecognizer struct {
	text  string
	err   error
	calls int
	size  image.Point
}

func (f *fakeRecognizer) Extract(_ context.Context, region image.Image) (string, error) {
	f.calls++
	f.size = region.Bounds().Size()
	return f.text, f.err
}

func (f *fakeRecognizer) EngineName() string { return "fake" }

type fakeResolver struct {
	calls int
	terms []string
}

func (f *fakeResolver) ResolveAll(_ context.Context, cs []ingredients.Candidate) []pubchem.Result {
	f.calls++
	out := make([]pubchem.Result, len(cs))
	for i, c := range cs {
		f.terms = append(f.terms, c.SearchTerm)
		out[i] = pubchem.Result{Candidate: c, Status: pubchem.StatusFound, Compound: &pubchem.Compound{CID: i + 1}}
	}
	return out
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pngReader(t *testing.T, w, h int) io.Reader {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return &buf
}

func newService(rec *fakeRecognizer, res *fakeResolver) *Service {
	store := session.NewStore(0, quietLogger())
	return New(store, rec, res, Config{DisplayWidth: 700}, quietLogger())
}

func TestPipeline(t *testing.T) {
	rec := &fakeRecognizer{text: "Nutrition\nIngredients: Water, Sugar (white), Salt"}
	res := &fakeResolver{}
	svc := newService(rec, res)
	ctx := context.Background()
	id := svc.Store().Create().ID

	snap, err := svc.Upload(ctx, id, pngReader(t, 1400, 700))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if snap.State != session.ImageLoaded {
		t.Fatalf("state: got %s", snap.State)
	}
	if snap.Display.Width != 700 || snap.Display.Scale != 0.5 {
		t.Errorf("display: got %+v", snap.Display)
	}

	// Display-space box at scale 0.5 doubles into source pixels.
	snap, err = svc.SelectRegion(id, imaging.Selection{Left: 10, Top: 20, Width: 100, Height: 50}, DisplaySpace)
	if err != nil {
		t.Fatalf("SelectRegion failed: %v", err)
	}
	want := imaging.Region{Left: 20, Top: 40, Width: 200, Height: 100}
	if snap.Region == nil || *snap.Region != want {
		t.Fatalf("region: got %v, want %v", snap.Region, want)
	}

	if snap, err = svc.Extract(ctx, id); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if rec.size != (image.Point{200, 100}) {
		t.Errorf("OCR region size: got %v", rec.size)
	}
	if snap.State != session.TextExtracted || !strings.HasPrefix(snap.Text, "Nutrition") {
		t.Errorf("after extract: %+v", snap)
	}

	if snap, err = svc.Search(ctx, id); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if snap.State != session.ResultsDisplayed {
		t.Errorf("state: got %s", snap.State)
	}
	wantTerms := []string{"Water", "Sugar", "Salt"}
	if strings.Join(res.terms, ",") != strings.Join(wantTerms, ",") {
		t.Errorf("terms: got %v, want %v", res.terms, wantTerms)
	}
	if len(snap.Results) != 3 || snap.Results[1].Candidate.Original != "Sugar (white)" {
		t.Errorf("results: %+v", snap.Results)
	}
}

func TestExtract_NoSelection(t *testing.T) {
	rec := &fakeRecognizer{}
	svc := newService(rec, &fakeResolver{})
	ctx := context.Background()
	id := svc.Store().Create().ID

	if _, err := svc.Upload(ctx, id, pngReader(t, 50, 50)); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Extract(ctx, id)
	if !errors.Is(err, imaging.ErrNoSelection) {
		t.Errorf("got %v, want ErrNoSelection", err)
	}
	if rec.calls != 0 {
		t.Error("OCR ran without a selection")
	}
}

func TestSelectRegion_Degenerate(t *testing.T) {
	svc := newService(&fakeRecognizer{}, &fakeResolver{})
	id := svc.Store().Create().ID
	if _, err := svc.Upload(context.Background(), id, pngReader(t, 50, 50)); err != nil {
		t.Fatal(err)
	}

	for name, sel := range map[string]imaging.Selection{
		"zero width":      {Left: 5, Top: 5, Width: 0, Height: 10},
		"outside image":   {Left: 500, Top: 500, Width: 10, Height: 10},
		"negative height": {Left: 5, Top: 5, Width: 10, Height: -3},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.SelectRegion(id, sel, SourceSpace); !errors.Is(err, imaging.ErrNoSelection) {
				t.Errorf("got %v, want ErrNoSelection", err)
			}
		})
	}

	snap, _ := svc.Snapshot(id)
	if snap.State != session.ImageLoaded {
		t.Errorf("rejected selection changed state to %s", snap.State)
	}
}

func TestInvalidTransitions(t *testing.T) {
	svc := newService(&fakeRecognizer{}, &fakeResolver{})
	ctx := context.Background()
	id := svc.Store().Create().ID

	if _, err := svc.SelectRegion(id, imaging.Selection{Width: 1, Height: 1}, SourceSpace); !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("select before upload: got %v", err)
	}
	if _, err := svc.Search(ctx, id); !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("search before upload: got %v", err)
	}
	if _, err := svc.Extract(ctx, "no-such-session"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("unknown session: got %v", err)
	}
}

func TestExtract_FailureKeepsState(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("tesseract crashed")}
	svc := newService(rec, &fakeResolver{})
	ctx := context.Background()
	id := svc.Store().Create().ID

	if _, err := svc.Upload(ctx, id, pngReader(t, 60, 40)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SelectRegion(id, imaging.Selection{Width: 30, Height: 20}, SourceSpace); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Extract(ctx, id); err == nil {
		t.Fatal("expected extraction error")
	}
	snap, _ := svc.Snapshot(id)
	if snap.State != session.RegionSelected {
		t.Errorf("state: got %s, want region_selected", snap.State)
	}
}

func TestEditTextThenSearch(t *testing.T) {
	res := &fakeResolver{}
	svc := newService(&fakeRecognizer{}, res)
	ctx := context.Background()
	id := svc.Store().Create().ID

	if _, err := svc.Upload(ctx, id, pngReader(t, 20, 20)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.EditText(id, "Citric Acid, ab"); err != nil {
		t.Fatal(err)
	}
	snap, err := svc.Search(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Results) != 1 || res.terms[0] != "Citric Acid" {
		t.Errorf("results: %+v", snap.Results)
	}
}

func TestSearch_EmptyText(t *testing.T) {
	res := &fakeResolver{}
	svc := newService(&fakeRecognizer{text: ""}, res)
	ctx := context.Background()
	id := svc.Store().Create().ID

	if _, err := svc.Upload(ctx, id, pngReader(t, 20, 20)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SelectRegion(id, imaging.Selection{Width: 10, Height: 10}, SourceSpace); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Extract(ctx, id); err != nil {
		t.Fatal(err)
	}
	snap, err := svc.Search(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Results) != 0 || len(res.terms) != 0 {
		t.Errorf("empty text produced lookups: %+v", res.terms)
	}
}

func TestUpload_Unsupported(t *testing.T) {
	svc := newService(&fakeRecognizer{}, &fakeResolver{})
	id := svc.Store().Create().ID

	_, err := svc.Upload(context.Background(), id, strings.NewReader("GIF89a not really"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	snap, _ := svc.Snapshot(id)
	if snap.State != session.Idle {
		t.Errorf("failed upload changed state to %s", snap.State)
	}
}

func TestOverlay(t *testing.T) {
	svc := newService(&fakeRecognizer{}, &fakeResolver{})
	id := svc.Store().Create().ID

	if _, err := svc.Overlay(id, imaging.DefaultOverlayStyle); !errors.Is(err, ErrNoImage) {
		t.Errorf("got %v, want ErrNoImage", err)
	}

	if _, err := svc.Upload(context.Background(), id, pngReader(t, 1400, 200)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SelectRegion(id, imaging.Selection{Left: 100, Top: 20, Width: 200, Height: 50}, DisplaySpace); err != nil {
		t.Fatal(err)
	}
	img, err := svc.Overlay(id, imaging.DefaultOverlayStyle)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 700 || b.Dy() != 100 {
		t.Errorf("overlay size: got %v, want 700x100", b)
	}
	// Stroke sits on the display-space box edge.
	if c := img.NRGBAAt(100, 40); c.R != 0xff || c.G != 0x8c || c.B != 0 {
		t.Errorf("stroke pixel: got %v", c)
	}
}

func TestPreview(t *testing.T) {
	svc := newService(&fakeRecognizer{}, &fakeResolver{})
	id := svc.Store().Create().ID
	if _, err := svc.Upload(context.Background(), id, pngReader(t, 100, 100)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Preview(id, 1); !errors.Is(err, imaging.ErrNoSelection) {
		t.Errorf("got %v, want ErrNoSelection", err)
	}
	if _, err := svc.SelectRegion(id, imaging.Selection{Left: 10, Top: 10, Width: 40, Height: 20}, SourceSpace); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Preview(id, 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 40 || res.Height != 20 || res.ImageBase64 == "" {
		t.Errorf("preview: %+v", res)
	}
}

func TestScan(t *testing.T) {
	rec := &fakeRecognizer{text: "Ingredients: Water"}
	res := &fakeResolver{}
	svc := newService(rec, res)

	snap, err := svc.Scan(context.Background(), pngReader(t, 80, 60), imaging.Region{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if rec.size != (image.Point{80, 60}) {
		t.Errorf("whole image not used: %v", rec.size)
	}
	if len(snap.Results) != 1 {
		t.Errorf("results: %+v", snap.Results)
	}
	if svc.Store().Len() != 0 {
		t.Error("scan session not evicted")
	}
}

func TestParseSpace(t *testing.T) {
	if s, err := ParseSpace(""); err != nil || s != DisplaySpace {
		t.Errorf("empty: %v %v", s, err)
	}
	if s, err := ParseSpace("source"); err != nil || s != SourceSpace {
		t.Errorf("source: %v %v", s, err)
	}
	if _, err := ParseSpace("canvas"); err == nil {
		t.Error("expected error")
	}
}
