package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrNoSelection is returned when a crop rectangle is missing or has no area.
var ErrNoSelection = errors.New("no selection: crop region is empty")

// Region is a crop rectangle in source image pixel coordinates.
//
// (Left, Top) is inclusive; Left+Width and Top+Height are exclusive.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the region has non-positive width or height.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Scaled returns the region multiplied by s, rounded to whole pixels.
// It maps a source-space region onto a canvas drawn at display scale s.
func (r Region) Scaled(s DisplayScale) Region {
	f := float64(s)
	return Region{
		Left:   int(math.Round(float64(r.Left) * f)),
		Top:    int(math.Round(float64(r.Top) * f)),
		Width:  int(math.Round(float64(r.Width) * f)),
		Height: int(math.Round(float64(r.Height) * f)),
	}
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.Left, r.Top)
}

// RegionFromRect converts an image.Rectangle to a Region.
func RegionFromRect(rect image.Rectangle) Region {
	return Region{Left: rect.Min.X, Top: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// Selection is a rectangle as reported by a crop selector.
//
// Drawing canvases report an object's unscaled size plus a per-axis scale
// factor applied when the user resizes the box; ScaleX and ScaleY carry those
// factors. Zero means 1.
type Selection struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ScaleX float64 `json:"scale_x,omitempty"`
	ScaleY float64 `json:"scale_y,omitempty"`
}

// MapToSource converts a selector rectangle drawn on a canvas rendered at
// display scale s back into source pixel space.
//
// The result is (l/s, t/s, w*sx/s, h*sy/s) rounded to whole pixels and clamped
// to bounds. With s == 1 and an in-bounds integer rectangle the mapping is the
// identity.
//
// # Errors
//
//   - ErrNoSelection if the width or height is non-positive, either as
//     reported or after clamping (a box entirely outside the image), or if
//     any coordinate is NaN or infinite
//   - an error if s is not a positive finite number
func MapToSource(sel Selection, s DisplayScale, bounds image.Rectangle) (Region, error) {
	f := float64(s)
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return Region{}, fmt.Errorf("invalid display scale %v", f)
	}

	sx, sy := sel.ScaleX, sel.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	w := sel.Width * sx
	h := sel.Height * sy
	l, t := sel.Left/f, sel.Top/f
	w, h = w/f, h/f
	if !finite(l, t, w, h) || w <= 0 || h <= 0 {
		return Region{}, ErrNoSelection
	}

	// Clip in float space so huge selector values never reach int conversion.
	left, width := clipSpan(l, w, bounds.Min.X, bounds.Max.X)
	top, height := clipSpan(t, h, bounds.Min.Y, bounds.Max.Y)

	r := Region{
		Left:   int(math.Round(left)),
		Top:    int(math.Round(top)),
		Width:  int(math.Round(width)),
		Height: int(math.Round(height)),
	}

	r = Clamp(r, bounds)
	if r.Empty() {
		return Region{}, ErrNoSelection
	}
	return r, nil
}

// clipSpan trims the span [pos, pos+size) to [lo, hi). A span that misses
// the range comes back with zero size.
func clipSpan(pos, size float64, lo, hi int) (float64, float64) {
	if pos < float64(lo) {
		size -= float64(lo) - pos
		pos = float64(lo)
	}
	if pos > float64(hi) {
		return float64(hi), 0
	}
	if pos+size > float64(hi) {
		size = float64(hi) - pos
	}
	if size < 0 {
		size = 0
	}
	return pos, size
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp intersects r with bounds. A region that lies entirely outside bounds
// becomes empty.
func Clamp(r Region, bounds image.Rectangle) Region {
	if r.Empty() {
		return Region{}
	}
	clamped := r.Rect().Intersect(bounds)
	if clamped.Empty() {
		return Region{}
	}
	return RegionFromRect(clamped)
}
