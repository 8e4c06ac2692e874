package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// OverlayStyle controls how a selection box is drawn on the canvas image.
type OverlayStyle struct {
	// Fill is the hex colour blended into the selected area.
	Fill string

	// FillOpacity is the blend weight of Fill (0 leaves the area untouched).
	FillOpacity float64

	// Stroke is the hex colour of the box outline.
	Stroke string

	// StrokeWidth is the outline thickness in pixels.
	StrokeWidth int
}

// DefaultOverlayStyle is a translucent orange box with a darker outline.
var DefaultOverlayStyle = OverlayStyle{
	Fill:        "#ffa500",
	FillOpacity: 0.3,
	Stroke:      "#ff8c00",
	StrokeWidth: 2,
}

// DrawSelection returns a copy of canvas with r highlighted.
//
// r must already be in the canvas coordinate space; use Region.Scaled to map
// a source-space region onto a display-scaled canvas. An empty region returns
// an unmodified copy.
func DrawSelection(canvas image.Image, r Region, style OverlayStyle) (*image.NRGBA, error) {
	fill, err := colorful.Hex(style.Fill)
	if err != nil {
		return nil, fmt.Errorf("invalid fill colour %q: %w", style.Fill, err)
	}
	stroke, err := colorful.Hex(style.Stroke)
	if err != nil {
		return nil, fmt.Errorf("invalid stroke colour %q: %w", style.Stroke, err)
	}

	out := imaging.Clone(canvas)
	box := Clamp(r, out.Bounds())
	if box.Empty() {
		return out, nil
	}

	rect := box.Rect()
	sw := style.StrokeWidth
	sr, sg, sb := stroke.RGB255()

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := out.PixOffset(x, y)
			onEdge := x < rect.Min.X+sw || x >= rect.Max.X-sw ||
				y < rect.Min.Y+sw || y >= rect.Max.Y-sw
			if onEdge {
				out.Pix[i+0], out.Pix[i+1], out.Pix[i+2] = sr, sg, sb
				continue
			}
			if style.FillOpacity <= 0 {
				continue
			}
			px := colorful.Color{
				R: float64(out.Pix[i+0]) / 255,
				G: float64(out.Pix[i+1]) / 255,
				B: float64(out.Pix[i+2]) / 255,
			}
			out.Pix[i+0], out.Pix[i+1], out.Pix[i+2] = px.BlendRgb(fill, style.FillOpacity).Clamped().RGB255()
		}
	}

	return out, nil
}
