package detection

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	labelimg "github.com/ironsheep/labelscan/internal/imaging"
)

// analysisSide is the longest side the image is shrunk to before scanning.
// Label text blocks survive this comfortably and the scan stays fast.
const analysisSide = 600

// TextBlock is a candidate text area in source pixel coordinates.
type TextBlock struct {
	Region     labelimg.Region `json:"region"`
	Confidence float64         `json:"confidence"`
}

// window is a sliding window size in analysis pixels.
type window struct{ w, h int }

var windowSizes = []window{
	{60, 18}, // Small print
	{90, 24}, // Body text
	{120, 30},
	{48, 15}, // Very small print
}

// DetectTextBlocks finds areas likely to contain lines of text.
//
// It looks for windows with medium edge density and predominantly horizontal
// edge runs, then merges overlapping windows into blocks. Blocks are returned
// in source coordinates, sorted by area (largest first), since the ingredient
// list is usually the largest paragraph on a label.
func DetectTextBlocks(img image.Image, minConfidence float64) []TextBlock {
	bounds := img.Bounds()
	if bounds.Dx() < 2 || bounds.Dy() < 2 {
		return nil
	}

	factor := 1.0
	work := img
	if bounds.Dx() > analysisSide || bounds.Dy() > analysisSide {
		work = imaging.Fit(img, analysisSide, analysisSide, imaging.Box)
		factor = float64(bounds.Dx()) / float64(work.Bounds().Dx())
	}

	wb := work.Bounds()
	width, height := wb.Dx(), wb.Dy()
	edges := detectEdges(work)
	sat := newSummedArea(edges, width, height)

	candidates := make([]TextBlock, 0)
	for _, ws := range windowSizes {
		if ws.w > width || ws.h > height {
			continue
		}
		stepX := ws.w / 2
		stepY := ws.h / 2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				area := ws.w * ws.h
				density := float64(sat.count(x, y, ws.w, ws.h)) / float64(area)

				// Text has medium edge density: not blank, not texture.
				if density < 0.05 || density > 0.4 {
					continue
				}

				horizontalScore := calculateHorizontalScore(edges, x, y, ws.w, ws.h)
				confidence := horizontalScore * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}

				candidates = append(candidates, TextBlock{
					Region:     labelimg.Region{Left: x, Top: y, Width: ws.w, Height: ws.h},
					Confidence: math.Round(confidence*1000) / 1000,
				})
			}
		}
	}

	merged := mergeOverlappingBlocks(candidates)

	for i := range merged {
		merged[i].Region = labelimg.Clamp(scaleRegion(merged[i].Region, factor), bounds)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ai := merged[i].Region.Width * merged[i].Region.Height
		aj := merged[j].Region.Width * merged[j].Region.Height
		return ai > aj
	})

	return merged
}

// SuggestTextBlock returns the largest detected text block, used to pre-fill
// the crop box after an upload. ok is false when nothing text-like was found.
func SuggestTextBlock(img image.Image) (labelimg.Region, bool) {
	blocks := DetectTextBlocks(img, 0.3)
	if len(blocks) == 0 {
		return labelimg.Region{}, false
	}
	return blocks[0].Region, true
}

func scaleRegion(r labelimg.Region, f float64) labelimg.Region {
	if f == 1 {
		return r
	}
	return labelimg.Region{
		Left:   int(float64(r.Left) * f),
		Top:    int(float64(r.Top) * f),
		Width:  int(math.Ceil(float64(r.Width) * f)),
		Height: int(math.Ceil(float64(r.Height) * f)),
	}
}

// calculateHorizontalScore calculates how "horizontal" the edge distribution is
func calculateHorizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlappingBlocks folds overlapping candidates into their union,
// repeating until no two blocks overlap.
func mergeOverlappingBlocks(blocks []TextBlock) []TextBlock {
	merged := make([]TextBlock, 0, len(blocks))
	for _, b := range blocks {
		merged = append(merged, b)
		for changed := true; changed; {
			changed = false
			last := len(merged) - 1
			for i := 0; i < last; i++ {
				if !regionsOverlap(merged[i].Region, merged[last].Region) {
					continue
				}
				merged[i].Region = unionRegion(merged[i].Region, merged[last].Region)
				merged[i].Confidence = math.Max(merged[i].Confidence, merged[last].Confidence)
				merged = merged[:last]
				// The grown block may now touch others; re-check it as the newest.
				merged[i], merged[len(merged)-1] = merged[len(merged)-1], merged[i]
				changed = true
				break
			}
		}
	}
	return merged
}

// regionsOverlap checks if two regions overlap
func regionsOverlap(a, b labelimg.Region) bool {
	return a.Rect().Overlaps(b.Rect())
}

// unionRegion combines two regions into their bounding box
func unionRegion(a, b labelimg.Region) labelimg.Region {
	return labelimg.RegionFromRect(a.Rect().Union(b.Rect()))
}
