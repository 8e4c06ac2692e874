package detection

import (
	"image"

	labelimg "github.com/ironsheep/labelscan/internal/imaging"
)

// edgeThreshold is the gray-level step between neighbours that counts as an
// edge.
const edgeThreshold = 30

// detectEdges marks pixels whose gray level differs from the right or lower
// neighbour by more than edgeThreshold. The outermost ring is never an edge.
func detectEdges(img image.Image) [][]bool {
	gray := labelimg.Grayscale(img)
	width, height := gray.Rect.Dx(), gray.Rect.Dy()

	edges := make([][]bool, height)
	for y := range edges {
		edges[y] = make([]bool, width)
	}

	for y := 1; y < height-1; y++ {
		row := gray.Pix[y*gray.Stride:]
		below := gray.Pix[(y+1)*gray.Stride:]
		for x := 1; x < width-1; x++ {
			c := int(row[x])
			if absInt(c-int(row[x+1])) > edgeThreshold || absInt(c-int(below[x])) > edgeThreshold {
				edges[y][x] = true
			}
		}
	}

	return edges
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// summedArea is an integral image over an edge map, so the number of edge
// pixels inside any window is four lookups.
type summedArea struct {
	width int
	sums  []int
}

func newSummedArea(edges [][]bool, width, height int) *summedArea {
	stride := width + 1
	sums := make([]int, stride*(height+1))
	for y := 0; y < height; y++ {
		rowSum := 0
		for x := 0; x < width; x++ {
			if edges[y][x] {
				rowSum++
			}
			sums[(y+1)*stride+x+1] = sums[y*stride+x+1] + rowSum
		}
	}
	return &summedArea{width: width, sums: sums}
}

// count returns the number of edge pixels in the w x h window at (x, y).
func (s *summedArea) count(x, y, w, h int) int {
	stride := s.width + 1
	a := s.sums[y*stride+x]
	b := s.sums[y*stride+x+w]
	c := s.sums[(y+h)*stride+x]
	d := s.sums[(y+h)*stride+x+w]
	return d - b - c + a
}
