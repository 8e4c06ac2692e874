package detection

import (
	"image"
	"image/color"
	"testing"

	labelimg "github.com/ironsheep/labelscan/internal/imaging"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createTextPatternImage draws rows of letter-like vertical strokes inside block.
func createTextPatternImage(width, height int, block image.Rectangle) *image.RGBA {
	img := createTestImage(width, height, color.White)

	for y := block.Min.Y; y+8 <= block.Max.Y; y += 14 {
		for x := block.Min.X; x+2 <= block.Max.X; x += 6 {
			for dy := 0; dy < 8; dy++ {
				img.Set(x, y+dy, color.Black)
				img.Set(x+1, y+dy, color.Black)
			}
		}
	}

	return img
}

// createHighEdgeDensityImage creates an image with very high edge density (not text)
func createHighEdgeDensityImage(width, height int) *image.RGBA {
	img := createTestImage(width, height, color.White)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestDetectTextBlocks(t *testing.T) {
	block := image.Rect(20, 20, 180, 100)
	img := createTextPatternImage(200, 150, block)

	blocks := DetectTextBlocks(img, 0.1)
	if len(blocks) == 0 {
		t.Fatal("expected at least one text block")
	}

	got := blocks[0].Region.Rect()
	if !got.Overlaps(block) {
		t.Errorf("largest block %v does not overlap drawn text %v", got, block)
	}
	if !got.In(image.Rect(0, 0, 200, 150)) {
		t.Errorf("block %v outside image", got)
	}
}

func TestDetectTextBlocks_RightHalfOnly(t *testing.T) {
	block := image.Rect(220, 20, 380, 100)
	img := createTextPatternImage(400, 150, block)

	blocks := DetectTextBlocks(img, 0.1)
	if len(blocks) == 0 {
		t.Fatal("expected a text block in the right half")
	}
	for _, b := range blocks {
		if b.Region.Rect().Max.X <= 200 {
			t.Errorf("block %v lies in the blank left half", b.Region)
		}
	}
	if !blocks[0].Region.Rect().Overlaps(block) {
		t.Errorf("largest block %v does not overlap drawn text %v", blocks[0].Region, block)
	}
}

func TestDetectTextBlocks_EmptyImage(t *testing.T) {
	img := createTestImage(200, 150, color.White)

	if blocks := DetectTextBlocks(img, 0.3); len(blocks) != 0 {
		t.Errorf("expected 0 text blocks in empty image, got %d", len(blocks))
	}
}

func TestDetectTextBlocks_HighDensity(t *testing.T) {
	img := createHighEdgeDensityImage(200, 150)

	// Checkerboard density is far above 40%, so no window qualifies.
	if blocks := DetectTextBlocks(img, 0.3); len(blocks) != 0 {
		t.Errorf("expected 0 blocks for texture, got %d", len(blocks))
	}
}

func TestDetectTextBlocks_LargeImageScaledBack(t *testing.T) {
	block := image.Rect(100, 200, 1100, 700)
	img := createTextPatternImage(1200, 900, block)

	blocks := DetectTextBlocks(img, 0.1)
	for _, b := range blocks {
		if !b.Region.Rect().In(img.Bounds()) {
			t.Errorf("block %v outside source bounds", b.Region)
		}
	}
}

func TestDetectTextBlocks_SortedByArea(t *testing.T) {
	img := createTextPatternImage(300, 200, image.Rect(20, 20, 280, 180))

	blocks := DetectTextBlocks(img, 0.1)
	for i := 1; i < len(blocks); i++ {
		prev := blocks[i-1].Region.Width * blocks[i-1].Region.Height
		cur := blocks[i].Region.Width * blocks[i].Region.Height
		if prev < cur {
			t.Fatal("blocks should be sorted by area (largest first)")
		}
	}
}

func TestDetectTextBlocks_TinyImage(t *testing.T) {
	img := createTestImage(1, 1, color.White)
	if blocks := DetectTextBlocks(img, 0.3); blocks != nil {
		t.Errorf("expected nil for 1x1 image, got %v", blocks)
	}
}

func TestSuggestTextBlock(t *testing.T) {
	img := createTextPatternImage(200, 150, image.Rect(20, 20, 180, 100))

	r, ok := SuggestTextBlock(img)
	if !ok {
		t.Fatal("expected a suggestion for a block of text strokes")
	}
	if r.Empty() {
		t.Error("suggested region should not be empty")
	}
}

func TestSuggestTextBlock_Blank(t *testing.T) {
	if _, ok := SuggestTextBlock(createTestImage(100, 100, color.White)); ok {
		t.Error("blank image should produce no suggestion")
	}
}

func TestCalculateHorizontalScore(t *testing.T) {
	edges := make([][]bool, 50)
	for y := 0; y < 50; y++ {
		edges[y] = make([]bool, 50)
	}
	for y := 10; y < 40; y += 5 {
		for x := 5; x < 45; x++ {
			edges[y][x] = true
		}
	}

	score := calculateHorizontalScore(edges, 0, 0, 50, 50)
	if score < 0 || score > 1 {
		t.Errorf("Score should be between 0 and 1, got %.2f", score)
	}
}

func TestCalculateHorizontalScore_Empty(t *testing.T) {
	edges := make([][]bool, 50)
	for y := 0; y < 50; y++ {
		edges[y] = make([]bool, 50)
	}

	if score := calculateHorizontalScore(edges, 0, 0, 50, 50); score != 0 {
		t.Errorf("Empty edges should have score 0, got %.2f", score)
	}
}

func TestMergeOverlappingBlocks(t *testing.T) {
	blocks := []TextBlock{
		{Region: labelimg.Region{Left: 10, Top: 10, Width: 40, Height: 20}, Confidence: 0.8},
		{Region: labelimg.Region{Left: 100, Top: 100, Width: 50, Height: 30}, Confidence: 0.6},
		{Region: labelimg.Region{Left: 30, Top: 10, Width: 40, Height: 20}, Confidence: 0.7}, // overlaps first
	}

	merged := mergeOverlappingBlocks(blocks)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 merged blocks, got %d", len(merged))
	}

	found := false
	for _, b := range merged {
		if b.Region == (labelimg.Region{Left: 10, Top: 10, Width: 60, Height: 20}) {
			found = true
			if b.Confidence != 0.8 {
				t.Errorf("merged confidence: got %v, want 0.8", b.Confidence)
			}
		}
	}
	if !found {
		t.Errorf("union block missing from %+v", merged)
	}
}

func TestMergeOverlappingBlocks_Chain(t *testing.T) {
	// The third block bridges the first two, so everything collapses.
	blocks := []TextBlock{
		{Region: labelimg.Region{Left: 0, Top: 0, Width: 10, Height: 10}},
		{Region: labelimg.Region{Left: 20, Top: 0, Width: 10, Height: 10}},
		{Region: labelimg.Region{Left: 5, Top: 0, Width: 20, Height: 10}},
	}

	merged := mergeOverlappingBlocks(blocks)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 block, got %d: %+v", len(merged), merged)
	}
	want := labelimg.Region{Left: 0, Top: 0, Width: 30, Height: 10}
	if merged[0].Region != want {
		t.Errorf("got %+v, want %+v", merged[0].Region, want)
	}
}

func TestMergeOverlappingBlocks_Empty(t *testing.T) {
	if merged := mergeOverlappingBlocks(nil); len(merged) != 0 {
		t.Errorf("Expected 0 blocks, got %d", len(merged))
	}
}

func TestRegionsOverlap(t *testing.T) {
	tests := []struct {
		name     string
		a, b     labelimg.Region
		expected bool
	}{
		{"overlapping", labelimg.Region{Left: 0, Top: 0, Width: 50, Height: 50}, labelimg.Region{Left: 25, Top: 25, Width: 50, Height: 50}, true},
		{"non-overlapping horizontal", labelimg.Region{Left: 0, Top: 0, Width: 50, Height: 50}, labelimg.Region{Left: 60, Top: 0, Width: 40, Height: 50}, false},
		{"non-overlapping vertical", labelimg.Region{Left: 0, Top: 0, Width: 50, Height: 50}, labelimg.Region{Left: 0, Top: 60, Width: 50, Height: 40}, false},
		{"touching edges (not overlapping)", labelimg.Region{Left: 0, Top: 0, Width: 50, Height: 50}, labelimg.Region{Left: 50, Top: 0, Width: 50, Height: 50}, false},
		{"contained", labelimg.Region{Left: 0, Top: 0, Width: 100, Height: 100}, labelimg.Region{Left: 25, Top: 25, Width: 50, Height: 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := regionsOverlap(tt.a, tt.b); got != tt.expected {
				t.Errorf("regionsOverlap: got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDetectEdges(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if x < 25 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	edges := detectEdges(img)

	edgeFound := false
	for y := 1; y < 49 && !edgeFound; y++ {
		for x := 23; x <= 26; x++ {
			if edges[y][x] {
				edgeFound = true
				break
			}
		}
	}
	if !edgeFound {
		t.Error("Edge detection should find vertical edge")
	}
}

func TestDetectEdges_FullRowWidth(t *testing.T) {
	// Stripes only near the right edge.
	img := createTestImage(200, 20, color.White)
	for y := 0; y < 20; y++ {
		for x := 150; x < 200; x += 4 {
			img.Set(x, y, color.Black)
			img.Set(x+1, y, color.Black)
		}
	}

	edges := detectEdges(img)

	right, left := 0, 0
	for y := range edges {
		for x, e := range edges[y] {
			if !e {
				continue
			}
			if x >= 149 {
				right++
			} else {
				left++
			}
		}
	}
	if right == 0 {
		t.Error("no edges found where the stripes are")
	}
	if left != 0 {
		t.Errorf("found %d edges in the blank area", left)
	}
}

func TestSummedArea(t *testing.T) {
	edges := make([][]bool, 4)
	for y := range edges {
		edges[y] = make([]bool, 5)
	}
	edges[0][0] = true
	edges[1][2] = true
	edges[3][4] = true

	sat := newSummedArea(edges, 5, 4)

	tests := []struct {
		x, y, w, h int
		want       int
	}{
		{0, 0, 5, 4, 3},
		{0, 0, 1, 1, 1},
		{1, 1, 2, 2, 1},
		{3, 2, 2, 2, 1},
		{1, 0, 1, 4, 0},
	}
	for _, tt := range tests {
		if got := sat.count(tt.x, tt.y, tt.w, tt.h); got != tt.want {
			t.Errorf("count(%d,%d,%d,%d): got %d, want %d", tt.x, tt.y, tt.w, tt.h, got, tt.want)
		}
	}
}
