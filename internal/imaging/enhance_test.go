package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestPrepareForOCR_SingleChannel(t *testing.T) {
	img := createPatternImage(40, 40)

	out := PrepareForOCR(img, DefaultContrast)

	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 40 {
		t.Errorf("dimensions: got %v, want 40x40", out.Bounds())
	}
	if len(out.Pix) != 40*40 {
		t.Errorf("expected one byte per pixel, got %d bytes", len(out.Pix))
	}
}

func TestGrayscale(t *testing.T) {
	img := createPatternImage(40, 40)
	sub := img.SubImage(image.Rect(20, 20, 40, 40)) // white quadrant

	gray := Grayscale(sub)

	if gray.Rect != image.Rect(0, 0, 20, 20) {
		t.Errorf("bounds: got %v, want origin-based 20x20", gray.Rect)
	}
	if len(gray.Pix) != 20*20 {
		t.Fatalf("expected one byte per pixel, got %d bytes", len(gray.Pix))
	}
	if got := gray.GrayAt(19, 19).Y; got != 255 {
		t.Errorf("last pixel: got %d, want 255", got)
	}
}

func TestGrayscale_RightEdgeDark(t *testing.T) {
	img := createInMemoryImage(40, 4, color.White)
	for y := 0; y < 4; y++ {
		for x := 30; x < 40; x++ {
			img.Set(x, y, color.Black)
		}
	}

	gray := Grayscale(img)

	if got := gray.GrayAt(35, 2).Y; got != 0 {
		t.Errorf("dark column: got %d, want 0", got)
	}
	if got := gray.GrayAt(5, 2).Y; got != 255 {
		t.Errorf("light column: got %d, want 255", got)
	}
}

func TestAdjustContrast(t *testing.T) {
	// Half the pixels at 100, half at 150: mean 125.
	gray := image.NewGray(image.Rect(0, 0, 10, 2))
	for x := 0; x < 10; x++ {
		gray.SetGray(x, 0, color.Gray{Y: 100})
		gray.SetGray(x, 1, color.Gray{Y: 150})
	}

	AdjustContrast(gray, 2.0)

	if got := gray.GrayAt(0, 0).Y; got != 75 {
		t.Errorf("dark pixel: got %d, want 75", got)
	}
	if got := gray.GrayAt(0, 1).Y; got != 175 {
		t.Errorf("light pixel: got %d, want 175", got)
	}
}

func TestAdjustContrast_Clamps(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 0})
	gray.SetGray(1, 0, color.Gray{Y: 255})

	AdjustContrast(gray, 2.5)

	if got := gray.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("black: got %d, want 0", got)
	}
	if got := gray.GrayAt(1, 0).Y; got != 255 {
		t.Errorf("white: got %d, want 255", got)
	}
}

func TestAdjustContrast_IdentityFactor(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 3, 1))
	gray.SetGray(0, 0, color.Gray{Y: 10})
	gray.SetGray(1, 0, color.Gray{Y: 128})
	gray.SetGray(2, 0, color.Gray{Y: 240})

	AdjustContrast(gray, 1.0)

	want := []uint8{10, 128, 240}
	for x, w := range want {
		if got := gray.GrayAt(x, 0).Y; got != w {
			t.Errorf("x=%d: got %d, want %d", x, got, w)
		}
	}
}

func TestAdjustContrast_Empty(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 0, 0))
	if out := AdjustContrast(gray, 2.0); out != gray {
		t.Error("empty image should be returned unchanged")
	}
}

func TestMeanGray(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 1))
	for x, v := range []uint8{0, 100, 200, 255} {
		gray.SetGray(x, 0, color.Gray{Y: v})
	}

	// (0+100+200+255)/4 = 138.75
	if got := MeanGray(gray); got != 139 {
		t.Errorf("got %v, want 139", got)
	}
}
