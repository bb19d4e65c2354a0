package staffdetect

import (
	"image"
	"image/color"
	"testing"
)

func TestBinarizeSeparatesDarkFromLight(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	// Left half dark (ink), right half light (paper).
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(230)
			if x < 2 {
				v = 20
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	mask := binarize(img)
	if len(mask) != 2 {
		t.Fatalf("len(mask) = %d, want 2", len(mask))
	}
	for y := 0; y < 2; y++ {
		if !mask[y][0] || !mask[y][1] {
			t.Errorf("mask[%d][0:2] = %v, want ink (true)", y, mask[y][:2])
		}
		if mask[y][2] || mask[y][3] {
			t.Errorf("mask[%d][2:4] = %v, want paper (false)", y, mask[y][2:])
		}
	}
}

func TestOtsuThresholdEmptyHistogram(t *testing.T) {
	var hist [256]int
	if got := otsuThreshold(hist, 0); got != 128 {
		t.Errorf("otsuThreshold(empty) = %d, want 128", got)
	}
}

func TestOtsuThresholdSeparatesTwoClusters(t *testing.T) {
	var hist [256]int
	hist[10] = 100
	hist[240] = 100
	th := otsuThreshold(hist, 200)
	if th <= 10 || th >= 240 {
		t.Errorf("otsuThreshold = %d, want strictly between 10 and 240", th)
	}
}
