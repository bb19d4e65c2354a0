package staffdetect

import "image"

// binarize applies global Otsu thresholding to produce a dark/light mask
// over img, matching original_source/backend/detection/projection.py's
// binarize(), which also uses a histogram-based global threshold rather
// than an adaptive one: scanned scores are scanned under fairly uniform
// lighting, so a single global split is enough, and it keeps the detector
// deterministic and cheap on a 300 DPI page.
//
// The mask is true where a pixel is "ink" (darker than the threshold).
func binarize(img *image.Gray) [][]bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var hist [256]int
	for y := 0; y < h; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y) : img.PixOffset(b.Min.X, b.Min.Y+y)+w]
		for _, v := range row {
			hist[v]++
		}
	}
	threshold := otsuThreshold(hist, w*h)

	mask := make([][]bool, h)
	for y := 0; y < h; y++ {
		mask[y] = make([]bool, w)
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w]
		for x, v := range row {
			mask[y][x] = int(v) < threshold
		}
	}
	return mask
}

// otsuThreshold finds the split that maximises inter-class variance
// between "ink" and "paper" pixels and returns the lowest gray level of
// the paper class, so a pixel is ink exactly when it is below the result.
func otsuThreshold(hist [256]int, total int) int {
	if total == 0 {
		return 128
	}
	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var wBackground, sumBackground float64
	bestVariance := -1.0
	bestThreshold := 128

	for t := 0; t < 256; t++ {
		wBackground += float64(hist[t])
		if wBackground == 0 {
			continue
		}
		wForeground := float64(total) - wBackground
		if wForeground == 0 {
			break
		}
		sumBackground += float64(t * hist[t])
		meanBackground := sumBackground / wBackground
		meanForeground := (sumAll - sumBackground) / wForeground

		variance := wBackground * wForeground * (meanBackground - meanForeground) * (meanBackground - meanForeground)
		if variance > bestVariance {
			bestVariance = variance
			bestThreshold = t + 1
		}
	}
	return bestThreshold
}
