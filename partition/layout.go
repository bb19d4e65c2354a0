package partition

import "github.com/timotif/divisi-partifi-v2/score"

// applyDefaultLayout fills in a Part's ReferenceHeight and default
// LayoutParams from its regions, per spec.md §4.3: reference height is
// the median stave height, and default spacing is 1.2x that.
func applyDefaultLayout(part *score.Part) {
	if len(part.Regions) == 0 {
		return
	}
	heights := make([]float64, len(part.Regions))
	for i, r := range part.Regions {
		heights[i] = r.ScaledHeight
	}
	medianHeight := median(heights)
	part.ReferenceHeight = medianHeight
	part.Layout = score.LayoutParams{
		SpacingPx:       1.2 * medianHeight,
		OffsetsPx:       make([]float64, len(part.Regions)),
		PageBreaksAfter: nil,
	}
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
