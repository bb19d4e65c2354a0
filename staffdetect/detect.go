package staffdetect

import (
	"github.com/timotif/divisi-partifi-v2/score"
)

// Detect runs all four phases over one rasterised page and reports the
// result scaled into the caller's display-pixel coordinate space:
// backend pixels (the page's native 300 DPI raster) are what the
// algorithm operates in, but the UI the user confirms dividers in may be
// showing the page at a different (typically smaller) pixel width, so
// every Y coordinate is rescaled by displayWidth/page.WidthPx before
// being returned, matching the contract of spec.md §6's detect
// operation.
func Detect(page *score.Page, displayWidth int, opts Options) Result {
	if page == nil || page.Raster == nil || displayWidth <= 0 {
		return Result{}
	}

	mask := binarize(page.Raster)
	bandsFound := systemBands(mask, page.WidthPx, page.HeightPx, opts)

	perBand := make([][]staveCandidate, len(bandsFound))
	orphansPerBand := make([]int, len(bandsFound))
	for i, b := range bandsFound {
		perBand[i], orphansPerBand[i] = detectStavesInBand(mask, b, page.WidthPx, opts)
	}

	systems := assembleSystems(perBand)
	removeEmptySystems(&systems)
	confirmBarlines(systems, mask, opts)
	confidence := computeConfidence(systems, perBand, orphansPerBand)

	scale := float64(displayWidth) / float64(page.WidthPx)
	dividers := buildDividers(systems, scale)

	warning := confidence >= 0.3 && confidence < 0.7
	return Result{Dividers: dividers, Confidence: confidence, Warning: warning}
}

func removeEmptySystems(systems *[]systemCandidate) {
	out := (*systems)[:0]
	for _, s := range *systems {
		if len(s.staves) > 0 {
			out = append(out, s)
		}
	}
	*systems = out
}

// buildDividers flattens systems into the flat, scaled DividerSet the
// caller sees: within a system, consecutive staves share a single
// divider at the midpoint of their gap (there is no "dead" space between
// two staves of the same system); between systems, two distinct
// dividers bound the inter-system gap, and the second one is flagged as
// opening a new system.
func buildDividers(systems []systemCandidate, scale float64) score.DividerSet {
	var y []float64
	var sysBoundary []bool

	for _, sys := range systems {
		for vi, st := range sys.staves {
			if vi == 0 {
				y = append(y, st.top())
				sysBoundary = append(sysBoundary, true)
			} else {
				mid := (sys.staves[vi-1].bottom() + st.top()) / 2
				y = append(y, mid)
				sysBoundary = append(sysBoundary, false)
			}
		}
		last := sys.staves[len(sys.staves)-1]
		y = append(y, last.bottom())
		sysBoundary = append(sysBoundary, false)
	}

	scaled := make([]float64, len(y))
	for i, v := range y {
		scaled[i] = v * scale
	}
	names := make([]string, 0)
	if len(scaled) > 1 {
		names = make([]string, len(scaled)-1)
	}
	return score.DividerSet{Y: scaled, SystemBoundary: sysBoundary, StripNames: names}
}
