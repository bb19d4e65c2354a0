// Package staffdetect implements the StaffDetector: given one rasterised
// page, it returns ordered strip boundaries, a system-boundary flag per
// boundary, and a confidence score, tolerating scan noise, skew, and
// unusual system layouts by degrading to a low-confidence (or empty)
// result rather than an error.
//
// The four phases (system-band segmentation, per-band stave detection,
// system assembly, confidence) follow spec.md §4.2 and are ported from
// this project's own Python prototype at
// original_source/backend/detection/projection.py — see SPEC_FULL.md §4.2
// for the file-by-file grounding.
package staffdetect

import "github.com/timotif/divisi-partifi-v2/score"

// ExpectedLines is the number of horizontal lines in one stave.
const ExpectedLines = 5

// Options tunes the detector's thresholds. The zero value is not useful;
// use DefaultOptions.
type Options struct {
	// PeakStdDevMultiplier is k in "threshold = mean + k*stddev" (Phase B).
	PeakStdDevMultiplier float64

	// StaveGroupTolerance is the allowed relative deviation between a
	// candidate stave's line spacings (Phase B clustering). The
	// squint-rescue retry does not use it: that retry re-scans the band's
	// profile with a heavier blur, and no clustering pass runs with a
	// relaxed tolerance.
	StaveGroupTolerance float64

	// LowSignalFraction is the fraction of the barline signal's maximum
	// below which a row range counts as a "low-signal run" (Phase A).
	LowSignalFraction float64

	// BarlineMarginPx is the width, in backend pixels, of the left-margin
	// strip the barline vertical signal is computed over.
	BarlineMarginPx int

	// BarlineMinSpanRatio is the minimum fraction of a system's row
	// height that a contiguous ink run in the left-margin strip must
	// cover for the system to count as confirmed (Phase C).
	BarlineMinSpanRatio float64
}

// DefaultOptions returns the tuning spec.md §4.2 states ("k≈1.0", "≈5%",
// "≈30%", "≥80%").
func DefaultOptions() Options {
	return Options{
		PeakStdDevMultiplier: 1.0,
		StaveGroupTolerance:  0.30,
		LowSignalFraction:    0.05,
		BarlineMarginPx:      60,
		BarlineMinSpanRatio:  0.80,
	}
}

// Result is the StaffDetector's output at a particular display-pixel
// width, matching the wire contract of spec.md §6.
type Result struct {
	Dividers   score.DividerSet
	Confidence float64
	// Warning is true when 0.3 <= Confidence < 0.7: a result the UI
	// should ask the user to review rather than trust outright.
	Warning bool
}

// staveCandidate is one cluster of ExpectedLines peaks found in Phase B,
// in page-backend-pixel Y coordinates (band-local until translated back).
type staveCandidate struct {
	lines []float64 // always len == ExpectedLines, ascending
}

func (s staveCandidate) top() float64    { return s.lines[0] }
func (s staveCandidate) bottom() float64 { return s.lines[len(s.lines)-1] }
func (s staveCandidate) centre() float64 { return (s.top() + s.bottom()) / 2 }

// band is one system band produced by Phase A.
type band struct {
	top, bottom float64
}

// systemCandidate groups staves assigned to one system in Phase C.
type systemCandidate struct {
	staves    []staveCandidate
	confirmed bool
}
