package layout

import (
	"errors"

	"github.com/timotif/divisi-partifi-v2/score"
)

// ErrEmptyPart is returned when a Part has zero live StaffRegions.
var ErrEmptyPart = errors.New("layout: part has no staves")

// ErrLayoutOverflow is returned when a single stave's total height
// exceeds the available page height — a pathological input at 300 DPI
// sheet-music scale.
var ErrLayoutOverflow = errors.New("layout: stave too tall for one page")

// pageAssignment is one output page's set of placed staves, in
// part.Regions index order, before (pass 1) or after (pass 2)
// justification.
type pageAssignment struct {
	indices   []int
	y         []float64
	forcedEnd bool // page ended by page_breaks_after rather than overflow
}

// assignPages is Pass 1: cursor-based placement that starts a new page
// on overflow or a forced break, exactly as spec.md §4.4 describes.
func assignPages(part *score.Part, hasHeader bool) ([]pageAssignment, error) {
	regions := part.Regions
	if len(regions) == 0 {
		return nil, ErrEmptyPart
	}
	available := AvailableHeightPx()
	breaks := toSet(part.Layout.PageBreaksAfter)
	offsets := part.Layout.OffsetsPx

	var pages []pageAssignment
	cur := pageAssignment{}
	titleArea := 0.0
	if hasHeader {
		titleArea = TitleAreaPx
	}
	y := titleArea

	for i, r := range regions {
		totalH := r.ScaledHeight + r.MarkingsOverheadPx
		if totalH > available {
			return nil, ErrLayoutOverflow
		}
		offset := 0.0
		if i < len(offsets) {
			offset = offsets[i]
		}

		gap := 0.0
		if len(cur.indices) > 0 {
			gap = part.Layout.SpacingPx + offset
		}
		candidateY := y + gap

		if len(cur.indices) > 0 && candidateY+totalH > available {
			pages = append(pages, cur)
			cur = pageAssignment{}
			y = 0
			candidateY = 0
		}

		cur.indices = append(cur.indices, i)
		cur.y = append(cur.y, candidateY)
		y = candidateY + totalH

		if breaks[i] {
			cur.forcedEnd = true
			pages = append(pages, cur)
			cur = pageAssignment{}
			y = 0
		}
	}
	if len(cur.indices) > 0 {
		pages = append(pages, cur)
	}
	return pages, nil
}

// justifyPages is Pass 2: on a page that ended because of a forced
// break, redistribute the page's unused space evenly into its
// inter-stave gaps so a short final page doesn't look ragged. Pages
// that ended because of overflow keep Pass 1's raw gaps.
func justifyPages(part *score.Part, pages []pageAssignment) {
	available := AvailableHeightPx()
	for pi := range pages {
		p := &pages[pi]
		if !p.forcedEnd || len(p.indices) < 2 {
			continue
		}
		last := len(p.indices) - 1
		lastRegion := part.Regions[p.indices[last]]
		lastTotalH := lastRegion.ScaledHeight + lastRegion.MarkingsOverheadPx
		used := p.y[last] + lastTotalH
		slack := available - used
		if slack <= 0 {
			continue
		}
		extraPerGap := slack / float64(last)

		newY := make([]float64, len(p.y))
		newY[0] = p.y[0]
		for i := 1; i <= last; i++ {
			prevRegion := part.Regions[p.indices[i-1]]
			prevTotalH := prevRegion.ScaledHeight + prevRegion.MarkingsOverheadPx
			oldGap := p.y[i] - p.y[i-1] - prevTotalH
			newY[i] = newY[i-1] + prevTotalH + oldGap + extraPerGap
		}
		p.y = newY
	}
}

func toSet(xs []int) map[int]bool {
	out := make(map[int]bool, len(xs))
	for _, x := range xs {
		out[x] = true
	}
	return out
}
