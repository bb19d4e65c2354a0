// Package partition implements the PartitionPlanner: it turns a Score's
// per-page, user-confirmed DividerSets into an ordered list of Parts, one
// per instrument, each an ordered list of StaffRegions collected across
// every page. Grounded on spec.md §4.3; coordinate rescaling uses
// seehuhn.de/go/geom/matrix.Matrix, the teacher's own geometry dependency
// (seehuhn-go-pdf/graphics/matrix.go and its converter/image_renderer.go
// callers compose affine transforms the same way), so that the
// display-pixel→backend-pixel conversion is a scale matrix rather than ad
// hoc scalar multiplication. The package converts only in that direction
// and builds no inverse matrix.
package partition

import (
	"sort"
	"strings"

	"seehuhn.de/go/geom/matrix"

	"github.com/timotif/divisi-partifi-v2/layout"
	"github.com/timotif/divisi-partifi-v2/score"
)

// Rectangle is the wire-level bounding box shape of spec.md §6, in
// display-pixel coordinates with integer fields.
type Rectangle struct {
	Page int
	X, Y, W, H int
}

// Empty reports whether the rectangle has zero area (spec.md §8: "a
// header rectangle with zero area ⇒ treated as no header").
func (r Rectangle) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rectangle) toRegion(m matrix.Matrix) score.Region {
	x0, y0 := m.Apply(float64(r.X), float64(r.Y))
	x1, y1 := m.Apply(float64(r.X+r.W), float64(r.Y+r.H))
	return score.Region{Page: r.Page, X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Input is the PartitionPlanner's request, matching spec.md §4.3's
// contract field-for-field.
type Input struct {
	Score        *score.Score
	DisplayWidth int
	Pages        map[int]score.DividerSet
	Header       *Rectangle
	Markings     []Rectangle
}

// Plan runs the PartitionPlanner and returns an ordered list of Parts.
// Ordering is deterministic: first-encountered (page, strip index).
func Plan(in Input) []*score.Part {
	pageByIndex := make(map[int]*score.Page, len(in.Score.Pages))
	for _, p := range in.Score.Pages {
		pageByIndex[p.Index] = p
	}

	var order []int
	for idx := range in.Pages {
		order = append(order, idx)
	}
	sort.Ints(order)

	type groupedRegion struct {
		page   int
		region score.StaffRegion
	}
	groups := map[string][]groupedRegion{}
	var groupOrder []string

	for _, pageIdx := range order {
		page, ok := pageByIndex[pageIdx]
		if !ok {
			continue
		}
		backendScale := backendScaleMatrix(page.WidthPx, in.DisplayWidth)
		dividers := scaleDividers(in.Pages[pageIdx], backendScale)

		for _, strip := range score.Strips(dividers) {
			if strip.Kind != score.StripLive {
				continue
			}
			name := strings.TrimSpace(strip.Name)
			if name == "" {
				continue
			}
			height := strip.BottomY - strip.TopY
			scaledHeight := height
			if page.WidthPx > 0 {
				scaledHeight = height * (layout.ContentWidthPx() / float64(page.WidthPx))
			}
			region := score.StaffRegion{Page: pageIdx, TopY: strip.TopY, BottomY: strip.BottomY, ScaledHeight: scaledHeight}
			if _, seen := groups[name]; !seen {
				groupOrder = append(groupOrder, name)
			}
			groups[name] = append(groups[name], groupedRegion{page: pageIdx, region: region})
		}
	}

	var headerRegion *score.Region
	if in.Header != nil && !in.Header.Empty() {
		if page, ok := pageByIndex[in.Header.Page]; ok {
			m := backendScaleMatrix(page.WidthPx, in.DisplayWidth)
			r := in.Header.toRegion(m)
			headerRegion = &r
		}
	}

	var candidates []candidate
	for _, name := range groupOrder {
		for i, gr := range groups[name] {
			candidates = append(candidates, candidate{partName: name, staveIndex: i, page: gr.page, region: gr.region})
		}
	}
	markingsByPart := attachMarkings(in.Markings, candidates, pageByIndex, in.DisplayWidth)

	parts := make([]*score.Part, 0, len(groupOrder))
	for _, name := range groupOrder {
		grs := groups[name]
		if len(grs) == 0 {
			continue
		}
		regions := make([]score.StaffRegion, len(grs))
		for i, gr := range grs {
			regions[i] = gr.region
		}
		part := &score.Part{Name: name, Regions: regions, Header: headerRegion}
		applyMarkings(part, markingsByPart[name])
		applyDefaultLayout(part)
		parts = append(parts, part)
	}
	return parts
}

// backendScaleMatrix is the display-pixel→backend-pixel transform
// `page.width_px / display_width`, spec.md §4.3's coordinate
// normalisation, expressed as a uniform 2-D scale matrix.
func backendScaleMatrix(backendWidth, displayWidth int) matrix.Matrix {
	if displayWidth <= 0 {
		return matrix.Identity
	}
	s := float64(backendWidth) / float64(displayWidth)
	return matrix.Scale(s, s)
}

func scaleDividers(d score.DividerSet, m matrix.Matrix) score.DividerSet {
	y := make([]float64, len(d.Y))
	for i, v := range d.Y {
		_, scaledY := m.Apply(0, v)
		y[i] = scaledY
	}
	return score.DividerSet{Y: y, SystemBoundary: d.SystemBoundary, StripNames: d.StripNames}
}
