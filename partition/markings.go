package partition

import (
	"math"
	"sort"

	"github.com/timotif/divisi-partifi-v2/score"
)

// candidate is a named StaffRegion eligible to receive an attached
// marking: a stave belonging to some Part.
type candidate struct {
	partName   string
	staveIndex int
	page       int
	region     score.StaffRegion
}

// attachMarkings implements spec.md §4.3's marking-attachment rule: each
// marking goes to the candidate on its page with maximum vertical
// overlap (ties by centre distance); a marking overlapping no stave at
// all becomes a page-level decoration on the first stave on that page,
// per spec.md §9's decision to preserve this rule unchanged.
func attachMarkings(markings []Rectangle, candidates []candidate, pageByIndex map[int]*score.Page, displayWidth int) map[string][]score.AttachedMarking {
	byPage := map[int][]candidate{}
	for _, c := range candidates {
		byPage[c.page] = append(byPage[c.page], c)
	}
	for page := range byPage {
		sort.SliceStable(byPage[page], func(i, j int) bool {
			return byPage[page][i].region.TopY < byPage[page][j].region.TopY
		})
	}

	out := map[string][]score.AttachedMarking{}
	for _, rect := range markings {
		page, ok := pageByIndex[rect.Page]
		if !ok {
			continue
		}
		onPage := byPage[rect.Page]
		if len(onPage) == 0 {
			continue
		}
		m := backendScaleMatrix(page.WidthPx, displayWidth)
		region := rect.toRegion(m)
		if region.Empty() {
			continue
		}
		markingCentre := region.Y + region.H/2

		best := onPage[0]
		bestOverlap := overlap(region, best.region)
		bestDist := math.Abs(markingCentre - staveCentre(best.region))
		anyOverlap := bestOverlap > 0

		for _, c := range onPage[1:] {
			ov := overlap(region, c.region)
			if ov > 0 {
				anyOverlap = true
			}
			dist := math.Abs(markingCentre - staveCentre(c.region))
			if ov > bestOverlap || (ov == bestOverlap && dist < bestDist) {
				best, bestOverlap, bestDist = c, ov, dist
			}
		}

		target := best
		if !anyOverlap {
			// Outside every stave's vertical range: attach to the first
			// stave on the page instead of the nearest-by-distance one.
			target = onPage[0]
		}

		overhang := math.Max(0, math.Max(target.region.TopY-region.Y, (region.Y+region.H)-target.region.BottomY))
		out[target.partName] = append(out[target.partName], score.AttachedMarking{
			Region:     region,
			StaveIndex: target.staveIndex,
			OverhangPx: overhang,
		})
	}
	return out
}

func overlap(marking score.Region, region score.StaffRegion) float64 {
	top := math.Max(marking.Y, region.TopY)
	bottom := math.Min(marking.Y+marking.H, region.BottomY)
	if bottom <= top {
		return 0
	}
	return bottom - top
}

func staveCentre(r score.StaffRegion) float64 {
	return (r.TopY + r.BottomY) / 2
}

// applyMarkings attaches markings to a Part and rolls each stave's
// maximum marking overhang up into its StaffRegion.MarkingsOverheadPx.
func applyMarkings(part *score.Part, markings []score.AttachedMarking) {
	part.Markings = markings
	for _, m := range markings {
		if m.StaveIndex < 0 || m.StaveIndex >= len(part.Regions) {
			continue
		}
		if m.OverhangPx > part.Regions[m.StaveIndex].MarkingsOverheadPx {
			part.Regions[m.StaveIndex].MarkingsOverheadPx = m.OverhangPx
		}
	}
}
