// Package score defines the data model shared by the rasterizer, staff
// detector, partition planner, and layout renderer: an immutable collection
// of rasterised pages, the user-authoritative divider annotations on each
// page, and the Parts a PartitionPlanner derives from them.
package score

import "image"

// Score is an immutable collection of rasterised pages with metadata. It is
// created on ingest and discarded when its owning session ends; eviction is
// the session package's concern, not this package's.
type Score struct {
	ID    string
	Pages []*Page
}

// Page is one rasterised page of a Score.
type Page struct {
	Index    int
	WidthPx  int
	HeightPx int

	// Raster is the 300 DPI grayscale raster, decoded lazily on first
	// access and cached here by the rasterizer.
	Raster *image.Gray

	// Decode produces Raster the first time it is needed. Set by the
	// rasterizer on ingest, consumed and cleared by EnsureRaster. A Page
	// built without Decode (e.g. a test fixture that sets Raster
	// directly) behaves as already-decoded.
	Decode func() (*image.Gray, error)

	// Detection caches the last StaffDetector result computed for this
	// page, keyed by the display width it was requested at.
	Detection *DetectionResult
}

// EnsureRaster decodes and caches Raster on first call; subsequent calls
// are no-ops. Callers that touch Page.Raster outside of the rasterizer
// itself (StaffDetector, LayoutRenderer, the page-raster API) must call
// this first, since Raster is nil until then.
func (p *Page) EnsureRaster() error {
	if p.Raster != nil || p.Decode == nil {
		return nil
	}
	img, err := p.Decode()
	if err != nil {
		return err
	}
	p.Raster = img
	p.Decode = nil
	return nil
}

// DetectionResult is the cached output of detecting staves on a Page at a
// particular display-pixel width.
type DetectionResult struct {
	DisplayWidth int
	Dividers     DividerSet
	Confidence   float64
}

// DividerSet is the per-page, user-authoritative divider annotation: an
// ordered ascending sequence of Y-coordinates in display-pixel space, a
// parallel system-boundary flag per divider, and a strip name per
// consecutive divider pair.
//
// Invariants: Y is strictly increasing; len(SystemBoundary) == len(Y);
// len(StripNames) == len(Y) - 1.
type DividerSet struct {
	Y              []float64
	SystemBoundary []bool
	StripNames     []string
}

// Valid reports whether the DividerSet satisfies its length and ordering
// invariants.
func (d DividerSet) Valid() bool {
	if len(d.SystemBoundary) != len(d.Y) {
		return false
	}
	if len(d.StripNames) != max(0, len(d.Y)-1) {
		return false
	}
	for i := 1; i < len(d.Y); i++ {
		if d.Y[i] <= d.Y[i-1] {
			return false
		}
	}
	return true
}

// StripKind classifies a Strip as carrying one instrument's staff or as the
// dead space between two systems.
type StripKind int

const (
	StripLive StripKind = iota
	StripDead
)

// Strip is the region between two consecutive dividers at indices j and
// j+1 in a DividerSet. It is dead when SystemBoundary[j+1] is true (the
// strip's lower divider opens a new system, so the strip above it is the
// inter-system gap rather than a staff).
type Strip struct {
	Kind         StripKind
	Name         string
	IsSystemStart bool
	TopY, BottomY float64
}

// Strips walks a DividerSet's consecutive divider pairs and classifies
// each as live or dead per spec.
func Strips(d DividerSet) []Strip {
	if len(d.Y) < 2 {
		return nil
	}
	out := make([]Strip, 0, len(d.Y)-1)
	for j := 0; j+1 < len(d.Y); j++ {
		s := Strip{TopY: d.Y[j], BottomY: d.Y[j+1]}
		if d.SystemBoundary[j+1] {
			s.Kind = StripDead
		} else {
			s.Kind = StripLive
			s.Name = d.StripNames[j]
			s.IsSystemStart = d.SystemBoundary[j]
		}
		out = append(out, s)
	}
	return out
}

// StaffRegion is an immutable pointer into a page: a page index and a
// top/bottom Y range in backend-pixel (DPI-native) coordinates.
type StaffRegion struct {
	Page               int
	TopY, BottomY      float64
	ScaledHeight       float64
	MarkingsOverheadPx float64
}

// Height returns the backend-pixel height of the region.
func (r StaffRegion) Height() float64 {
	return r.BottomY - r.TopY
}

// Region is a page-anchored bounding box in backend-pixel coordinates, used
// for header and marking rectangles.
type Region struct {
	Page          int
	X, Y, W, H    float64
}

// Empty reports whether the Region has zero area.
func (r Region) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// AttachedMarking is a marking Region attached to a specific StaffRegion
// within a Part, or to the first stave on its page if it fell outside
// every stave's vertical range.
type AttachedMarking struct {
	Region      Region
	StaveIndex  int
	OverhangPx  float64
}

// LayoutParams are the per-Part layout parameters, user-supplied or
// defaulted by the PartitionPlanner.
type LayoutParams struct {
	SpacingPx       float64
	OffsetsPx       []float64
	PageBreaksAfter []int
}

// Part is an ordered list of StaffRegions sharing an instrument name.
type Part struct {
	Name            string
	Regions         []StaffRegion
	ReferenceHeight float64
	Header          *Region
	Markings        []AttachedMarking
	Layout          LayoutParams
}
