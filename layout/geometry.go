// Package layout implements the LayoutRenderer: given a Part and its
// layout parameters, it paginates the Part's staves onto A4 pages with
// header/marking overlays and emits a PDF via internal/pdfwrite.
// Grounded on spec.md §4.4 and original_source/backend/analyzer.py's
// Part._layout/Part.process, generalized to honor page_breaks_after and
// per-stave offsets, which the prototype's fixed-spacing pagination does
// not support.
package layout

// Geometry constants assume A4 portrait at the canonical 300 DPI raster
// resolution used throughout the pipeline (spec.md §3/§4.1): 210x297mm ==
// 2480x3508px at 300 DPI. Margins are a fixed 104px (about 0.35in) on every
// edge, and the title area is a fixed reserved strip at the top of a
// Part's first output page when it has a header.
const (
	PageWidthPx  = 2480
	PageHeightPx = 3508

	MarginTopPx    = 104.0
	MarginBottomPx = 104.0
	MarginLeftPx   = 104.0
	MarginRightPx  = 104.0

	TitleAreaPx = 400.0
)

// ContentWidthPx is the usable horizontal span a stave is scaled to fit,
// used both here and by the PartitionPlanner (partition.Plan)
// to compute each StaffRegion's scaled_height.
func ContentWidthPx() float64 {
	return PageWidthPx - MarginLeftPx - MarginRightPx
}

// AvailableHeightPx is the usable vertical span for stave placement,
// spec.md §4.4's `page.available_height_px`.
func AvailableHeightPx() float64 {
	return PageHeightPx - MarginTopPx - MarginBottomPx
}
