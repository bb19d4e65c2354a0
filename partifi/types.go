package partifi

import "github.com/timotif/divisi-partifi-v2/partition"

// Rectangle is the wire-level bounding box shape of spec.md §6. It is
// the same type the PartitionPlanner consumes; partifi re-exports it
// rather than duplicating the field set, so a future HTTP layer only
// needs one JSON shape for rectangles end to end.
type Rectangle = partition.Rectangle

// ScoreSummary is Rasterizer's rasterize() response.
type ScoreSummary struct {
	ScoreID   string
	PageCount int
	Pages     []PageSummary
}

// PageSummary is one page's dimensions in ScoreSummary.
type PageSummary struct {
	WidthPx  int
	HeightPx int
}

// DetectResponse is the StaffDetector's detect() response.
type DetectResponse struct {
	Dividers    []float64
	SystemFlags []bool
	StripNames  []string
	Confidence  float64
}

// PagePayload is the user-confirmed divider data for one page, as the
// browser collaborator re-sends it on every partition() call.
type PagePayload struct {
	Dividers    []float64
	SystemFlags []bool
	StripNames  []string
}

// PartitionRequest is the partition() request of spec.md §6.
type PartitionRequest struct {
	ScoreID      string
	DisplayWidth int
	Header       *Rectangle
	Markings     []Rectangle
	Pages        map[int]PagePayload
}

// StaveSummary is one Part's stave entry in PartitionResponse.
type StaveSummary struct {
	SourcePage         int
	ScaledHeight       float64
	MarkingsOverheadPx float64
}

// HeaderSummary reports a Part's header crop dimensions.
type HeaderSummary struct {
	ScaledHeight float64
}

// PartLayoutSummary is the default layout geometry reported per Part.
type PartLayoutSummary struct {
	DefaultSpacingPx  float64
	TitleAreaPx       float64
	AvailableHeightPx float64
}

// PartSummary is one entry in PartitionResponse.Parts.
type PartSummary struct {
	Name        string
	StavesCount int
	Layout      PartLayoutSummary
	Staves      []StaveSummary
	Header      *HeaderSummary
}

// PartitionResponse is the partition() response of spec.md §6.
type PartitionResponse struct {
	Parts []PartSummary
}

// GeneratePartParams is the user-supplied override for one Part's
// layout, on the generate() call.
type GeneratePartParams struct {
	SpacingMm       float64
	Offsets         []int
	PageBreaksAfter []int
}

// GeneratedPartSummary is one entry in GenerateResponse.Parts.
type GeneratedPartSummary struct {
	Name      string
	PageCount int
}

// GenerateResponse is the generate() response of spec.md §6.
type GenerateResponse struct {
	Parts []GeneratedPartSummary
}
