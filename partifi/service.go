// Package partifi realizes the External Interfaces of spec.md §6 as a
// plain Go method-call façade (Rasterize/Detect/Partition/Generate/
// GetPartPDF), so that a future HTTP layer is a thin encoding/json +
// routing shim over this package rather than a rewrite of it. Grounded
// on the teacher's own layering discipline of keeping a narrow,
// explicit-error API surface over its internal packages.
package partifi

import (
	"bytes"
	"errors"
	"image/png"
	"log/slog"
	"sync"

	"github.com/timotif/divisi-partifi-v2/layout"
	"github.com/timotif/divisi-partifi-v2/partition"
	"github.com/timotif/divisi-partifi-v2/raster"
	"github.com/timotif/divisi-partifi-v2/score"
	"github.com/timotif/divisi-partifi-v2/session"
	"github.com/timotif/divisi-partifi-v2/staffdetect"
)

// Service is the process-wide façade a transport layer calls into. It
// owns no Scores directly — those live in the injected session.Store —
// but does own the derived Parts and generated PDFs a score_id produces,
// matching spec.md §6's call sequence (partition then generate then
// get_part_pdf).
type Service struct {
	store      *session.Store
	rasterOpts raster.Options
	detectOpts staffdetect.Options
	log        *slog.Logger

	mu    sync.Mutex
	parts map[string]map[string]*score.Part // score_id -> part name -> Part
	pdfs  map[string]map[string][]byte      // score_id -> part name -> generated PDF
}

// NewService wraps store, rasterizing with raster.Options{} (no page-size
// limit) and detecting with staffdetect.DefaultOptions(). Service has no
// setters for either.
func NewService(store *session.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:      store,
		rasterOpts: raster.Options{},
		detectOpts: staffdetect.DefaultOptions(),
		log:        log,
		parts:      make(map[string]map[string]*score.Part),
		pdfs:       make(map[string]map[string][]byte),
	}
}

// Rasterize ingests a PDF and caches its Score in the session store.
func (s *Service) Rasterize(scoreID string, pdfBytes []byte) (ScoreSummary, error) {
	sc, err := raster.Rasterize(scoreID, pdfBytes, s.rasterOpts)
	if err != nil {
		if errors.Is(err, raster.ErrPageTooLarge) {
			return ScoreSummary{}, resourceLimit("page raster exceeds configured budget: %v", err)
		}
		return ScoreSummary{}, inputFault("invalid PDF input: %v", err)
	}
	if err := s.store.Put(sc); err != nil {
		return ScoreSummary{}, cacheExhausted("%v", err)
	}

	pages := make([]PageSummary, len(sc.Pages))
	for i, p := range sc.Pages {
		pages[i] = PageSummary{WidthPx: p.WidthPx, HeightPx: p.HeightPx}
	}
	s.log.Info("rasterized score", "score_id", scoreID, "page_count", len(pages))
	return ScoreSummary{ScoreID: sc.ID, PageCount: len(pages), Pages: pages}, nil
}

// Detect runs the StaffDetector on one page, reusing the page's cached
// result when the display width matches (spec.md §4.1's caching note,
// spec.md §8's determinism invariant).
func (s *Service) Detect(scoreID string, pageIndex, displayWidth int) (DetectResponse, error) {
	sc, ok := s.store.Get(scoreID)
	if !ok {
		return DetectResponse{}, inputFault("unknown score id %q", scoreID)
	}
	if pageIndex < 0 || pageIndex >= len(sc.Pages) {
		return DetectResponse{}, inputFault("page index %d out of range for score %q", pageIndex, scoreID)
	}
	page := sc.Pages[pageIndex]
	if err := s.ensurePageRaster(scoreID, page); err != nil {
		return DetectResponse{}, err
	}

	if page.Detection == nil || page.Detection.DisplayWidth != displayWidth {
		result := staffdetect.Detect(page, displayWidth, s.detectOpts)
		page.Detection = &score.DetectionResult{
			DisplayWidth: displayWidth,
			Dividers:     result.Dividers,
			Confidence:   result.Confidence,
		}
	}
	d := page.Detection
	return DetectResponse{
		Dividers:    d.Dividers.Y,
		SystemFlags: d.Dividers.SystemBoundary,
		StripNames:  d.Dividers.StripNames,
		Confidence:  d.Confidence,
	}, nil
}

// Partition runs the PartitionPlanner and remembers the resulting Parts
// under req.ScoreID for a subsequent Generate call.
func (s *Service) Partition(req PartitionRequest) (PartitionResponse, error) {
	sc, ok := s.store.Get(req.ScoreID)
	if !ok {
		return PartitionResponse{}, inputFault("unknown score id %q", req.ScoreID)
	}

	pages := make(map[int]score.DividerSet, len(req.Pages))
	for idx, payload := range req.Pages {
		pages[idx] = score.DividerSet{
			Y:              payload.Dividers,
			SystemBoundary: payload.SystemFlags,
			StripNames:     payload.StripNames,
		}
	}

	parts := partition.Plan(partition.Input{
		Score:        sc,
		DisplayWidth: req.DisplayWidth,
		Pages:        pages,
		Header:       req.Header,
		Markings:     req.Markings,
	})

	s.mu.Lock()
	byName := make(map[string]*score.Part, len(parts))
	for _, p := range parts {
		byName[p.Name] = p
	}
	s.parts[req.ScoreID] = byName
	s.mu.Unlock()

	summaries := make([]PartSummary, len(parts))
	for i, p := range parts {
		staves := make([]StaveSummary, len(p.Regions))
		for j, r := range p.Regions {
			staves[j] = StaveSummary{SourcePage: r.Page, ScaledHeight: r.ScaledHeight, MarkingsOverheadPx: r.MarkingsOverheadPx}
		}
		var header *HeaderSummary
		if p.Header != nil {
			header = &HeaderSummary{ScaledHeight: p.Header.H}
		}
		summaries[i] = PartSummary{
			Name:        p.Name,
			StavesCount: len(p.Regions),
			Layout: PartLayoutSummary{
				DefaultSpacingPx:  p.Layout.SpacingPx,
				TitleAreaPx:       layout.TitleAreaPx,
				AvailableHeightPx: layout.AvailableHeightPx(),
			},
			Staves: staves,
			Header: header,
		}
	}
	return PartitionResponse{Parts: summaries}, nil
}

// Generate applies per-part layout overrides and renders each Part to a
// PDF, cached for a subsequent GetPartPDF call.
func (s *Service) Generate(scoreID string, params map[string]GeneratePartParams) (GenerateResponse, error) {
	sc, ok := s.store.Get(scoreID)
	if !ok {
		return GenerateResponse{}, inputFault("unknown score id %q", scoreID)
	}

	s.mu.Lock()
	byName := s.parts[scoreID]
	s.mu.Unlock()
	if byName == nil {
		return GenerateResponse{}, inputFault("no partition result for score %q; call Partition first", scoreID)
	}

	results := make(map[string][]byte, len(params))
	summaries := make([]GeneratedPartSummary, 0, len(params))
	for name, p := range params {
		part, ok := byName[name]
		if !ok {
			continue
		}
		applyGenerateParams(part, p)

		pdfBytes, pageCount, err := layout.Render(part, sc)
		if err != nil {
			if errors.Is(err, layout.ErrEmptyPart) {
				return GenerateResponse{}, inputFault("part %q has no staves: %v", name, err)
			}
			if errors.Is(err, layout.ErrLayoutOverflow) {
				return GenerateResponse{}, inputFault("part %q has a stave too tall for one page: %v", name, err)
			}
			return GenerateResponse{}, internal(err, "rendering part %q", name)
		}
		if err := s.store.Touch(scoreID); err != nil {
			return GenerateResponse{}, cacheExhausted("%v", err)
		}
		results[name] = pdfBytes
		summaries = append(summaries, GeneratedPartSummary{Name: name, PageCount: pageCount})
	}

	s.mu.Lock()
	s.pdfs[scoreID] = results
	s.mu.Unlock()

	return GenerateResponse{Parts: summaries}, nil
}

// GetPageRaster returns one page's 300 DPI grayscale raster, PNG-encoded,
// matching spec.md §6's get_page_raster contract alongside Rasterize.
func (s *Service) GetPageRaster(scoreID string, pageIndex int) ([]byte, error) {
	sc, ok := s.store.Get(scoreID)
	if !ok {
		return nil, inputFault("unknown score id %q", scoreID)
	}
	if pageIndex < 0 || pageIndex >= len(sc.Pages) {
		return nil, inputFault("page index %d out of range for score %q", pageIndex, scoreID)
	}
	page := sc.Pages[pageIndex]
	if err := s.ensurePageRaster(scoreID, page); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, page.Raster); err != nil {
		return nil, internal(err, "encoding page %d of score %q as PNG", pageIndex, scoreID)
	}
	return buf.Bytes(), nil
}

// ensurePageRaster decodes page's raster on first access and re-runs the
// store's byte accounting against the newly grown Score, surfacing
// CacheExhausted if the decode alone now exceeds the cache budget.
func (s *Service) ensurePageRaster(scoreID string, page *score.Page) error {
	if err := page.EnsureRaster(); err != nil {
		return internal(err, "decoding raster for score %q", scoreID)
	}
	if err := s.store.Touch(scoreID); err != nil {
		return cacheExhausted("%v", err)
	}
	return nil
}

// GetPartPDF returns the PDF bytes generated for one part.
func (s *Service) GetPartPDF(scoreID, partName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := s.pdfs[scoreID]
	if byName == nil {
		return nil, inputFault("no generated output for score %q", scoreID)
	}
	pdfBytes, ok := byName[partName]
	if !ok {
		return nil, inputFault("unknown part %q for score %q", partName, scoreID)
	}
	return pdfBytes, nil
}

// applyGenerateParams overrides a Part's layout in place from the
// user-supplied GeneratePartParams, deduplicating page_breaks_after since it
// arrives on the wire as an array but behaves as a set (spec.md §9).
func applyGenerateParams(part *score.Part, p GeneratePartParams) {
	if p.SpacingMm > 0 {
		part.Layout.SpacingPx = p.SpacingMm / 25.4 * 300
	}
	if len(p.Offsets) > 0 {
		offsets := make([]float64, len(part.Regions))
		for i, o := range p.Offsets {
			if i >= len(offsets) {
				break
			}
			offsets[i] = float64(o)
		}
		part.Layout.OffsetsPx = offsets
	}

	seen := make(map[int]bool, len(p.PageBreaksAfter))
	var deduped []int
	for _, idx := range p.PageBreaksAfter {
		if !seen[idx] {
			seen[idx] = true
			deduped = append(deduped, idx)
		}
	}
	part.Layout.PageBreaksAfter = deduped
}
