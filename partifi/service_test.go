package partifi

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/timotif/divisi-partifi-v2/score"
	"github.com/timotif/divisi-partifi-v2/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	return session.New(1<<20, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestApplyGenerateParamsSpacingOverride(t *testing.T) {
	part := &score.Part{
		Regions: []score.StaffRegion{{}, {}},
		Layout:  score.LayoutParams{SpacingPx: 999},
	}
	applyGenerateParams(part, GeneratePartParams{SpacingMm: 25.4})
	if got, want := part.Layout.SpacingPx, 300.0; got != want {
		t.Errorf("SpacingPx = %v, want %v (25.4mm at 300 DPI)", got, want)
	}
}

func TestApplyGenerateParamsZeroSpacingKeepsDefault(t *testing.T) {
	part := &score.Part{Layout: score.LayoutParams{SpacingPx: 480}}
	applyGenerateParams(part, GeneratePartParams{})
	if got, want := part.Layout.SpacingPx, 480.0; got != want {
		t.Errorf("SpacingPx = %v, want unchanged %v", got, want)
	}
}

func TestApplyGenerateParamsOffsetsTruncatesToRegionCount(t *testing.T) {
	part := &score.Part{Regions: make([]score.StaffRegion, 3)}
	applyGenerateParams(part, GeneratePartParams{Offsets: []int{10, 20, 30, 40}})
	want := []float64{10, 20, 30}
	if len(part.Layout.OffsetsPx) != len(want) {
		t.Fatalf("len(OffsetsPx) = %d, want %d", len(part.Layout.OffsetsPx), len(want))
	}
	for i, v := range want {
		if part.Layout.OffsetsPx[i] != v {
			t.Errorf("OffsetsPx[%d] = %v, want %v", i, part.Layout.OffsetsPx[i], v)
		}
	}
}

func TestApplyGenerateParamsDedupesPageBreaks(t *testing.T) {
	part := &score.Part{}
	applyGenerateParams(part, GeneratePartParams{PageBreaksAfter: []int{2, 0, 2, 5, 0}})
	want := []int{2, 0, 5}
	if len(part.Layout.PageBreaksAfter) != len(want) {
		t.Fatalf("PageBreaksAfter = %v, want %v", part.Layout.PageBreaksAfter, want)
	}
	for i, v := range want {
		if part.Layout.PageBreaksAfter[i] != v {
			t.Errorf("PageBreaksAfter[%d] = %v, want %v", i, part.Layout.PageBreaksAfter[i], v)
		}
	}
}

func TestServiceDetectUnknownScore(t *testing.T) {
	svc := NewService(newTestStore(t), nil)
	_, err := svc.Detect("missing", 0, 100)
	assertInputFault(t, err)
}

func TestServiceGetPartPDFUnknownScore(t *testing.T) {
	svc := NewService(newTestStore(t), nil)
	_, err := svc.GetPartPDF("missing", "Viola")
	assertInputFault(t, err)
}

func TestServiceGetPageRasterUnknownScore(t *testing.T) {
	svc := NewService(newTestStore(t), nil)
	_, err := svc.GetPageRaster("missing", 0)
	assertInputFault(t, err)
}

func TestServiceGetPageRasterOutOfRangeIndex(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil)
	sc := &score.Score{ID: "a", Pages: []*score.Page{{Index: 0, Raster: image.NewGray(image.Rect(0, 0, 4, 4))}}}
	if err := store.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err := svc.GetPageRaster("a", 1)
	assertInputFault(t, err)
}

func TestServiceGetPageRasterReturnsPNGBytes(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil)
	sc := &score.Score{ID: "a", Pages: []*score.Page{{Index: 0, Raster: image.NewGray(image.Rect(0, 0, 4, 4))}}}
	if err := store.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := svc.GetPageRaster("a", 0)
	if err != nil {
		t.Fatalf("GetPageRaster: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decoding result as PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("decoded PNG bounds = %v, want 4x4", b)
	}
}

func TestServiceGetPageRasterDecodesLazilyAndReportsCacheExhausted(t *testing.T) {
	store := session.New(50, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewService(store, nil)
	sc := &score.Score{ID: "a", Pages: []*score.Page{{
		Index: 0, WidthPx: 100, HeightPx: 100,
		Decode: func() (*image.Gray, error) { return image.NewGray(image.Rect(0, 0, 100, 100)), nil },
	}}}
	if err := store.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	_, err := svc.GetPageRaster("a", 0)
	if err == nil {
		t.Fatal("err = nil, want a ResourceLimit *Error: decoding grows the score past its 50-byte budget")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T, want *Error", err)
	}
	if pe.Kind != ResourceLimit {
		t.Errorf("Kind = %v, want ResourceLimit", pe.Kind)
	}
}

func assertInputFault(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("err = nil, want an InputFault *Error")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("err = %T, want *Error", err)
	}
	if pe.Kind != InputFault {
		t.Errorf("Kind = %v, want InputFault", pe.Kind)
	}
}
