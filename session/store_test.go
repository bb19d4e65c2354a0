package session

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/timotif/divisi-partifi-v2/score"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scoreWithRasterBytes(id string, n int) *score.Score {
	return &score.Score{
		ID: id,
		Pages: []*score.Page{
			{Index: 0, Raster: image.NewGray(image.Rect(0, 0, n, 1))},
		},
	}
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s := New(1<<20, newLogger())
	sc := scoreWithRasterBytes("a", 100)
	if err := s.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("Get(a) = not found, want found")
	}
	if got != sc {
		t.Error("Get(a) returned a different Score than was Put")
	}
}

func TestStoreGetMiss(t *testing.T) {
	s := New(1<<20, newLogger())
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) = found, want not found")
	}
}

func TestStoreEvictsLeastRecentlyUsedOverBudget(t *testing.T) {
	s := New(150, newLogger())
	if err := s.Put(scoreWithRasterBytes("a", 100)); err != nil {
		t.Fatalf("Put(a): %v", err)
	}
	if err := s.Put(scoreWithRasterBytes("b", 100)); err != nil {
		t.Fatalf("Put(b): %v", err)
	}

	if _, ok := s.Get("a"); ok {
		t.Error("a should have been evicted once budget was exceeded")
	}
	if _, ok := s.Get("b"); !ok {
		t.Error("b should still be cached")
	}
}

func TestStoreGetRefreshesLRUOrder(t *testing.T) {
	s := New(150, newLogger())
	if err := s.Put(scoreWithRasterBytes("a", 100)); err != nil {
		t.Fatalf("Put(a): %v", err)
	}
	if err := s.Put(scoreWithRasterBytes("b", 50)); err != nil {
		t.Fatalf("Put(b): %v", err)
	}

	// Get a so it becomes most-recently-used before c forces an eviction.
	s.Get("a")
	if err := s.Put(scoreWithRasterBytes("c", 50)); err != nil {
		t.Fatalf("Put(c): %v", err)
	}

	if _, ok := s.Get("a"); !ok {
		t.Error("a should survive, it was refreshed by Get")
	}
	if _, ok := s.Get("b"); ok {
		t.Error("b should have been evicted as the least-recently-used entry")
	}
}

func TestStorePutReplacesExistingEntry(t *testing.T) {
	s := New(1<<20, newLogger())
	if err := s.Put(scoreWithRasterBytes("a", 100)); err != nil {
		t.Fatalf("Put(a, 100): %v", err)
	}
	if err := s.Put(scoreWithRasterBytes("a", 10)); err != nil {
		t.Fatalf("Put(a, 10): %v", err)
	}

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("Get(a) = not found after replace")
	}
	if len(got.Pages[0].Raster.Pix) != 10 {
		t.Errorf("replaced entry has %d raster bytes, want 10", len(got.Pages[0].Raster.Pix))
	}
}

func TestStoreEvict(t *testing.T) {
	s := New(1<<20, newLogger())
	if err := s.Put(scoreWithRasterBytes("a", 100)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	s.Evict("a")
	if _, ok := s.Get("a"); ok {
		t.Error("a should be gone after explicit Evict")
	}
}

func TestStoreUndecodedRasterContributesNoBytes(t *testing.T) {
	s := New(1, newLogger())
	sc := &score.Score{ID: "a", Pages: []*score.Page{{Index: 0}}}
	if err := s.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("a should not be evicted: an undecoded page contributes 0 bytes")
	}
}

func TestStorePutReturnsCacheExhaustedWhenEntryAloneExceedsBudget(t *testing.T) {
	s := New(50, newLogger())
	err := s.Put(scoreWithRasterBytes("a", 100))
	if !errors.Is(err, ErrCacheExhausted) {
		t.Fatalf("Put: err = %v, want ErrCacheExhausted", err)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("a should not be cached: it was evicted immediately on insertion")
	}
}

func TestStoreTouchRecomputesSizeAndEvicts(t *testing.T) {
	s := New(150, newLogger())
	sc := &score.Score{ID: "a", Pages: []*score.Page{{Index: 0}}}
	if err := s.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(scoreWithRasterBytes("b", 100)); err != nil {
		t.Fatalf("Put(b): %v", err)
	}

	// Decode a's raster after the fact, as EnsureRaster would; Touch must
	// notice the growth and re-run eviction against the new total.
	sc.Pages[0].Raster = image.NewGray(image.Rect(0, 0, 100, 1))
	if err := s.Touch("a"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	if _, ok := s.Get("b"); ok {
		t.Error("b should have been evicted to make room for a's growth")
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("a should still be cached after Touch")
	}
}

func TestStoreTouchReturnsCacheExhaustedWhenGrowthAloneExceedsBudget(t *testing.T) {
	s := New(50, newLogger())
	sc := &score.Score{ID: "a", Pages: []*score.Page{{Index: 0}}}
	if err := s.Put(sc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	sc.Pages[0].Raster = image.NewGray(image.Rect(0, 0, 100, 1))
	err := s.Touch("a")
	if !errors.Is(err, ErrCacheExhausted) {
		t.Fatalf("Touch: err = %v, want ErrCacheExhausted", err)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("a should have been evicted: its growth alone exceeds budget")
	}
}

func TestStoreTouchOnMissingIDIsNoOp(t *testing.T) {
	s := New(1<<20, newLogger())
	if err := s.Touch("missing"); err != nil {
		t.Errorf("Touch(missing) = %v, want nil", err)
	}
}
