// Package session implements the process-wide Score cache: a
// mutex-guarded map from score identifier to *score.Score, evicted on an
// LRU basis bounded by total cached raster bytes (spec.md §5). Grounded
// on original_source/backend/app.py's _evict_expired_sessions, which
// evicts by TTL then by a fixed session count (MAX_SESSIONS); this
// generalizes that to the byte-budget policy spec.md §5 requires, since
// raster pages — not session count — are the dominant memory cost.
package session

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/timotif/divisi-partifi-v2/score"
)

// ErrCacheExhausted reports that a single Score's cached byte size alone
// exceeds the Store's budget, so it was evicted immediately on insertion
// (or on a later Touch) rather than displacing other entries to make
// room for it — there is no room this budget could ever make.
var ErrCacheExhausted = errors.New("session: score exceeds cache budget")

type entry struct {
	id    string
	score *score.Score
	bytes int64
}

// Store is a process-wide cache of in-flight Scores. The critical
// section guarded by mu never does raster work — only map/list
// bookkeeping — matching spec.md §5's "critical sections hold only map
// lookups/inserts, never raster work."
type Store struct {
	mu     sync.Mutex
	budget int64
	used   int64
	order  *list.List // front = most recently used
	elems  map[string]*list.Element
	log    *slog.Logger
}

// New creates a Store bounded by budgetBytes of cached raster data.
func New(budgetBytes int64, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		budget: budgetBytes,
		order:  list.New(),
		elems:  make(map[string]*list.Element),
		log:    log,
	}
}

// Put inserts or replaces a Score and evicts least-recently-used Scores
// until the cache is back under budget. If sc's own byte size alone
// exceeds the budget, eviction reaches the entry just inserted and Put
// returns ErrCacheExhausted; the Score is not left in the cache in that
// case, so a subsequent Get(sc.ID) correctly misses.
func (s *Store) Put(sc *score.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.elems[sc.ID]; ok {
		s.used -= el.Value.(*entry).bytes
		s.order.Remove(el)
		delete(s.elems, sc.ID)
	}

	e := &entry{id: sc.ID, score: sc, bytes: scoreBytes(sc)}
	s.elems[sc.ID] = s.order.PushFront(e)
	s.used += e.bytes

	s.evictLocked()

	if _, ok := s.elems[sc.ID]; !ok {
		return fmt.Errorf("%w: score %q is %d bytes, budget is %d", ErrCacheExhausted, sc.ID, e.bytes, s.budget)
	}
	return nil
}

// Touch marks id most recently used, recomputes its cached byte size —
// e.g. after EnsureRaster decoded another page of an already-cached
// Score — and re-runs eviction against the new total. It reports ErrCacheExhausted on the same terms as Put: if
// the growth alone now exceeds budget, id is evicted and the error
// returned. A miss (id not cached) is a silent no-op, since the caller may
// be touching a Score that was independently evicted since it last looked.
func (s *Store) Touch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elems[id]
	if !ok {
		return nil
	}
	s.order.MoveToFront(el)
	e := el.Value.(*entry)
	s.used -= e.bytes
	e.bytes = scoreBytes(e.score)
	s.used += e.bytes

	s.evictLocked()

	if _, ok := s.elems[id]; !ok {
		return fmt.Errorf("%w: score %q grew to %d bytes, budget is %d", ErrCacheExhausted, id, e.bytes, s.budget)
	}
	return nil
}

// Get retrieves a Score by ID, refreshing its LRU position on a hit.
func (s *Store) Get(id string) (*score.Score, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.elems[id]
	if !ok {
		return nil, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*entry).score, true
}

// Evict removes a Score by ID regardless of LRU position, e.g. when a
// caller explicitly ends a session.
func (s *Store) Evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictID(id)
}

func (s *Store) evictLocked() {
	for s.used > s.budget && s.order.Len() > 0 {
		oldest := s.order.Back()
		e := oldest.Value.(*entry)
		s.log.Info("evicting score at capacity", "score_id", e.id, "used_bytes", s.used, "budget_bytes", s.budget)
		s.evictID(e.id)
	}
}

func (s *Store) evictID(id string) {
	el, ok := s.elems[id]
	if !ok {
		return
	}
	s.used -= el.Value.(*entry).bytes
	s.order.Remove(el)
	delete(s.elems, id)
}

// scoreBytes sums the byte size of every page's decoded raster; a page
// whose raster hasn't been decoded yet (lazy decode, spec.md §4.1)
// contributes nothing until it is.
func scoreBytes(sc *score.Score) int64 {
	var total int64
	for _, p := range sc.Pages {
		if p.Raster != nil {
			total += int64(len(p.Raster.Pix))
		}
	}
	return total
}
