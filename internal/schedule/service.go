package schedule

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// ErrDataUnavailable wraps failures reading the scheduling inputs.
var ErrDataUnavailable = errors.New("schedule data unavailable")

// SnapshotSource loads the inputs for a scheduling pass.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// RebuildListener is notified after a new index is published.
type RebuildListener func(idx *Index, skipped []int64)

// Service owns the published Schedule Index. Readers get the current index;
// writers call Invalidate after any change to the scheduling inputs and the
// next read rebuilds it. A rebuilt index is swapped in whole, so readers
// never observe a partial build.
type Service struct {
	source    SnapshotSource
	current   atomic.Pointer[Index]
	stale     atomic.Bool
	rebuildMu sync.Mutex
	listeners []RebuildListener
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRebuildListener registers fn to run after each rebuild.
func WithRebuildListener(fn RebuildListener) ServiceOption {
	return func(s *Service) {
		s.listeners = append(s.listeners, fn)
	}
}

// NewService creates a schedule service over source. No index is built
// until the first read or explicit Rebuild.
func NewService(source SnapshotSource, opts ...ServiceOption) *Service {
	s := &Service{source: source}
	for _, opt := range opts {
		opt(s)
	}
	s.stale.Store(true)
	return s
}

// Invalidate marks the current index stale.
func (s *Service) Invalidate() {
	s.stale.Store(true)
}

// Stale reports whether the next read will rebuild.
func (s *Service) Stale() bool {
	return s.stale.Load()
}

// Current returns the last published index without rebuilding. It may be
// nil before the first build.
func (s *Service) Current() *Index {
	return s.current.Load()
}

// Index returns an up-to-date index, rebuilding first if it is stale.
func (s *Service) Index(ctx context.Context) (*Index, error) {
	if !s.stale.Load() {
		if idx := s.current.Load(); idx != nil {
			return idx, nil
		}
	}
	return s.Rebuild(ctx)
}

// Rebuild schedules a fresh snapshot and publishes the resulting index.
func (s *Service) Rebuild(ctx context.Context) (*Index, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	// Another caller may have rebuilt while we waited.
	if !s.stale.Load() {
		if idx := s.current.Load(); idx != nil {
			return idx, nil
		}
	}

	// Clear before reading so an Invalidate during the build is not lost.
	s.stale.Store(false)

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		s.stale.Store(true)
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	assignments, skipped := ScheduleAll(snap)
	idx := BuildIndex(assignments, snap.Lessons)
	s.current.Store(idx)

	if len(skipped) > 0 {
		log.Printf("Schedule rebuilt: %d lessons; classes without a start date skipped: %v", idx.Len(), skipped)
	} else {
		log.Printf("Schedule rebuilt: %d lessons", idx.Len())
	}

	for _, fn := range s.listeners {
		fn(idx, skipped)
	}

	return idx, nil
}
