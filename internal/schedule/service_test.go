package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/storage/models"
)

type fakeSource struct {
	mu    sync.Mutex
	snap  *Snapshot
	err   error
	calls int32
}

func (f *fakeSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func (f *fakeSource) set(snap *Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func mathSnapshot(n int) *Snapshot {
	return &Snapshot{
		Config:  &models.SchoolConfig{StartDate: dp("2024-09-02")},
		Classes: []models.ClassSubject{math},
		Lessons: lessons(1, n),
	}
}

func TestService_BuildsLazilyAndCaches(t *testing.T) {
	src := &fakeSource{snap: mathSnapshot(2)}
	svc := NewService(src)
	assert.Nil(t, svc.Current())

	idx, err := svc.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	again, err := svc.Index(context.Background())
	require.NoError(t, err)
	assert.Same(t, idx, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestService_InvalidateRebuilds(t *testing.T) {
	src := &fakeSource{snap: mathSnapshot(2)}
	var rebuilt int
	svc := NewService(src, WithRebuildListener(func(idx *Index, skipped []int64) { rebuilt++ }))

	_, err := svc.Index(context.Background())
	require.NoError(t, err)

	src.set(mathSnapshot(5))
	svc.Invalidate()
	assert.True(t, svc.Stale())

	idx, err := svc.Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, 2, rebuilt)
	assert.False(t, svc.Stale())
}

func TestService_SourceErrorKeepsPreviousIndex(t *testing.T) {
	src := &fakeSource{snap: mathSnapshot(3)}
	svc := NewService(src)

	prev, err := svc.Index(context.Background())
	require.NoError(t, err)

	src.mu.Lock()
	src.err = errors.New("disk I/O error")
	src.mu.Unlock()
	svc.Invalidate()

	_, err = svc.Index(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.Same(t, prev, svc.Current())
	assert.True(t, svc.Stale())
}

func TestService_ConcurrentReaders(t *testing.T) {
	src := &fakeSource{snap: mathSnapshot(4)}
	svc := NewService(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := svc.Index(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 4, idx.Len())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}
