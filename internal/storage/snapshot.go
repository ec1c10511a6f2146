package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lesson-planner/backend/internal/schedule"
)

// SnapshotLoader reads an immutable scheduling snapshot in one read
// transaction so that facts and lessons are mutually consistent.
type SnapshotLoader struct {
	BaseRepository
}

// NewSnapshotLoader creates a snapshot loader.
func NewSnapshotLoader(db *DB) *SnapshotLoader {
	return &SnapshotLoader{
		BaseRepository: NewBaseRepository(db),
	}
}

// Snapshot implements schedule.SnapshotSource.
func (l *SnapshotLoader) Snapshot(ctx context.Context) (*schedule.Snapshot, error) {
	tx, err := l.DB().BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning snapshot read: %w", err)
	}
	defer tx.Rollback()

	snap := &schedule.Snapshot{}

	if snap.Config, err = getSchoolConfig(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Classes, err = listClasses(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Events, err = listEvents(ctx, tx, "SELECT id, date, event_type FROM calendar_events ORDER BY date, id"); err != nil {
		return nil, err
	}
	if snap.Lessons, err = listLessons(ctx, tx, "ORDER BY class_subject_id, sequence, id"); err != nil {
		return nil, err
	}

	return snap, nil
}
