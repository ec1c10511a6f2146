package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// RosterRepository provides data access for rosters, lesson performance and
// materials. These records hang off lessons but never feed the scheduler.
type RosterRepository struct {
	BaseRepository
}

// NewRosterRepository creates a new roster repository.
func NewRosterRepository(db *DB) *RosterRepository {
	return &RosterRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ListRoster returns the students for a class. With shared is true the
// global roster (entries with no class) is returned instead.
func (r *RosterRepository) ListRoster(ctx context.Context, classID int64, shared bool) ([]models.RosterEntry, error) {
	query := "SELECT id, class_subject_id, name FROM roster_entries WHERE class_subject_id = ? ORDER BY name"
	args := []any{classID}
	if shared {
		query = "SELECT id, class_subject_id, name FROM roster_entries WHERE class_subject_id IS NULL ORDER BY name"
		args = nil
	}

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.ID, &e.ClassSubjectID, &e.Name); err != nil {
			return nil, fmt.Errorf("scanning roster entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddStudent inserts a roster entry.
func (r *RosterRepository) AddStudent(ctx context.Context, e *models.RosterEntry) error {
	result, err := r.DB().ExecContext(ctx, `
		INSERT INTO roster_entries (class_subject_id, name) VALUES (?, ?)
	`, e.ClassSubjectID, e.Name)
	if err != nil {
		return fmt.Errorf("inserting roster entry: %w", err)
	}
	e.ID, err = result.LastInsertId()
	return err
}

// RemoveStudent deletes a roster entry and its performance records.
func (r *RosterRepository) RemoveStudent(ctx context.Context, id int64) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM roster_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting roster entry: %w", err)
	}
	return requireAffected(result)
}

// UpsertPerformance records a student's rating for a lesson.
func (r *RosterRepository) UpsertPerformance(ctx context.Context, p *models.LessonPerformance) error {
	err := r.DB().QueryRowContext(ctx, `
		INSERT INTO lesson_performance (lesson_id, roster_entry_id, status, notes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(lesson_id, roster_entry_id) DO UPDATE SET
			status = excluded.status, notes = excluded.notes
		RETURNING id
	`, p.LessonID, p.RosterEntryID, p.Status, p.Notes).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upserting performance: %w", err)
	}
	return nil
}

// ListPerformance returns all ratings recorded for a lesson.
func (r *RosterRepository) ListPerformance(ctx context.Context, lessonID int64) ([]models.LessonPerformance, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, lesson_id, roster_entry_id, status, notes
		FROM lesson_performance WHERE lesson_id = ? ORDER BY roster_entry_id
	`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("querying performance: %w", err)
	}
	defer rows.Close()

	var perf []models.LessonPerformance
	for rows.Next() {
		var p models.LessonPerformance
		if err := rows.Scan(&p.ID, &p.LessonID, &p.RosterEntryID, &p.Status, &p.Notes); err != nil {
			return nil, fmt.Errorf("scanning performance: %w", err)
		}
		perf = append(perf, p)
	}
	return perf, rows.Err()
}

// TallyByClass counts Green/Yellow/Red ratings across each class's lessons.
func (r *RosterRepository) TallyByClass(ctx context.Context) (map[int64]models.PerformanceTally, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT l.class_subject_id, p.status, COUNT(*)
		FROM lesson_performance p JOIN lessons l ON l.id = p.lesson_id
		GROUP BY l.class_subject_id, p.status
	`)
	if err != nil {
		return nil, fmt.Errorf("tallying performance: %w", err)
	}
	defer rows.Close()

	tallies := make(map[int64]models.PerformanceTally)
	for rows.Next() {
		var classID int64
		var status models.PerformanceStatus
		var n int
		if err := rows.Scan(&classID, &status, &n); err != nil {
			return nil, fmt.Errorf("scanning tally: %w", err)
		}
		t := tallies[classID]
		switch status {
		case models.PerformanceGreen:
			t.Green += n
		case models.PerformanceYellow:
			t.Yellow += n
		case models.PerformanceRed:
			t.Red += n
		}
		tallies[classID] = t
	}
	return tallies, rows.Err()
}

// AddMaterial inserts a material reminder for a lesson.
func (r *RosterRepository) AddMaterial(ctx context.Context, m *models.MaterialNeeded) error {
	result, err := r.DB().ExecContext(ctx, `
		INSERT INTO materials_needed (lesson_id, description, reminder_date, acquired) VALUES (?, ?, ?, ?)
	`, m.LessonID, m.Description, models.FormatDate(m.ReminderDate), m.Acquired)
	if err != nil {
		return fmt.Errorf("inserting material: %w", err)
	}
	m.ID, err = result.LastInsertId()
	return err
}

// ListMaterials returns a lesson's materials by reminder date.
func (r *RosterRepository) ListMaterials(ctx context.Context, lessonID int64) ([]models.MaterialNeeded, error) {
	return r.queryMaterials(ctx, `
		SELECT id, lesson_id, description, reminder_date, acquired
		FROM materials_needed WHERE lesson_id = ? ORDER BY reminder_date, id
	`, lessonID)
}

// ListDue returns unacquired materials whose reminder date is on or before date.
func (r *RosterRepository) ListDue(ctx context.Context, date time.Time) ([]models.MaterialNeeded, error) {
	return r.queryMaterials(ctx, `
		SELECT id, lesson_id, description, reminder_date, acquired
		FROM materials_needed WHERE acquired = 0 AND reminder_date <= ? ORDER BY reminder_date, id
	`, models.FormatDate(date))
}

func (r *RosterRepository) queryMaterials(ctx context.Context, query string, args ...any) ([]models.MaterialNeeded, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying materials: %w", err)
	}
	defer rows.Close()

	var materials []models.MaterialNeeded
	for rows.Next() {
		var m models.MaterialNeeded
		var reminder string
		if err := rows.Scan(&m.ID, &m.LessonID, &m.Description, &reminder, &m.Acquired); err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}
		if m.ReminderDate, err = models.ParseDate(reminder); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// SetAcquired marks a material as acquired or not.
func (r *RosterRepository) SetAcquired(ctx context.Context, id int64, acquired bool) error {
	result, err := r.DB().ExecContext(ctx, "UPDATE materials_needed SET acquired = ? WHERE id = ?", acquired, id)
	if err != nil {
		return fmt.Errorf("updating material: %w", err)
	}
	return requireAffected(result)
}
