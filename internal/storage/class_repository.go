package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// ClassRepository provides data access for class subjects.
type ClassRepository struct {
	BaseRepository
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *DB) *ClassRepository {
	return &ClassRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a class and an event type named after its label. When the
// class has a start date, its start-marker calendar event is written in the
// same transaction.
func (r *ClassRepository) Create(ctx context.Context, cs *models.ClassSubject) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO class_subjects (name, section, start_date) VALUES (?, ?, ?)
		`, cs.Name, cs.Section, models.FormatDatePtr(cs.StartDate))
		if err != nil {
			return fmt.Errorf("inserting class: %w", err)
		}

		if cs.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("reading class id: %w", err)
		}

		if err := ensureEventType(ctx, tx, cs.Label()); err != nil {
			return err
		}
		if cs.StartDate != nil {
			if err := upsertTypedEvent(ctx, tx, cs.Label(), *cs.StartDate); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureEventType(ctx context.Context, q Queryable, label string) error {
	if _, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO event_types (name, color) VALUES (?, ?)
	`, label, models.LabelColor(label)); err != nil {
		return fmt.Errorf("inserting class event type: %w", err)
	}
	return nil
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.ClassSubject, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT id, name, section, start_date FROM class_subjects WHERE id = ?
	`, id)

	cs, err := scanClass(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying class: %w", err)
	}
	return cs, nil
}

// List retrieves all classes in ID order, which is the scheduler's class
// iteration order.
func (r *ClassRepository) List(ctx context.Context) ([]models.ClassSubject, error) {
	return listClasses(ctx, r.DB())
}

func listClasses(ctx context.Context, q Queryable) ([]models.ClassSubject, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, section, start_date FROM class_subjects ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying classes: %w", err)
	}
	defer rows.Close()

	var classes []models.ClassSubject
	for rows.Next() {
		cs, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning class: %w", err)
		}
		classes = append(classes, *cs)
	}

	return classes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(s rowScanner) (*models.ClassSubject, error) {
	cs := &models.ClassSubject{}
	var start sql.NullString
	if err := s.Scan(&cs.ID, &cs.Name, &cs.Section, &start); err != nil {
		return nil, err
	}
	var err error
	if cs.StartDate, err = scanDate(start); err != nil {
		return nil, err
	}
	return cs, nil
}

// Update renames a class and keeps its start marker in step with its start
// date. A label change relabels the class's events and event type. Setting a
// date moves the marker event; clearing a previously set date removes it, so
// the class falls back to the school start date.
func (r *ClassRepository) Update(ctx context.Context, cs *models.ClassSubject) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		old, err := scanClass(tx.QueryRowContext(ctx, `
			SELECT id, name, section, start_date FROM class_subjects WHERE id = ?
		`, cs.ID))
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying class: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE class_subjects SET name = ?, section = ?, start_date = ? WHERE id = ?
		`, cs.Name, cs.Section, models.FormatDatePtr(cs.StartDate), cs.ID); err != nil {
			return fmt.Errorf("updating class: %w", err)
		}

		label := cs.Label()
		if old.Label() != label {
			if _, err := tx.ExecContext(ctx, `
				UPDATE calendar_events SET event_type = ? WHERE event_type = ?
			`, label, old.Label()); err != nil {
				return fmt.Errorf("relabeling class events: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE OR IGNORE event_types SET name = ? WHERE name = ?
			`, label, old.Label()); err != nil {
				return fmt.Errorf("renaming class event type: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM event_types WHERE name = ?", old.Label()); err != nil {
				return fmt.Errorf("removing old class event type: %w", err)
			}
		}
		if err := ensureEventType(ctx, tx, label); err != nil {
			return err
		}

		switch {
		case cs.StartDate != nil:
			return upsertTypedEvent(ctx, tx, label, *cs.StartDate)
		case old.StartDate != nil:
			if _, err := tx.ExecContext(ctx, "DELETE FROM calendar_events WHERE event_type = ?", label); err != nil {
				return fmt.Errorf("removing start event: %w", err)
			}
		}
		return nil
	})
}

// SetStartDate sets the class's start date and upserts its start-marker event.
func (r *ClassRepository) SetStartDate(ctx context.Context, id int64, date time.Time) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		var cs models.ClassSubject
		if err := tx.QueryRowContext(ctx, `
			SELECT id, name, section FROM class_subjects WHERE id = ?
		`, id).Scan(&cs.ID, &cs.Name, &cs.Section); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("querying class: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE class_subjects SET start_date = ? WHERE id = ?
		`, models.FormatDate(date), id); err != nil {
			return fmt.Errorf("updating class start date: %w", err)
		}

		if err := ensureEventType(ctx, tx, cs.Label()); err != nil {
			return err
		}
		return upsertTypedEvent(ctx, tx, cs.Label(), date)
	})
}

// Delete removes a class, its lessons, its start-marker events and its
// event type.
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		var cs models.ClassSubject
		if err := tx.QueryRowContext(ctx, `
			SELECT id, name, section FROM class_subjects WHERE id = ?
		`, id).Scan(&cs.ID, &cs.Name, &cs.Section); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("querying class: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM calendar_events WHERE event_type = ?", cs.Label()); err != nil {
			return fmt.Errorf("deleting class events: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM event_types WHERE name = ?", cs.Label()); err != nil {
			return fmt.Errorf("deleting class event type: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM class_subjects WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting class: %w", err)
		}
		return nil
	})
}
