package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// CalendarRepository provides data access for calendar events and event types.
type CalendarRepository struct {
	BaseRepository
}

// NewCalendarRepository creates a new calendar repository.
func NewCalendarRepository(db *DB) *CalendarRepository {
	return &CalendarRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// AddEvent inserts a calendar event. Duplicate (date, type) pairs are allowed,
// matching how events are entered by hand.
func (r *CalendarRepository) AddEvent(ctx context.Context, ev *models.CalendarEvent) error {
	result, err := r.DB().ExecContext(ctx, `
		INSERT INTO calendar_events (date, event_type) VALUES (?, ?)
	`, models.FormatDate(ev.Date), ev.EventType)
	if err != nil {
		return fmt.Errorf("inserting calendar event: %w", err)
	}

	ev.ID, err = result.LastInsertId()
	return err
}

// UpsertClassStart keeps exactly one event of the given class label and
// moves it to date. The owning class's start date is updated to match.
func (r *CalendarRepository) UpsertClassStart(ctx context.Context, label string, date time.Time) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		if err := upsertTypedEvent(ctx, tx, label, date); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE class_subjects SET start_date = ?
			WHERE (CASE WHEN section IS NULL OR section = '' THEN name ELSE name || ' (' || section || ')' END) = ?
		`, models.FormatDate(date), label)
		if err != nil {
			return fmt.Errorf("updating class start date: %w", err)
		}
		return nil
	})
}

// upsertTypedEvent moves the earliest event of eventType to date, inserting
// one if none exists, and removes any further duplicates.
func upsertTypedEvent(ctx context.Context, q Queryable, eventType string, date time.Time) error {
	var id int64
	err := q.QueryRowContext(ctx, `
		SELECT id FROM calendar_events WHERE event_type = ? ORDER BY date, id LIMIT 1
	`, eventType).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		if _, err := q.ExecContext(ctx, `
			INSERT INTO calendar_events (date, event_type) VALUES (?, ?)
		`, models.FormatDate(date), eventType); err != nil {
			return fmt.Errorf("inserting start event: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("querying start event: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE calendar_events SET date = ? WHERE id = ?
	`, models.FormatDate(date), id); err != nil {
		return fmt.Errorf("updating start event: %w", err)
	}
	if _, err := q.ExecContext(ctx, `
		DELETE FROM calendar_events WHERE event_type = ? AND id != ?
	`, eventType, id); err != nil {
		return fmt.Errorf("removing duplicate start events: %w", err)
	}
	return nil
}

// ListEvents retrieves all calendar events ordered by date.
func (r *CalendarRepository) ListEvents(ctx context.Context) ([]models.CalendarEvent, error) {
	return listEvents(ctx, r.DB(), `
		SELECT id, date, event_type FROM calendar_events ORDER BY date, id
	`)
}

// ListEventsBetween retrieves events with from <= date <= to.
func (r *CalendarRepository) ListEventsBetween(ctx context.Context, from, to time.Time) ([]models.CalendarEvent, error) {
	return listEvents(ctx, r.DB(), `
		SELECT id, date, event_type FROM calendar_events
		WHERE date >= ? AND date <= ?
		ORDER BY date, id
	`, models.FormatDate(from), models.FormatDate(to))
}

func listEvents(ctx context.Context, q Queryable, query string, args ...any) ([]models.CalendarEvent, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calendar events: %w", err)
	}
	defer rows.Close()

	var events []models.CalendarEvent
	for rows.Next() {
		var ev models.CalendarEvent
		var date string
		if err := rows.Scan(&ev.ID, &date, &ev.EventType); err != nil {
			return nil, fmt.Errorf("scanning calendar event: %w", err)
		}
		if ev.Date, err = models.ParseDate(date); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// ImportDays adds an event of eventType on each day that doesn't already
// carry one. All days are written in one transaction: on error nothing is
// added.
func (r *CalendarRepository) ImportDays(ctx context.Context, eventType string, days []time.Time) (added, existing int, err error) {
	err = r.Transaction(ctx, func(tx *sql.Tx) error {
		added, existing = 0, 0
		for _, day := range days {
			date := models.FormatDate(day)
			var n int
			if err := tx.QueryRowContext(ctx, `
				SELECT COUNT(*) FROM calendar_events WHERE date = ? AND event_type = ?
			`, date, eventType).Scan(&n); err != nil {
				return fmt.Errorf("checking calendar event: %w", err)
			}
			if n > 0 {
				existing++
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO calendar_events (date, event_type) VALUES (?, ?)
			`, date, eventType); err != nil {
				return fmt.Errorf("inserting calendar event: %w", err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return added, existing, nil
}

// RemoveEvent deletes one event of eventType on date.
func (r *CalendarRepository) RemoveEvent(ctx context.Context, date time.Time, eventType string) error {
	result, err := r.DB().ExecContext(ctx, `
		DELETE FROM calendar_events WHERE id = (
			SELECT id FROM calendar_events WHERE date = ? AND event_type = ? ORDER BY id LIMIT 1
		)
	`, models.FormatDate(date), eventType)
	if err != nil {
		return fmt.Errorf("deleting calendar event: %w", err)
	}
	return requireAffected(result)
}

// RemoveAllOn deletes every event on date and returns how many were removed.
func (r *CalendarRepository) RemoveAllOn(ctx context.Context, date time.Time) (int64, error) {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendar_events WHERE date = ?", models.FormatDate(date))
	if err != nil {
		return 0, fmt.Errorf("deleting calendar events: %w", err)
	}
	return result.RowsAffected()
}

// CountByTypeBetween counts events per event type within [from, to].
func (r *CalendarRepository) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM calendar_events
		WHERE date >= ? AND date <= ?
		GROUP BY event_type
	`, models.FormatDate(from), models.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("counting calendar events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning event count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// ListEventTypes retrieves all event types ordered by name.
func (r *CalendarRepository) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	rows, err := r.DB().QueryContext(ctx, "SELECT id, name, color FROM event_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying event types: %w", err)
	}
	defer rows.Close()

	var types []models.EventType
	for rows.Next() {
		var et models.EventType
		if err := rows.Scan(&et.ID, &et.Name, &et.Color); err != nil {
			return nil, fmt.Errorf("scanning event type: %w", err)
		}
		types = append(types, et)
	}
	return types, rows.Err()
}

// CreateEventType inserts an event type. Names are unique.
func (r *CalendarRepository) CreateEventType(ctx context.Context, et *models.EventType) error {
	result, err := r.DB().ExecContext(ctx, "INSERT INTO event_types (name, color) VALUES (?, ?)", et.Name, et.Color)
	if err != nil {
		return fmt.Errorf("inserting event type: %w", err)
	}
	et.ID, err = result.LastInsertId()
	return err
}

// UpdateEventType changes an event type's name and color. Events using the
// old name are relabeled.
func (r *CalendarRepository) UpdateEventType(ctx context.Context, et *models.EventType) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		var oldName string
		if err := tx.QueryRowContext(ctx, "SELECT name FROM event_types WHERE id = ?", et.ID).Scan(&oldName); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("querying event type: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE event_types SET name = ?, color = ? WHERE id = ?", et.Name, et.Color, et.ID); err != nil {
			return fmt.Errorf("updating event type: %w", err)
		}
		if oldName != et.Name {
			if _, err := tx.ExecContext(ctx, "UPDATE calendar_events SET event_type = ? WHERE event_type = ?", et.Name, oldName); err != nil {
				return fmt.Errorf("relabeling events: %w", err)
			}
		}
		return nil
	})
}

// DeleteEventType removes an event type. Existing events keep their label.
func (r *CalendarRepository) DeleteEventType(ctx context.Context, id int64) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM event_types WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting event type: %w", err)
	}
	return requireAffected(result)
}
