package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lesson-planner/backend/internal/sequence"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// LessonRepository provides data access for class lesson sequences.
type LessonRepository struct {
	BaseRepository
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *DB) *LessonRepository {
	return &LessonRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const lessonColumns = `
	id, class_subject_id, sequence, number, name, anchor_date, learning_objective,
	lesson_type, status, review_status, plan_notes, post_notes, materials, attachments`

func scanLesson(s rowScanner) (*models.Lesson, error) {
	l := &models.Lesson{}
	var anchor, lessonType, status, review, materials, attachments sql.NullString

	if err := s.Scan(
		&l.ID, &l.ClassSubjectID, &l.Sequence, &l.Number, &l.Name, &anchor, &l.LearningObjective,
		&lessonType, &status, &review, &l.PlanNotes, &l.PostNotes, &materials, &attachments,
	); err != nil {
		return nil, err
	}

	var err error
	if l.AnchorDate, err = scanDate(anchor); err != nil {
		return nil, err
	}
	l.Type = models.LessonType(lessonType.String)
	l.Status = models.LessonStatus(status.String)
	l.ReviewStatus = models.ReviewStatus(review.String)
	l.Materials = models.SplitList(nullStringPtr(materials))
	l.Attachments = models.SplitList(nullStringPtr(attachments))

	return l, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// GetByID retrieves a lesson by its ID.
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*models.Lesson, error) {
	return getLesson(ctx, r.DB(), id)
}

func getLesson(ctx context.Context, q Queryable, id int64) (*models.Lesson, error) {
	row := q.QueryRowContext(ctx, "SELECT "+lessonColumns+" FROM lessons WHERE id = ?", id)
	l, err := scanLesson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying lesson: %w", err)
	}
	return l, nil
}

// ListByClass retrieves a class's lessons in sequence order. Ties in
// sequence fall back to ID, i.e. insertion order.
func (r *LessonRepository) ListByClass(ctx context.Context, classID int64) ([]models.Lesson, error) {
	return listLessons(ctx, r.DB(), "WHERE class_subject_id = ? ORDER BY sequence, id", classID)
}

// ListAll retrieves every lesson, grouped by class in sequence order.
func (r *LessonRepository) ListAll(ctx context.Context) ([]models.Lesson, error) {
	return listLessons(ctx, r.DB(), "ORDER BY class_subject_id, sequence, id")
}

func listLessons(ctx context.Context, q Queryable, where string, args ...any) ([]models.Lesson, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+lessonColumns+" FROM lessons "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// InsertAt creates one lesson per number at position within the class's
// sequence and renumbers the whole class. A negative or too-large position
// appends.
func (r *LessonRepository) InsertAt(ctx context.Context, classID int64, position int, numbers []string) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, len(numbers))
	for i, num := range numbers {
		lessons[i] = models.Lesson{Number: num}
	}
	return r.insertLessons(ctx, classID, position, lessons)
}

// Create inserts l with all of its content at position in its class's order
// (-1 appends). l is updated with its ID and sequence.
func (r *LessonRepository) Create(ctx context.Context, l *models.Lesson, position int) error {
	created, err := r.insertLessons(ctx, l.ClassSubjectID, position, []models.Lesson{*l})
	if err != nil {
		return err
	}
	*l = created[0]
	return nil
}

func (r *LessonRepository) insertLessons(ctx context.Context, classID int64, position int, lessons []models.Lesson) ([]models.Lesson, error) {
	var created []models.Lesson

	err := r.Transaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM class_subjects WHERE id = ?", classID).Scan(&exists); err != nil {
			return fmt.Errorf("checking class: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		order, err := classOrder(ctx, tx, classID)
		if err != nil {
			return err
		}

		var ids []int64
		for _, l := range lessons {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO lessons (
					class_subject_id, number, name, anchor_date, learning_objective, lesson_type,
					status, review_status, plan_notes, post_notes, materials, attachments
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				classID, l.Number, l.Name, models.FormatDatePtr(l.AnchorDate), l.LearningObjective,
				nullableString(string(l.Type)), nullableString(string(l.Status)), nullableString(string(l.ReviewStatus)),
				l.PlanNotes, l.PostNotes, models.JoinList(l.Materials), models.JoinList(l.Attachments),
			)
			if err != nil {
				return fmt.Errorf("inserting lesson: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("reading lesson id: %w", err)
			}
			ids = append(ids, id)
		}

		if err := renumber(ctx, tx, sequence.InsertAt(order, position, ids...)); err != nil {
			return err
		}

		for _, id := range ids {
			l, err := getLesson(ctx, tx, id)
			if err != nil {
				return err
			}
			created = append(created, *l)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update writes a lesson's content fields. Class and sequence are changed
// only through the ordering operations.
func (r *LessonRepository) Update(ctx context.Context, l *models.Lesson) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE lessons SET
			number = ?, name = ?, anchor_date = ?, learning_objective = ?, lesson_type = ?,
			status = ?, review_status = ?, plan_notes = ?, post_notes = ?, materials = ?, attachments = ?
		WHERE id = ?
	`,
		l.Number, l.Name, models.FormatDatePtr(l.AnchorDate), l.LearningObjective,
		nullableString(string(l.Type)), nullableString(string(l.Status)), nullableString(string(l.ReviewStatus)),
		l.PlanNotes, l.PostNotes, models.JoinList(l.Materials), models.JoinList(l.Attachments),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating lesson: %w", err)
	}
	return requireAffected(result)
}

// SetAnchor pins a lesson to date, or clears the anchor when date is nil.
func (r *LessonRepository) SetAnchor(ctx context.Context, id int64, date *time.Time) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE lessons SET anchor_date = ? WHERE id = ?
	`, models.FormatDatePtr(date), id)
	if err != nil {
		return fmt.Errorf("updating anchor date: %w", err)
	}
	return requireAffected(result)
}

// Move swaps a lesson with its neighbor (delta -1 for up, +1 for down) and
// renumbers the class. It reports false when the lesson is already at that edge.
func (r *LessonRepository) Move(ctx context.Context, id int64, delta int) (bool, error) {
	moved := false
	err := r.Transaction(ctx, func(tx *sql.Tx) error {
		classID, err := lessonClass(ctx, tx, id)
		if err != nil {
			return err
		}
		order, err := classOrder(ctx, tx, classID)
		if err != nil {
			return err
		}
		next, ok := sequence.Move(order, id, delta)
		if !ok {
			return nil
		}
		moved = true
		return renumber(ctx, tx, next)
	})
	return moved, err
}

// Reorder applies an explicit order. ids must be a permutation of the
// class's lessons.
func (r *LessonRepository) Reorder(ctx context.Context, classID int64, ids []int64) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		order, err := classOrder(ctx, tx, classID)
		if err != nil {
			return err
		}
		if err := sequence.CheckPermutation(order, ids); err != nil {
			return err
		}
		return renumber(ctx, tx, ids)
	})
}

// Delete removes a lesson and closes the gap in its class's sequence.
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	return r.Transaction(ctx, func(tx *sql.Tx) error {
		classID, err := lessonClass(ctx, tx, id)
		if err != nil {
			return err
		}
		return deleteAndRenumber(ctx, tx, classID, []int64{id})
	})
}

// DeleteMany removes the given lessons of a class, or all of them when ids
// is empty. It returns the number deleted.
func (r *LessonRepository) DeleteMany(ctx context.Context, classID int64, ids []int64) (int, error) {
	deleted := 0
	err := r.Transaction(ctx, func(tx *sql.Tx) error {
		order, err := classOrder(ctx, tx, classID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			ids = order
		}
		remaining := sequence.Remove(order, ids...)
		deleted = len(order) - len(remaining)
		return deleteAndRenumber(ctx, tx, classID, ids)
	})
	return deleted, err
}

// Merge coalesces second into first (whichever comes earlier in sequence is
// kept), moves performance and material records over, deletes the other
// lesson and returns the merged result.
func (r *LessonRepository) Merge(ctx context.Context, firstID, secondID int64) (*models.Lesson, error) {
	var merged models.Lesson

	err := r.Transaction(ctx, func(tx *sql.Tx) error {
		a, err := getLesson(ctx, tx, firstID)
		if err != nil {
			return err
		}
		b, err := getLesson(ctx, tx, secondID)
		if err != nil {
			return err
		}
		if a == nil || b == nil {
			return ErrNotFound
		}
		if b.Sequence < a.Sequence || (b.Sequence == a.Sequence && b.ID < a.ID) {
			a, b = b, a
		}

		if merged, err = sequence.Merge(*a, *b); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE lessons SET
				number = ?, name = ?, anchor_date = ?, learning_objective = ?, lesson_type = ?,
				status = ?, review_status = ?, plan_notes = ?, post_notes = ?, materials = ?, attachments = ?
			WHERE id = ?
		`,
			merged.Number, merged.Name, models.FormatDatePtr(merged.AnchorDate), merged.LearningObjective,
			nullableString(string(merged.Type)), nullableString(string(merged.Status)), nullableString(string(merged.ReviewStatus)),
			merged.PlanNotes, merged.PostNotes, models.JoinList(merged.Materials), models.JoinList(merged.Attachments),
			merged.ID,
		); err != nil {
			return fmt.Errorf("updating merged lesson: %w", err)
		}

		// The kept lesson's own ratings win over the removed lesson's.
		if _, err := tx.ExecContext(ctx, `
			UPDATE OR IGNORE lesson_performance SET lesson_id = ? WHERE lesson_id = ?
		`, a.ID, b.ID); err != nil {
			return fmt.Errorf("moving performance records: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE materials_needed SET lesson_id = ? WHERE lesson_id = ?
		`, a.ID, b.ID); err != nil {
			return fmt.Errorf("moving materials: %w", err)
		}

		return deleteAndRenumber(ctx, tx, a.ClassSubjectID, []int64{b.ID})
	})
	if err != nil {
		return nil, err
	}

	return &merged, nil
}

// CountByClass returns total and approved lesson counts per class ID.
func (r *LessonRepository) CountByClass(ctx context.Context) (map[int64][2]int, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT class_subject_id, COUNT(*), SUM(CASE WHEN review_status = ? THEN 1 ELSE 0 END)
		FROM lessons GROUP BY class_subject_id
	`, models.ReviewApproved)
	if err != nil {
		return nil, fmt.Errorf("counting lessons: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64][2]int)
	for rows.Next() {
		var classID int64
		var total, approved int
		if err := rows.Scan(&classID, &total, &approved); err != nil {
			return nil, fmt.Errorf("scanning lesson count: %w", err)
		}
		counts[classID] = [2]int{total, approved}
	}
	return counts, rows.Err()
}

func lessonClass(ctx context.Context, q Queryable, id int64) (int64, error) {
	var classID int64
	err := q.QueryRowContext(ctx, "SELECT class_subject_id FROM lessons WHERE id = ?", id).Scan(&classID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying lesson class: %w", err)
	}
	return classID, nil
}

func classOrder(ctx context.Context, q Queryable, classID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id FROM lessons WHERE class_subject_id = ? ORDER BY sequence, id
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("querying lesson order: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning lesson id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// renumber writes sequence = position for every id in order.
func renumber(ctx context.Context, q Queryable, order []int64) error {
	for i, id := range order {
		if _, err := q.ExecContext(ctx, "UPDATE lessons SET sequence = ? WHERE id = ?", i, id); err != nil {
			return fmt.Errorf("renumbering lesson %d: %w", id, err)
		}
	}
	return nil
}

func deleteAndRenumber(ctx context.Context, q Queryable, classID int64, ids []int64) error {
	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		args := make([]any, 0, len(ids)+1)
		args = append(args, classID)
		for _, id := range ids {
			args = append(args, id)
		}
		if _, err := q.ExecContext(ctx,
			"DELETE FROM lessons WHERE class_subject_id = ? AND id IN ("+placeholders+")", args...,
		); err != nil {
			return fmt.Errorf("deleting lessons: %w", err)
		}
	}

	order, err := classOrder(ctx, q, classID)
	if err != nil {
		return err
	}
	return renumber(ctx, q, order)
}
