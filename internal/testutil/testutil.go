// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// NewDB opens a migrated SQLite database in a temp dir. It is closed when
// the test ends.
func NewDB(t *testing.T) *storage.DB {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("NewDB() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := storage.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations() failed: %v", err)
	}
	return db
}

// Date parses a YYYY-MM-DD literal.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("Date(%q) failed: %v", s, err)
	}
	return d
}

// CreateClass inserts a class, with a start date when start is non-empty.
func CreateClass(t *testing.T, db *storage.DB, name, start string) models.ClassSubject {
	t.Helper()
	cs := models.ClassSubject{Name: name}
	if start != "" {
		d := Date(t, start)
		cs.StartDate = &d
	}
	if err := storage.NewClassRepository(db).Create(context.Background(), &cs); err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cs
}

// AddLessons appends named lessons to a class in order.
func AddLessons(t *testing.T, db *storage.DB, classID int64, names ...string) []models.Lesson {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	created := make([]models.Lesson, len(names))
	for i, name := range names {
		l := models.Lesson{ClassSubjectID: classID, Number: strconv.Itoa(i + 1), Name: name}
		if err := repo.Create(ctx, &l, -1); err != nil {
			t.Fatalf("AddLessons() failed: %v", err)
		}
		created[i] = l
	}
	return created
}
