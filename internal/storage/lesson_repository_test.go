package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/sequence"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
	"github.com/lesson-planner/backend/internal/testutil"
)

func names(t *testing.T, repo *storage.LessonRepository, classID int64) []string {
	t.Helper()
	lessons, err := repo.ListByClass(context.Background(), classID)
	require.NoError(t, err)
	out := make([]string, 0, len(lessons))
	for i, l := range lessons {
		assert.Equal(t, i, l.Sequence, "sequence must be dense")
		out = append(out, l.Name)
	}
	return out
}

func TestLessonRepository_InsertAtPosition(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	testutil.AddLessons(t, db, cs.ID, "A", "B", "C")

	created, err := repo.InsertAt(ctx, cs.ID, 1, []string{"4", "5"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "4", created[0].Number)
	assert.Equal(t, 1, created[0].Sequence)
	assert.Equal(t, 2, created[1].Sequence)

	assert.Equal(t, []string{"A", "", "", "B", "C"}, names(t, repo, cs.ID))

	_, err = repo.InsertAt(ctx, 999, 0, []string{"1"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLessonRepository_CreateWritesContent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	testutil.AddLessons(t, db, cs.ID, "A", "B")

	anchor := testutil.Date(t, "2024-09-10")
	l := models.Lesson{
		ClassSubjectID: cs.ID,
		Number:         "7",
		Name:           "Fractions",
		AnchorDate:     &anchor,
		ReviewStatus:   models.ReviewApproved,
		Materials:      []string{"rulers", "paper"},
	}
	require.NoError(t, repo.Create(ctx, &l, 1))
	assert.NotZero(t, l.ID)
	assert.Equal(t, 1, l.Sequence)

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Fractions", got.Name)
	assert.Equal(t, anchor, *got.AnchorDate)
	assert.Equal(t, models.ReviewApproved, got.ReviewStatus)
	assert.Equal(t, []string{"rulers", "paper"}, got.Materials)
	assert.Equal(t, []string{"A", "Fractions", "B"}, names(t, repo, cs.ID))

	orphan := models.Lesson{ClassSubjectID: 999, Name: "Orphan"}
	assert.ErrorIs(t, repo.Create(ctx, &orphan, -1), storage.ErrNotFound)
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "a failed create leaves nothing behind")
}

func TestLessonRepository_Move(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	ls := testutil.AddLessons(t, db, cs.ID, "A", "B", "C")

	moved, err := repo.Move(ctx, ls[2].ID, -1)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{"A", "C", "B"}, names(t, repo, cs.ID))

	moved, err = repo.Move(ctx, ls[0].ID, -1)
	require.NoError(t, err)
	assert.False(t, moved)

	_, err = repo.Move(ctx, 999, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLessonRepository_Reorder(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	ls := testutil.AddLessons(t, db, cs.ID, "A", "B", "C")

	require.NoError(t, repo.Reorder(ctx, cs.ID, []int64{ls[2].ID, ls[0].ID, ls[1].ID}))
	assert.Equal(t, []string{"C", "A", "B"}, names(t, repo, cs.ID))

	err := repo.Reorder(ctx, cs.ID, []int64{ls[0].ID, ls[1].ID})
	assert.ErrorIs(t, err, sequence.ErrInvalidOrder)
	assert.Equal(t, []string{"C", "A", "B"}, names(t, repo, cs.ID))
}

func TestLessonRepository_DeleteRenumbers(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	ls := testutil.AddLessons(t, db, cs.ID, "A", "B", "C", "D")

	require.NoError(t, repo.Delete(ctx, ls[1].ID))
	assert.Equal(t, []string{"A", "C", "D"}, names(t, repo, cs.ID))
	assert.ErrorIs(t, repo.Delete(ctx, ls[1].ID), storage.ErrNotFound)

	n, err := repo.DeleteMany(ctx, cs.ID, []int64{ls[0].ID, ls[3].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"C"}, names(t, repo, cs.ID))

	n, err = repo.DeleteMany(ctx, cs.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, names(t, repo, cs.ID))
}

func TestLessonRepository_Merge(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)
	roster := storage.NewRosterRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	ls := testutil.AddLessons(t, db, cs.ID, "A", "B", "C")

	m := models.MaterialNeeded{LessonID: ls[1].ID, Description: "Rulers", ReminderDate: testutil.Date(t, "2024-09-01")}
	require.NoError(t, roster.AddMaterial(ctx, &m))

	// Passing the later lesson first still keeps the earlier one.
	merged, err := repo.Merge(ctx, ls[1].ID, ls[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ls[0].ID, merged.ID)
	assert.Equal(t, "1 & 2", merged.Number)
	assert.Equal(t, "A & B", merged.Name)

	assert.Equal(t, []string{"A & B", "C"}, names(t, repo, cs.ID))

	materials, err := roster.ListMaterials(ctx, ls[0].ID)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "Rulers", materials[0].Description)

	_, err = repo.Merge(ctx, ls[0].ID, ls[0].ID)
	assert.ErrorIs(t, err, sequence.ErrMergeMismatch)
	_, err = repo.Merge(ctx, ls[0].ID, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLessonRepository_CountByClass(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := storage.NewLessonRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-03")
	ls := testutil.AddLessons(t, db, cs.ID, "A", "B")
	ls[0].ReviewStatus = models.ReviewApproved
	require.NoError(t, repo.Update(ctx, &ls[0]))

	counts, err := repo.CountByClass(ctx)
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 1}, counts[cs.ID])
}
