package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/storage/models"
)

func TestMerge(t *testing.T) {
	early := models.Date(2024, time.September, 3)
	late := models.Date(2024, time.September, 9)

	first := models.Lesson{
		ID: 1, ClassSubjectID: 4, Sequence: 2,
		Number: "3.1", Name: "Fractions",
		LearningObjective: "Name fractions",
		Type:              models.LessonTypeCore,
		ReviewStatus:      models.ReviewApproved,
		AnchorDate:        &late,
		Materials:         []string{"rulers", "paper"},
	}
	second := models.Lesson{
		ID: 2, ClassSubjectID: 4, Sequence: 3,
		Number: "3.2", Name: "Equivalent Fractions",
		PlanNotes:    "use strips",
		ReviewStatus: models.ReviewPending,
		AnchorDate:   &early,
		Materials:    []string{"paper", "fraction strips"},
	}

	got, err := Merge(first, second)
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 2, got.Sequence)
	assert.Equal(t, "3.1 & 3.2", got.Number)
	assert.Equal(t, "Fractions & Equivalent Fractions", got.Name)
	assert.Equal(t, "Name fractions", got.LearningObjective)
	assert.Equal(t, models.LessonTypeCore, got.Type)
	assert.Equal(t, "use strips", got.PlanNotes)
	assert.Equal(t, models.ReviewPending, got.ReviewStatus)
	require.NotNil(t, got.AnchorDate)
	assert.Equal(t, early, *got.AnchorDate)
	assert.Equal(t, []string{"fraction strips", "paper", "rulers"}, got.Materials)
}

func TestMerge_Rejects(t *testing.T) {
	a := models.Lesson{ID: 1, ClassSubjectID: 1}
	_, err := Merge(a, a)
	assert.ErrorIs(t, err, ErrMergeMismatch)

	_, err = Merge(a, models.Lesson{ID: 2, ClassSubjectID: 2})
	assert.ErrorIs(t, err, ErrMergeMismatch)
}

func TestMergeReview(t *testing.T) {
	assert.Equal(t, models.ReviewStatus(""), mergeReview("", ""))
	assert.Equal(t, models.ReviewApproved, mergeReview(models.ReviewApproved, models.ReviewApproved))
	assert.Equal(t, models.ReviewPending, mergeReview(models.ReviewApproved, ""))
}
