package sequence

import (
	"errors"
	"sort"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// ErrMergeMismatch is returned when two lessons can't be merged.
var ErrMergeMismatch = errors.New("lessons must be two distinct lessons of the same class")

// Merge coalesces second into first and returns the combined lesson, which
// keeps first's identity and position. The caller deletes second.
func Merge(first, second models.Lesson) (models.Lesson, error) {
	if first.ID == second.ID || first.ClassSubjectID != second.ClassSubjectID {
		return models.Lesson{}, ErrMergeMismatch
	}

	merged := first
	merged.Number = first.Number + " & " + second.Number
	merged.Name = joinBoth(first.Name, second.Name, " & ")
	merged.LearningObjective = joinBoth(first.LearningObjective, second.LearningObjective, "\n")
	merged.Type = models.LessonType(joinBoth(string(first.Type), string(second.Type), " & "))
	merged.Status = models.LessonStatus(joinBoth(string(first.Status), string(second.Status), " & "))
	merged.PlanNotes = joinBoth(first.PlanNotes, second.PlanNotes, "\n")
	merged.PostNotes = joinBoth(first.PostNotes, second.PostNotes, "\n")
	merged.ReviewStatus = mergeReview(first.ReviewStatus, second.ReviewStatus)
	merged.AnchorDate = earliest(first, second)
	merged.Materials = union(first.Materials, second.Materials)
	merged.Attachments = union(first.Attachments, second.Attachments)

	return merged, nil
}

func joinBoth(a, b, sep string) string {
	switch {
	case a != "" && b != "":
		return a + sep + b
	case a != "":
		return a
	default:
		return b
	}
}

// mergeReview keeps the enum closed: a merged plan is approved only if both
// halves were.
func mergeReview(a, b models.ReviewStatus) models.ReviewStatus {
	switch {
	case a == "" && b == "":
		return ""
	case a == models.ReviewApproved && b == models.ReviewApproved:
		return models.ReviewApproved
	default:
		return models.ReviewPending
	}
}

// earliest picks the earlier of two optional anchors.
func earliest(a, b models.Lesson) *time.Time {
	switch {
	case a.AnchorDate == nil:
		return b.AnchorDate
	case b.AnchorDate == nil:
		return a.AnchorDate
	case b.AnchorDate.Before(*a.AnchorDate):
		return b.AnchorDate
	default:
		return a.AnchorDate
	}
}

func union(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if s != "" {
			set[s] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
