package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/storage/models"
)

func d(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dp(s string) *time.Time {
	t := d(s)
	return &t
}

func lessons(classID int64, n int) []models.Lesson {
	out := make([]models.Lesson, n)
	for i := range out {
		out[i] = models.Lesson{
			ID:             int64(i + 1),
			ClassSubjectID: classID,
			Sequence:       i + 1,
			Name:           "Lesson " + string(rune('A'+i)),
		}
	}
	return out
}

func dates(as []Assignment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = models.FormatDate(a.Date)
	}
	return out
}

var math = models.ClassSubject{ID: 1, Name: "Math"}

func TestComputeSchedule_Scenarios(t *testing.T) {
	holiday := []models.CalendarEvent{{ID: 1, Date: d("2024-09-03"), EventType: models.EventTypeHoliday}}
	start := []models.CalendarEvent{{ID: 2, Date: d("2024-09-02"), EventType: "Math"}}

	anchored := lessons(1, 3)
	anchored[1].AnchorDate = dp("2024-09-10")

	tests := []struct {
		name    string
		events  []models.CalendarEvent
		lessons []models.Lesson
		want    []string
	}{
		{
			name:    "skips blocked date",
			events:  append(append([]models.CalendarEvent{}, start...), holiday...),
			lessons: lessons(1, 3),
			want:    []string{"2024-09-02", "2024-09-04", "2024-09-05"},
		},
		{
			name:    "anchor pins date and resets cursor",
			events:  append(append([]models.CalendarEvent{}, start...), holiday...),
			lessons: anchored,
			want:    []string{"2024-09-02", "2024-09-10", "2024-09-11"},
		},
		{
			name:    "start on saturday rolls to monday",
			events:  []models.CalendarEvent{{ID: 3, Date: d("2024-09-07"), EventType: "Math"}},
			lessons: lessons(1, 1),
			want:    []string{"2024-09-09"},
		},
		{
			name:    "no lessons",
			events:  start,
			lessons: nil,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := NewFacts(&models.SchoolConfig{}, []models.ClassSubject{math}, tt.events)
			got := ComputeSchedule(math, tt.lessons, facts)
			assert.Equal(t, tt.want, dates(got))
		})
	}
}

func TestComputeSchedule_Deterministic(t *testing.T) {
	events := []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-02"), EventType: "Math"},
		{ID: 2, Date: d("2024-09-05"), EventType: "In-Service"},
	}
	facts := NewFacts(nil, []models.ClassSubject{math}, events)
	ls := lessons(1, 10)

	first := ComputeSchedule(math, ls, facts)
	second := ComputeSchedule(math, ls, facts)
	assert.Equal(t, first, second)
}

func TestComputeSchedule_NonAnchoredNeverBlockedAndIncreasing(t *testing.T) {
	events := []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-02"), EventType: "Math"},
		{ID: 2, Date: d("2024-09-04"), EventType: models.EventTypeHoliday},
		{ID: 3, Date: d("2024-09-12"), EventType: "Conference Day"},
	}
	facts := NewFacts(nil, []models.ClassSubject{math}, events)
	got := ComputeSchedule(math, lessons(1, 20), facts)
	require.Len(t, got, 20)

	for i, a := range got {
		assert.False(t, facts.Blocked(a.Date), "lesson %d landed on blocked %s", i, models.FormatDate(a.Date))
		assert.False(t, models.IsWeekend(a.Date))
		if i > 0 {
			assert.True(t, a.Date.After(got[i-1].Date))
		}
	}
}

func TestComputeSchedule_AnchorOnBlockedDateIsKept(t *testing.T) {
	events := []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-02"), EventType: "Math"},
		{ID: 2, Date: d("2024-09-06"), EventType: models.EventTypeHoliday},
	}
	ls := lessons(1, 2)
	ls[0].AnchorDate = dp("2024-09-07") // Saturday
	facts := NewFacts(nil, []models.ClassSubject{math}, events)

	got := ComputeSchedule(math, ls, facts)
	assert.Equal(t, []string{"2024-09-07", "2024-09-09"}, dates(got))
	assert.True(t, got[0].Anchored)
	assert.False(t, got[1].Anchored)
}

func TestComputeSchedule_AnchorBeforeCursorMovesBackward(t *testing.T) {
	facts := NewFacts(nil, []models.ClassSubject{math}, []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-09"), EventType: "Math"},
	})
	ls := lessons(1, 3)
	ls[1].AnchorDate = dp("2024-09-02")

	got := ComputeSchedule(math, ls, facts)
	assert.Equal(t, []string{"2024-09-09", "2024-09-02", "2024-09-03"}, dates(got))
}

func TestComputeSchedule_SequenceTieBreaksByID(t *testing.T) {
	facts := NewFacts(nil, []models.ClassSubject{math}, []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-02"), EventType: "Math"},
	})
	ls := []models.Lesson{
		{ID: 7, ClassSubjectID: 1, Sequence: 2, Name: "late"},
		{ID: 5, ClassSubjectID: 1, Sequence: 1, Name: "second"},
		{ID: 3, ClassSubjectID: 1, Sequence: 1, Name: "first"},
	}

	got := ComputeSchedule(math, ls, facts)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{3, 5, 7}, []int64{got[0].LessonID(), got[1].LessonID(), got[2].LessonID()})
}

func TestComputeSchedule_MissingBaseDate(t *testing.T) {
	facts := NewFacts(&models.SchoolConfig{}, []models.ClassSubject{math}, nil)
	assert.Empty(t, ComputeSchedule(math, lessons(1, 3), facts))
}

func TestFacts_StartDatePriority(t *testing.T) {
	cfg := &models.SchoolConfig{StartDate: dp("2024-08-26")}
	withOwn := models.ClassSubject{ID: 2, Name: "Science", StartDate: dp("2024-08-28")}
	withEvent := models.ClassSubject{ID: 3, Name: "History", StartDate: dp("2024-08-28")}
	bare := models.ClassSubject{ID: 4, Name: "Art"}
	classes := []models.ClassSubject{withOwn, withEvent, bare}

	facts := NewFacts(cfg, classes, []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-04"), EventType: "History"},
		{ID: 2, Date: d("2024-09-03"), EventType: "History"},
	})

	got, ok := facts.StartDate(withEvent)
	require.True(t, ok)
	assert.Equal(t, d("2024-09-03"), got, "earliest marker event wins")

	got, ok = facts.StartDate(withOwn)
	require.True(t, ok)
	assert.Equal(t, d("2024-08-28"), got)

	got, ok = facts.StartDate(bare)
	require.True(t, ok)
	assert.Equal(t, d("2024-08-26"), got)
}

func TestFacts_ClassLabelEventsDoNotBlock(t *testing.T) {
	algebra := models.ClassSubject{ID: 1, Name: "Math", Section: strPtr("Algebra")}
	facts := NewFacts(nil, []models.ClassSubject{algebra}, []models.CalendarEvent{
		{ID: 1, Date: d("2024-09-02"), EventType: "Math (Algebra)"},
		{ID: 2, Date: d("2024-09-03"), EventType: "Math"},
	})

	assert.False(t, facts.Blocked(d("2024-09-02")))
	assert.True(t, facts.Blocked(d("2024-09-03")), "type matching no class label blocks")
	assert.True(t, facts.Blocked(d("2024-09-07")))
	assert.Equal(t, []time.Time{d("2024-09-03")}, facts.BlockedDates())
}

func TestScheduleAll_SkipsClassesWithoutStart(t *testing.T) {
	art := models.ClassSubject{ID: 2, Name: "Art"}
	snap := &Snapshot{
		Config:  &models.SchoolConfig{},
		Classes: []models.ClassSubject{math, art},
		Events:  []models.CalendarEvent{{ID: 1, Date: d("2024-09-02"), EventType: "Math"}},
		Lessons: append(lessons(1, 2), models.Lesson{ID: 10, ClassSubjectID: 2, Sequence: 1, Name: "Color"}),
	}

	got, skipped := ScheduleAll(snap)
	assert.Equal(t, []string{"2024-09-02", "2024-09-03"}, dates(got))
	assert.Equal(t, []int64{2}, skipped)
}

func strPtr(s string) *string { return &s }
