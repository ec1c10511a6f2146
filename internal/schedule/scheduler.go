// Package schedule maps each class's ordered lessons onto calendar dates and
// exposes the result as a queryable index shared by every read surface.
package schedule

import (
	"sort"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// Snapshot is an immutable read model of everything the scheduler consumes.
type Snapshot struct {
	Config  *models.SchoolConfig
	Classes []models.ClassSubject
	Events  []models.CalendarEvent
	Lessons []models.Lesson
}

// Assignment is one lesson placed on a date.
type Assignment struct {
	Lesson   models.Lesson
	Class    models.ClassSubject
	Date     time.Time
	Anchored bool
}

// LessonID returns the scheduled lesson's ID.
func (a Assignment) LessonID() int64 {
	return a.Lesson.ID
}

// Facts is the precomputed calendar context shared by every class in one
// scheduling pass.
type Facts struct {
	config     *models.SchoolConfig
	startEvent map[string]time.Time
	blocked    map[time.Time]bool
}

// NewFacts indexes calendar events into class start markers and blocked
// dates. An event whose type is some class's label marks that class's start;
// every other event blocks its date.
func NewFacts(cfg *models.SchoolConfig, classes []models.ClassSubject, events []models.CalendarEvent) *Facts {
	labels := make(map[string]bool, len(classes))
	for _, c := range classes {
		labels[c.Label()] = true
	}

	f := &Facts{
		config:     cfg,
		startEvent: make(map[string]time.Time),
		blocked:    make(map[time.Time]bool),
	}

	for _, ev := range events {
		d := models.Day(ev.Date)
		if !labels[ev.EventType] {
			f.blocked[d] = true
			continue
		}
		if cur, ok := f.startEvent[ev.EventType]; !ok || d.Before(cur) {
			f.startEvent[ev.EventType] = d
		}
	}

	return f
}

// StartDate resolves a class's base start date: its earliest start-marker
// event, then its own start date, then the school start date. It reports
// false when none is set, in which case the class is not scheduled.
func (f *Facts) StartDate(class models.ClassSubject) (time.Time, bool) {
	if d, ok := f.startEvent[class.Label()]; ok {
		return d, true
	}
	if class.StartDate != nil {
		return models.Day(*class.StartDate), true
	}
	if f.config != nil && f.config.StartDate != nil {
		return models.Day(*f.config.StartDate), true
	}
	return time.Time{}, false
}

// Blocked reports whether non-anchored lessons must skip d.
func (f *Facts) Blocked(d time.Time) bool {
	return models.IsWeekend(d) || f.blocked[models.Day(d)]
}

// BlockedDates returns the non-weekend blocked dates in ascending order.
func (f *Facts) BlockedDates() []time.Time {
	dates := make([]time.Time, 0, len(f.blocked))
	for d := range f.blocked {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SortLessons orders lessons by sequence, breaking ties by ID. The input
// slice is not modified.
func SortLessons(lessons []models.Lesson) []models.Lesson {
	sorted := append([]models.Lesson(nil), lessons...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Sequence != sorted[j].Sequence {
			return sorted[i].Sequence < sorted[j].Sequence
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// ComputeSchedule assigns a date to every lesson of one class.
//
// A cursor starts at the class's base date. An anchored lesson lands on its
// anchor and moves the cursor there. Any other lesson lands on the first
// date at or after the cursor that isn't blocked. Either way the cursor then
// moves to the day after the lesson. Anchors are not checked against other
// lessons, so they may share a date with them.
//
// A class without a base date yields nil.
func ComputeSchedule(class models.ClassSubject, lessons []models.Lesson, facts *Facts) []Assignment {
	start, ok := facts.StartDate(class)
	if !ok {
		return nil
	}

	ordered := SortLessons(lessons)
	out := make([]Assignment, 0, len(ordered))

	cursor := start
	for _, l := range ordered {
		var date time.Time
		if l.Anchored() {
			date = models.Day(*l.AnchorDate)
		} else {
			for facts.Blocked(cursor) {
				cursor = cursor.AddDate(0, 0, 1)
			}
			date = cursor
		}

		out = append(out, Assignment{Lesson: l, Class: class, Date: date, Anchored: l.Anchored()})
		cursor = date.AddDate(0, 0, 1)
	}

	return out
}

// ScheduleAll schedules every class in the snapshot, in class order, and
// returns the concatenated assignments. Unscheduled classes are reported by ID.
func ScheduleAll(snap *Snapshot) (assignments []Assignment, skipped []int64) {
	facts := NewFacts(snap.Config, snap.Classes, snap.Events)

	byClass := make(map[int64][]models.Lesson, len(snap.Classes))
	for _, l := range snap.Lessons {
		byClass[l.ClassSubjectID] = append(byClass[l.ClassSubjectID], l)
	}

	for _, c := range snap.Classes {
		if _, ok := facts.StartDate(c); !ok {
			skipped = append(skipped, c.ID)
			continue
		}
		assignments = append(assignments, ComputeSchedule(c, byClass[c.ID], facts)...)
	}

	return assignments, skipped
}
