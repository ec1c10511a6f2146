package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// Entry is a scheduled lesson as seen by readers of the index.
type Entry struct {
	Lesson   models.Lesson       `json:"lesson"`
	Class    models.ClassSubject `json:"class"`
	Date     time.Time           `json:"date"`
	Anchored bool                `json:"anchored"`
}

// Match is the result of a name search. Scheduled is false when the first
// matching lesson has no date, in which case Entry carries only the lesson.
type Match struct {
	Entry     Entry
	Scheduled bool
}

// Day groups the entries scheduled on one date.
type Day struct {
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

type classDay struct {
	classID int64
	date    time.Time
}

// Index is a read-only view over one scheduling pass. It is safe for
// concurrent readers once built.
type Index struct {
	assignments []Assignment
	byDate      map[time.Time][]Entry
	byClassDate map[classDay][]Entry
	byLesson    map[int64]Entry
	lessons     []models.Lesson
	builtAt     time.Time
}

// BuildIndex groups assignments by date, by class and date, and by lesson.
// Per-date order is the order the scheduler emitted. lessons is every lesson
// in the store, scheduled or not, and is what name search walks; when nil the
// assigned lessons are used.
func BuildIndex(assignments []Assignment, lessons []models.Lesson) *Index {
	idx := &Index{
		assignments: assignments,
		byDate:      make(map[time.Time][]Entry),
		byClassDate: make(map[classDay][]Entry),
		byLesson:    make(map[int64]Entry, len(assignments)),
		builtAt:     time.Now().UTC(),
	}

	for _, a := range assignments {
		e := Entry{Lesson: a.Lesson, Class: a.Class, Date: a.Date, Anchored: a.Anchored}
		idx.byDate[a.Date] = append(idx.byDate[a.Date], e)
		key := classDay{classID: a.Class.ID, date: a.Date}
		idx.byClassDate[key] = append(idx.byClassDate[key], e)
		idx.byLesson[a.Lesson.ID] = e
	}

	if lessons == nil {
		for _, a := range assignments {
			lessons = append(lessons, a.Lesson)
		}
	}
	idx.lessons = make([]models.Lesson, len(lessons))
	copy(idx.lessons, lessons)
	sort.Slice(idx.lessons, func(i, j int) bool { return idx.lessons[i].ID < idx.lessons[j].ID })

	return idx
}

// BuiltAt returns when the index was built.
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

// Len returns the number of scheduled lessons.
func (idx *Index) Len() int {
	return len(idx.byLesson)
}

// Assignments returns the flat scheduler output in emission order.
func (idx *Index) Assignments() []Assignment {
	return idx.assignments
}

// LessonsOn returns the lessons scheduled on date, possibly none.
func (idx *Index) LessonsOn(date time.Time) []Entry {
	return idx.byDate[models.Day(date)]
}

// LessonsForClassOn returns one class's lessons on date.
func (idx *Index) LessonsForClassOn(classID int64, date time.Time) []Entry {
	return idx.byClassDate[classDay{classID: classID, date: models.Day(date)}]
}

// DateOf returns a lesson's scheduled date. It reports false when the
// lesson isn't scheduled, e.g. its class has no base date.
func (idx *Index) DateOf(lessonID int64) (time.Time, bool) {
	e, ok := idx.byLesson[lessonID]
	return e.Date, ok
}

// Lookup returns the full entry for a scheduled lesson.
func (idx *Index) Lookup(lessonID int64) (Entry, bool) {
	e, ok := idx.byLesson[lessonID]
	return e, ok
}

// FindByNameSubstring returns the first lesson, by ascending ID, whose name
// contains text, ignoring case. The search does not skip past an unscheduled
// match: it is returned with Scheduled false.
func (idx *Index) FindByNameSubstring(text string) (Match, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return Match{}, false
	}
	for _, l := range idx.lessons {
		if !strings.Contains(strings.ToLower(l.Name), needle) {
			continue
		}
		if e, ok := idx.byLesson[l.ID]; ok {
			return Match{Entry: e, Scheduled: true}, true
		}
		return Match{Entry: Entry{Lesson: l}}, true
	}
	return Match{}, false
}

// Between returns every date in [from, to] with its entries, including
// dates with none. It returns nil if to is before from.
func (idx *Index) Between(from, to time.Time) []Day {
	from, to = models.Day(from), models.Day(to)
	if to.Before(from) {
		return nil
	}
	var days []Day
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		entries := idx.byDate[d]
		if entries == nil {
			entries = []Entry{}
		}
		days = append(days, Day{Date: d, Entries: entries})
	}
	return days
}

// ForClass returns one class's assignments in emission order.
func (idx *Index) ForClass(classID int64) []Assignment {
	var out []Assignment
	for _, a := range idx.assignments {
		if a.Class.ID == classID {
			out = append(out, a)
		}
	}
	return out
}
