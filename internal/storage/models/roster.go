package models

import "time"

// RosterEntry is a student on a class roster. A nil ClassSubjectID places the
// student on the global roster shared by all classes.
type RosterEntry struct {
	ID             int64  `json:"id"`
	ClassSubjectID *int64 `json:"class_subject_id,omitempty"`
	Name           string `json:"name"`
}

// PerformanceStatus is a traffic-light rating for one student on one lesson.
type PerformanceStatus string

const (
	PerformanceGreen  PerformanceStatus = "Green"
	PerformanceYellow PerformanceStatus = "Yellow"
	PerformanceRed    PerformanceStatus = "Red"
)

// LessonPerformance records how a student did on a lesson.
type LessonPerformance struct {
	ID            int64             `json:"id"`
	LessonID      int64             `json:"lesson_id"`
	RosterEntryID int64             `json:"roster_entry_id"`
	Status        PerformanceStatus `json:"status"`
	Notes         string            `json:"notes"`
}

// PerformanceTally counts ratings across a set of lessons.
type PerformanceTally struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

// MaterialNeeded is something to acquire before a lesson, with a reminder date.
type MaterialNeeded struct {
	ID           int64     `json:"id"`
	LessonID     int64     `json:"lesson_id"`
	Description  string    `json:"description"`
	ReminderDate time.Time `json:"reminder_date"`
	Acquired     bool      `json:"acquired"`
}
