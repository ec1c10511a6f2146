package models

import "time"

// SchoolConfig is the singleton school-wide configuration row.
type SchoolConfig struct {
	SchoolName   string     `json:"school_name"`
	TeacherName  string     `json:"teacher_name"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	LogoPath     *string    `json:"logo_path,omitempty"`
	SharedRoster bool       `json:"shared_roster"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ClassSubject is a class (subject plus optional section) that owns a lesson sequence.
type ClassSubject struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Section   *string    `json:"section,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

// Label returns the display label used to key calendar events and colors,
// e.g. "Math" or "Math (B)".
func (c ClassSubject) Label() string {
	if c.Section == nil || *c.Section == "" {
		return c.Name
	}
	return c.Name + " (" + *c.Section + ")"
}
