package models

import (
	"strings"
	"time"
)

// Lesson is one entry in a class's scope and sequence.
type Lesson struct {
	ID                int64        `json:"id"`
	ClassSubjectID    int64        `json:"class_subject_id"`
	Sequence          int          `json:"sequence"`
	Number            string       `json:"number"`
	Name              string       `json:"name"`
	AnchorDate        *time.Time   `json:"anchor_date,omitempty"`
	LearningObjective string       `json:"learning_objective"`
	Type              LessonType   `json:"lesson_type,omitempty"`
	Status            LessonStatus `json:"status,omitempty"`
	ReviewStatus      ReviewStatus `json:"review_status,omitempty"`
	PlanNotes         string       `json:"plan_notes"`
	PostNotes         string       `json:"post_notes"`
	Materials         []string     `json:"materials"`
	Attachments       []string     `json:"attachments"`
}

// Anchored reports whether the lesson has a manually fixed date.
func (l Lesson) Anchored() bool {
	return l.AnchorDate != nil
}

// Title renders "Number: Name" the way calendar entries show a lesson.
func (l Lesson) Title() string {
	if l.Name == "" {
		return l.Number
	}
	if l.Number == "" {
		return l.Name
	}
	return l.Number + ": " + l.Name
}

// LessonType is a lesson category. The standard values are listed below;
// any other non-empty text is kept verbatim as a custom category.
type LessonType string

const (
	LessonTypeCore       LessonType = "Core"
	LessonTypeNonCore    LessonType = "Non-Core"
	LessonTypePractice   LessonType = "Practice"
	LessonTypeAssessment LessonType = "Assessment"
)

// LessonStatus tracks lesson delivery. Like LessonType, non-standard
// values are accepted as free text.
type LessonStatus string

const (
	LessonStatusNotComplete LessonStatus = "Not complete"
	LessonStatusComplete    LessonStatus = "Complete"
	LessonStatusSkipped     LessonStatus = "Skipped"
)

// ReviewStatus is the closed set of plan review states.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "Pending"
	ReviewApproved ReviewStatus = "Approved"
)

// JoinList encodes a list column as comma-separated text.
func JoinList(items []string) *string {
	var kept []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	s := strings.Join(kept, ",")
	return &s
}

// SplitList decodes a comma-separated list column.
func SplitList(s *string) []string {
	out := []string{}
	if s == nil {
		return out
	}
	for _, it := range strings.Split(*s, ",") {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
