// Package models contains the domain models for the application.
package models

import (
	"fmt"
	"hash/fnv"
	"time"
)

// CalendarEvent marks a date with a label. The label is either a
// non-instructional category ("Holiday") or a class label, in which case the
// event marks that class's start date.
type CalendarEvent struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	EventType string    `json:"event_type"`
}

// EventType is display metadata for calendar event labels.
type EventType struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// LabelColor derives a stable "#rrggbb" color for a label, used for the
// event type created alongside each class.
func LabelColor(label string) string {
	h := fnv.New32a()
	h.Write([]byte(label))
	return fmt.Sprintf("#%06x", h.Sum32()&0xffffff)
}

// Well-known event type names used for school year bounds.
const (
	EventTypeHoliday     = "Holiday"
	EventTypeSchoolStart = "School Start"
	EventTypeSchoolEnd   = "School End"
)

// HolidayFeed is an iCal feed whose all-day events are imported as
// calendar events of EventType.
type HolidayFeed struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	EventType       string     `json:"event_type"`
	SyncIntervalMin int        `json:"sync_interval_min"`
	LastSyncAt      *time.Time `json:"last_sync_at,omitempty"`
	SyncStatus      string     `json:"sync_status"`
	SyncError       *string    `json:"sync_error,omitempty"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// SyncStatus constants
const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// FeedEvent is a parsed event from an iCal feed.
type FeedEvent struct {
	UID     string    `json:"uid"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
}

// DayCount returns how many civil dates the event covers, without
// enumerating them.
func (e FeedEvent) DayCount() int64 {
	n := (Day(e.End).Unix() - Day(e.Start).Unix()) / 86400
	if n < 1 {
		return 1
	}
	return n
}

// Days returns every civil date the event covers. DTEND is exclusive for
// all-day events, per RFC 5545.
func (e FeedEvent) Days() []time.Time {
	start := Day(e.Start)
	end := Day(e.End)
	if !end.After(start) {
		return []time.Time{start}
	}
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// FeedSyncResult contains the results of a holiday feed import.
type FeedSyncResult struct {
	FeedID        string    `json:"feed_id"`
	FeedName      string    `json:"feed_name"`
	EventsFound   int       `json:"events_found"`
	DatesAdded    int       `json:"dates_added"`
	DatesExisting int       `json:"dates_existing"`
	EventsSkipped int       `json:"events_skipped"`
	Error         error     `json:"-"`
	SyncedAt      time.Time `json:"synced_at"`
}
