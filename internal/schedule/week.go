package schedule

import (
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// StartOfWeek returns the Monday of d's week.
func StartOfWeek(d time.Time) time.Time {
	d = models.Day(d)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// WeekNumber returns the 1-based week of date counted from the Monday of
// start's week. Dates before that Monday have no week number.
func WeekNumber(date, start time.Time) (int, bool) {
	origin := StartOfWeek(start)
	date = models.Day(date)
	if date.Before(origin) {
		return 0, false
	}
	days := (date.Unix() - origin.Unix()) / 86400
	return int(days/7) + 1, true
}

// SchoolWeek numbers date within the school year. Whole weeks are labeled:
// every day of a week that starts on or before the end date keeps its number.
// Dates before the first week, or with no start date, are unlabeled.
func SchoolWeek(date time.Time, cfg *models.SchoolConfig) (int, bool) {
	if cfg == nil || cfg.StartDate == nil {
		return 0, false
	}
	if cfg.EndDate != nil && StartOfWeek(date).After(models.Day(*cfg.EndDate)) {
		return 0, false
	}
	return WeekNumber(date, *cfg.StartDate)
}
