package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/calendar"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Schedule response types

type EntryResponse struct {
	LessonID   int64  `json:"lesson_id"`
	ClassID    int64  `json:"class_id"`
	ClassLabel string `json:"class_label"`
	Number     string `json:"number"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Date       string `json:"date"`
	Anchored   bool   `json:"anchored"`
}

type DayResponse struct {
	Date       string          `json:"date"`
	WeekNumber *int            `json:"week_number"`
	Entries    []EntryResponse `json:"entries"`
}

type RangeResponse struct {
	From       string        `json:"from"`
	To         string        `json:"to"`
	WeekNumber *int          `json:"week_number,omitempty"`
	Days       []DayResponse `json:"days"`
}

func entryResponse(e schedule.Entry) EntryResponse {
	return EntryResponse{
		LessonID:   e.Lesson.ID,
		ClassID:    e.Class.ID,
		ClassLabel: e.Class.Label(),
		Number:     e.Lesson.Number,
		Name:       e.Lesson.Name,
		Title:      e.Lesson.Title(),
		Date:       models.FormatDate(e.Date),
		Anchored:   e.Anchored,
	}
}

func dayResponse(date time.Time, entries []schedule.Entry, cfg *models.SchoolConfig) DayResponse {
	resp := DayResponse{Date: models.FormatDate(date), Entries: make([]EntryResponse, 0, len(entries))}
	if n, ok := schedule.SchoolWeek(date, cfg); ok {
		resp.WeekNumber = &n
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryResponse(e))
	}
	return resp
}

func rangeResponse(idx *schedule.Index, from, to time.Time, cfg *models.SchoolConfig) RangeResponse {
	days := idx.Between(from, to)
	resp := RangeResponse{
		From: models.FormatDate(from),
		To:   models.FormatDate(to),
		Days: make([]DayResponse, 0, len(days)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, dayResponse(d.Date, d.Entries, cfg))
	}
	return resp
}

// DaySchedule returns every lesson scheduled on {date}.
func DaySchedule(svc *schedule.Service, schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := parseDateParam(w, mux.Vars(r)["date"], "date")
		if !ok {
			return
		}

		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}
		cfg, err := schools.Get(r.Context())
		if err != nil {
			writeStoreError(w, err, "school settings")
			return
		}

		writeJSON(w, http.StatusOK, dayResponse(date, idx.LessonsOn(date), cfg))
	}
}

// WeekSchedule returns Monday through Friday of the week containing {date}.
func WeekSchedule(svc *schedule.Service, schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, ok := parseDateParam(w, mux.Vars(r)["date"], "date")
		if !ok {
			return
		}

		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}
		cfg, err := schools.Get(r.Context())
		if err != nil {
			writeStoreError(w, err, "school settings")
			return
		}

		monday := schedule.StartOfWeek(date)
		resp := rangeResponse(idx, monday, monday.AddDate(0, 0, 4), cfg)
		if n, ok := schedule.SchoolWeek(monday, cfg); ok {
			resp.WeekNumber = &n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// MonthSchedule returns every day of {year}/{month}.
func MonthSchedule(svc *schedule.Service, schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		year, yerr := strconv.Atoi(vars["year"])
		month, merr := strconv.Atoi(vars["month"])
		if yerr != nil || merr != nil || month < 1 || month > 12 || year < 1 || year > 9999 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid year or month")
			return
		}

		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}
		cfg, err := schools.Get(r.Context())
		if err != nil {
			writeStoreError(w, err, "school settings")
			return
		}

		first := models.Date(year, time.Month(month), 1)
		writeJSON(w, http.StatusOK, rangeResponse(idx, first, first.AddDate(0, 1, -1), cfg))
	}
}

// LessonSchedule returns where one lesson landed.
func LessonSchedule(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}

		e, ok := idx.Lookup(id)
		if !ok {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Lesson is not scheduled")
			return
		}
		writeJSON(w, http.StatusOK, entryResponse(e))
	}
}

// SearchSchedule finds the first lesson whose name contains ?q and returns
// its scheduled date. A match that has no date is reported as not_scheduled
// rather than skipped.
func SearchSchedule(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}

		m, ok := idx.FindByNameSubstring(r.URL.Query().Get("q"))
		if !ok {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No lesson matches")
			return
		}
		if !m.Scheduled {
			middleware.WriteErrorWithDetails(w, http.StatusNotFound, middleware.ErrNotScheduled,
				"Lesson not found in calendar", map[string]any{
					"lesson_id": m.Entry.Lesson.ID,
					"class_id":  m.Entry.Lesson.ClassSubjectID,
					"name":      m.Entry.Lesson.Name,
				})
			return
		}
		writeJSON(w, http.StatusOK, entryResponse(m.Entry))
	}
}

// WeekNumber labels ?date with its week counted from ?start, or from the
// school start date when start is omitted.
func WeekNumber(schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		date, ok := parseDateParam(w, q.Get("date"), "date")
		if !ok {
			return
		}

		var start time.Time
		if v := q.Get("start"); v != "" {
			if start, ok = parseDateParam(w, v, "start"); !ok {
				return
			}
		} else {
			cfg, err := schools.Get(r.Context())
			if err != nil {
				writeStoreError(w, err, "school settings")
				return
			}
			if cfg.StartDate == nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "start is required when no school start date is set")
				return
			}
			start = *cfg.StartDate
		}

		resp := map[string]any{"date": models.FormatDate(date), "week_number": nil}
		if n, ok := schedule.WeekNumber(date, start); ok {
			resp["week_number"] = n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ExportICS downloads the schedule, or one class's part of it, as iCalendar.
func ExportICS(svc *schedule.Service, schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}

		assignments := idx.Assignments()
		if v := r.URL.Query().Get("class_id"); v != "" {
			classID, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid class_id")
				return
			}
			assignments = idx.ForClass(classID)
		}

		name := "Lesson Plan"
		if cfg, err := schools.Get(r.Context()); err == nil && cfg.SchoolName != "" {
			name = cfg.SchoolName + " Lesson Plan"
		}

		var buf bytes.Buffer
		if err := calendar.WriteICS(&buf, name, assignments, time.Now()); err != nil {
			writeStoreError(w, err, "calendar export")
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=lesson_plan_%s.ics", time.Now().Format("20060102")))
		w.Write(buf.Bytes())
	}
}
