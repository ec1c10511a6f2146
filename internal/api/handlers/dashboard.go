package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Dashboard response types

type ClassProgress struct {
	ClassID  int64  `json:"class_id"`
	Label    string `json:"label"`
	Total    int    `json:"total"`
	Approved int    `json:"approved"`
}

type ClassPerformance struct {
	ClassID int64  `json:"class_id"`
	Label   string `json:"label"`
	models.PerformanceTally
}

type DashboardResponse struct {
	Year        int                `json:"year"`
	EventCounts map[string]int     `json:"event_counts"`
	Progress    []ClassProgress    `json:"progress"`
	Performance []ClassPerformance `json:"performance"`
}

// Dashboard summarizes a calendar year of events plus plan review progress
// and performance ratings per class. Classes without lessons are omitted
// from progress.
func Dashboard(
	classes *storage.ClassRepository,
	lessons *storage.LessonRepository,
	cal *storage.CalendarRepository,
	roster *storage.RosterRepository,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		year := time.Now().Year()
		if v := r.URL.Query().Get("year"); v != "" {
			y, err := strconv.Atoi(v)
			if err != nil || y < 1 || y > 9999 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid year")
				return
			}
			year = y
		}

		counts, err := cal.CountByTypeBetween(ctx, models.Date(year, time.January, 1), models.Date(year, time.December, 31))
		if err != nil {
			writeStoreError(w, err, "dashboard")
			return
		}
		classList, err := classes.List(ctx)
		if err != nil {
			writeStoreError(w, err, "dashboard")
			return
		}
		lessonCounts, err := lessons.CountByClass(ctx)
		if err != nil {
			writeStoreError(w, err, "dashboard")
			return
		}
		tallies, err := roster.TallyByClass(ctx)
		if err != nil {
			writeStoreError(w, err, "dashboard")
			return
		}

		resp := DashboardResponse{
			Year:        year,
			EventCounts: counts,
			Progress:    []ClassProgress{},
			Performance: []ClassPerformance{},
		}
		for _, cs := range classList {
			if c, ok := lessonCounts[cs.ID]; ok && c[0] > 0 {
				resp.Progress = append(resp.Progress, ClassProgress{ClassID: cs.ID, Label: cs.Label(), Total: c[0], Approved: c[1]})
			}
			if t, ok := tallies[cs.ID]; ok {
				resp.Performance = append(resp.Performance, ClassPerformance{ClassID: cs.ID, Label: cs.Label(), PerformanceTally: t})
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
