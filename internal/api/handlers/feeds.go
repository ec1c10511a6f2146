package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/calendar"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Feed request types

type FeedRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	URL             string `json:"url" validate:"required,url"`
	EventType       string `json:"event_type" validate:"max=200"`
	SyncIntervalMin int    `json:"sync_interval_min" validate:"omitempty,min=5"`
	Enabled         *bool  `json:"enabled"`
}

func (req FeedRequest) apply(f *models.HolidayFeed) {
	f.Name = req.Name
	f.URL = req.URL
	f.EventType = req.EventType
	if f.EventType == "" {
		f.EventType = models.EventTypeHoliday
	}
	f.SyncIntervalMin = req.SyncIntervalMin
	if f.SyncIntervalMin == 0 {
		f.SyncIntervalMin = 1440
	}
	f.Enabled = req.Enabled == nil || *req.Enabled
}

// FeedResponse is a feed plus its next scheduled sync, when it has one.
type FeedResponse struct {
	models.HolidayFeed
	NextRun *time.Time `json:"next_run,omitempty"`
}

func feedResponse(feed models.HolidayFeed, scheduler *calendar.Scheduler) FeedResponse {
	resp := FeedResponse{HolidayFeed: feed}
	if scheduler != nil {
		resp.NextRun = scheduler.NextRun(feed.ID)
	}
	return resp
}

// ListFeeds returns all holiday feeds.
func ListFeeds(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := feeds.List(r.Context())
		if err != nil {
			writeStoreError(w, err, "feeds")
			return
		}

		resp := make([]FeedResponse, 0, len(list))
		for _, f := range list {
			resp = append(resp, feedResponse(f, scheduler))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CreateFeed adds a holiday feed and schedules its sync.
func CreateFeed(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		var feed models.HolidayFeed
		req.apply(&feed)
		if err := feeds.Create(r.Context(), &feed); err != nil {
			writeStoreError(w, err, "feed")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleFeed(feed)
		}

		writeJSON(w, http.StatusCreated, feedResponse(feed, scheduler))
	}
}

// GetFeed returns a single feed by ID.
func GetFeed(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := feeds.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeStoreError(w, err, "feed")
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}
		writeJSON(w, http.StatusOK, feedResponse(*feed, scheduler))
	}
}

// UpdateFeed changes a feed's settings and reschedules it.
func UpdateFeed(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FeedRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		ctx := r.Context()
		feed, err := feeds.GetByID(ctx, mux.Vars(r)["id"])
		if err != nil {
			writeStoreError(w, err, "feed")
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}

		req.apply(feed)
		if err := feeds.Update(ctx, feed); err != nil {
			writeStoreError(w, err, "feed")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleFeed(*feed)
		}

		writeJSON(w, http.StatusOK, feedResponse(*feed, scheduler))
	}
}

// DeleteFeed removes a feed. Dates it imported stay on the calendar.
func DeleteFeed(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := feeds.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err, "feed")
			return
		}

		if scheduler != nil {
			scheduler.UnscheduleFeed(id)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SyncFeed imports a feed now. With a scheduler the import runs in the
// background and its outcome is pushed over WebSocket; otherwise it runs
// inline and the result is returned.
func SyncFeed(feeds *storage.FeedRepository, importer *calendar.ImportService, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		feed, err := feeds.GetByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "feed")
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}

		if scheduler != nil {
			scheduler.TriggerSync(id)
			writeJSON(w, http.StatusAccepted, map[string]string{"status": models.SyncStatusSyncing})
			return
		}

		result, err := importer.SyncFeed(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeStoreError(w, err, "feed")
				return
			}
			middleware.WriteError(w, http.StatusBadGateway, "sync_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
