package handlers

import (
	"net/http"
	"time"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Calendar event request/response types

type EventRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	EventType string `json:"event_type" validate:"required,max=200"`
}

type EventResponse struct {
	ID        int64  `json:"id"`
	Date      string `json:"date"`
	EventType string `json:"event_type"`
}

type EventTypeRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// ListEvents returns calendar events, optionally limited to [from, to].
func ListEvents(cal *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var events []models.CalendarEvent
		var err error
		if q.Get("from") != "" || q.Get("to") != "" {
			from, to := time.Time{}, models.Date(9999, time.December, 31)
			var ok bool
			if v := q.Get("from"); v != "" {
				if from, ok = parseDateParam(w, v, "from"); !ok {
					return
				}
			}
			if v := q.Get("to"); v != "" {
				if to, ok = parseDateParam(w, v, "to"); !ok {
					return
				}
			}
			events, err = cal.ListEventsBetween(r.Context(), from, to)
		} else {
			events, err = cal.ListEvents(r.Context())
		}
		if err != nil {
			writeStoreError(w, err, "events")
			return
		}

		resp := make([]EventResponse, 0, len(events))
		for _, ev := range events {
			resp = append(resp, EventResponse{ID: ev.ID, Date: models.FormatDate(ev.Date), EventType: ev.EventType})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// AddEvent puts a labeled event on the calendar. A label that matches a
// class marks that class's start; any other label blocks the date.
func AddEvent(cal *storage.CalendarRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EventRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}
		date, ok := parseDateParam(w, req.Date, "date")
		if !ok {
			return
		}

		ev := models.CalendarEvent{Date: date, EventType: req.EventType}
		if err := cal.AddEvent(r.Context(), &ev); err != nil {
			writeStoreError(w, err, "event")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusCreated, EventResponse{ID: ev.ID, Date: req.Date, EventType: ev.EventType})
	}
}

// DeleteEvents removes one event of ?type on ?date, or every event on ?date
// when no type is given.
func DeleteEvents(cal *storage.CalendarRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("date") == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "date is required")
			return
		}
		date, ok := parseDateParam(w, q.Get("date"), "date")
		if !ok {
			return
		}

		removed := int64(1)
		var err error
		if eventType := q.Get("type"); eventType != "" {
			err = cal.RemoveEvent(r.Context(), date, eventType)
		} else {
			removed, err = cal.RemoveAllOn(r.Context(), date)
		}
		if err != nil {
			writeStoreError(w, err, "event")
			return
		}
		if removed > 0 {
			svc.Invalidate()
		}

		writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
	}
}

// ListEventTypes returns the labeled colors for calendar events.
func ListEventTypes(cal *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := cal.ListEventTypes(r.Context())
		if err != nil {
			writeStoreError(w, err, "event types")
			return
		}
		if types == nil {
			types = []models.EventType{}
		}
		writeJSON(w, http.StatusOK, types)
	}
}

// CreateEventType adds an event type.
func CreateEventType(cal *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EventTypeRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		et := models.EventType{Name: req.Name, Color: req.Color}
		if err := cal.CreateEventType(r.Context(), &et); err != nil {
			writeStoreError(w, err, "event type")
			return
		}
		writeJSON(w, http.StatusCreated, et)
	}
}

// UpdateEventType renames or recolors an event type. Renaming relabels its
// events, which can change what blocks the schedule.
func UpdateEventType(cal *storage.CalendarRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req EventTypeRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		et := models.EventType{ID: id, Name: req.Name, Color: req.Color}
		if err := cal.UpdateEventType(r.Context(), &et); err != nil {
			writeStoreError(w, err, "event type")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusOK, et)
	}
}

// DeleteEventType removes an event type. Existing events keep their label.
func DeleteEventType(cal *storage.CalendarRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := cal.DeleteEventType(r.Context(), id); err != nil {
			writeStoreError(w, err, "event type")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
