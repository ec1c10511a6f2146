package handlers

import (
	"net/http"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Class request/response types

type ClassRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Section   *string `json:"section" validate:"omitempty,max=100"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type StartDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type ClassResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Section   *string `json:"section,omitempty"`
	Label     string  `json:"label"`
	StartDate *string `json:"start_date"`
}

func classResponse(cs models.ClassSubject) ClassResponse {
	return ClassResponse{
		ID:        cs.ID,
		Name:      cs.Name,
		Section:   cs.Section,
		Label:     cs.Label(),
		StartDate: dateString(cs.StartDate),
	}
}

// ListClasses returns all classes.
func ListClasses(classes *storage.ClassRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := classes.List(r.Context())
		if err != nil {
			writeStoreError(w, err, "classes")
			return
		}

		resp := make([]ClassResponse, 0, len(list))
		for _, cs := range list {
			resp = append(resp, classResponse(cs))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CreateClass adds a class, writing its start event when a start date is given.
func CreateClass(classes *storage.ClassRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClassRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		cs := models.ClassSubject{Name: req.Name, Section: req.Section, StartDate: optionalDate(req.StartDate)}
		if err := classes.Create(r.Context(), &cs); err != nil {
			writeStoreError(w, err, "class")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusCreated, classResponse(cs))
	}
}

// GetClass returns a single class by ID.
func GetClass(classes *storage.ClassRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		cs, err := classes.GetByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "class")
			return
		}
		if cs == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Class not found")
			return
		}

		writeJSON(w, http.StatusOK, classResponse(*cs))
	}
}

// UpdateClass renames a class and sets or clears its start date. Its calendar
// events follow the new label, and the start event follows the new date.
func UpdateClass(classes *storage.ClassRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req ClassRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		cs := models.ClassSubject{ID: id, Name: req.Name, Section: req.Section, StartDate: optionalDate(req.StartDate)}
		if err := classes.Update(r.Context(), &cs); err != nil {
			writeStoreError(w, err, "class")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusOK, classResponse(cs))
	}
}

// DeleteClass removes a class with its lessons and start events.
func DeleteClass(classes *storage.ClassRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := classes.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err, "class")
			return
		}
		svc.Invalidate()

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetClassStartDate moves the class's start event, creating it if needed.
func SetClassStartDate(classes *storage.ClassRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req StartDateRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}
		date, ok := parseDateParam(w, req.Date, "date")
		if !ok {
			return
		}

		if err := classes.SetStartDate(r.Context(), id, date); err != nil {
			writeStoreError(w, err, "class")
			return
		}
		svc.Invalidate()

		cs, err := classes.GetByID(r.Context(), id)
		if err != nil || cs == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, classResponse(*cs))
	}
}
