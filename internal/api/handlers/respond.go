package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattn/go-sqlite3"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/sequence"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// decodeJSON reads and validates a request body. It writes the error
// response itself and reports false on failure. An empty body is accepted
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
		return false
	}
	if err := middleware.Validate.Struct(dst); err != nil {
		middleware.WriteValidationError(w, err)
		return false
	}
	return true
}

// writeStoreError maps domain and storage errors to the API error envelope.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	var sqliteErr sqlite3.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, what+" not found")
	case errors.Is(err, schedule.ErrDataUnavailable):
		log.Printf("Schedule unavailable: %v", err)
		middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrDataUnavailable, "Schedule data is unavailable")
	case errors.Is(err, sequence.ErrInvalidRange),
		errors.Is(err, sequence.ErrInvalidOrder),
		errors.Is(err, sequence.ErrMergeMismatch):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, err.Error())
	case errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint:
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, what+" conflicts with an existing record")
	default:
		log.Printf("Error handling %s: %v", what, err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to process "+what)
	}
}

// pathID parses the {name} route variable as a row ID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// parseDateParam parses a YYYY-MM-DD value, writing a 400 on failure.
func parseDateParam(w http.ResponseWriter, value, name string) (time.Time, bool) {
	d, err := models.ParseDate(value)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid "+name+": expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// optionalDate parses an optional validated date field.
func optionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}

func dateString(t *time.Time) *string {
	return models.FormatDatePtr(t)
}
