package handlers

import (
	"net/http"
	"time"

	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Roster, performance and material request/response types

type StudentRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type PerformanceRequest struct {
	RosterEntryID int64  `json:"roster_entry_id" validate:"required,gt=0"`
	Status        string `json:"status" validate:"required,oneof=Green Yellow Red"`
	Notes         string `json:"notes"`
}

type MaterialRequest struct {
	Description  string `json:"description" validate:"required,max=500"`
	ReminderDate string `json:"reminder_date" validate:"required,datetime=2006-01-02"`
}

type AcquiredRequest struct {
	Acquired bool `json:"acquired"`
}

type MaterialResponse struct {
	ID           int64   `json:"id"`
	LessonID     int64   `json:"lesson_id"`
	Description  string  `json:"description"`
	ReminderDate string  `json:"reminder_date"`
	Acquired     bool    `json:"acquired"`
	LessonDate   *string `json:"lesson_date,omitempty"`
}

func materialResponse(m models.MaterialNeeded, idx *schedule.Index) MaterialResponse {
	resp := MaterialResponse{
		ID:           m.ID,
		LessonID:     m.LessonID,
		Description:  m.Description,
		ReminderDate: models.FormatDate(m.ReminderDate),
		Acquired:     m.Acquired,
	}
	if idx != nil {
		if d, ok := idx.DateOf(m.LessonID); ok {
			resp.LessonDate = dateString(&d)
		}
	}
	return resp
}

// ListRoster returns a class's students, or the shared roster when the
// school uses one.
func ListRoster(roster *storage.RosterRepository, schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		cfg, err := schools.Get(r.Context())
		if err != nil {
			writeStoreError(w, err, "school settings")
			return
		}

		entries, err := roster.ListRoster(r.Context(), classID, cfg != nil && cfg.SharedRoster)
		if err != nil {
			writeStoreError(w, err, "roster")
			return
		}
		if entries == nil {
			entries = []models.RosterEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// AddStudent adds a student to a class, or to the shared roster.
func AddStudent(roster *storage.RosterRepository, schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req StudentRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		cfg, err := schools.Get(r.Context())
		if err != nil {
			writeStoreError(w, err, "school settings")
			return
		}

		entry := models.RosterEntry{Name: req.Name}
		if cfg == nil || !cfg.SharedRoster {
			entry.ClassSubjectID = &classID
		}
		if err := roster.AddStudent(r.Context(), &entry); err != nil {
			writeStoreError(w, err, "student")
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

// RemoveStudent deletes a roster entry.
func RemoveStudent(roster *storage.RosterRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := roster.RemoveStudent(r.Context(), id); err != nil {
			writeStoreError(w, err, "student")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GetPerformance returns the ratings recorded for a lesson.
func GetPerformance(roster *storage.RosterRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		perf, err := roster.ListPerformance(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "performance")
			return
		}
		if perf == nil {
			perf = []models.LessonPerformance{}
		}
		writeJSON(w, http.StatusOK, perf)
	}
}

// PutPerformance records or replaces one student's rating for a lesson.
func PutPerformance(roster *storage.RosterRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req PerformanceRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		p := models.LessonPerformance{
			LessonID:      id,
			RosterEntryID: req.RosterEntryID,
			Status:        models.PerformanceStatus(req.Status),
			Notes:         req.Notes,
		}
		if err := roster.UpsertPerformance(r.Context(), &p); err != nil {
			writeStoreError(w, err, "performance")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// ListMaterials returns a lesson's materials.
func ListMaterials(roster *storage.RosterRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		materials, err := roster.ListMaterials(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "materials")
			return
		}

		resp := make([]MaterialResponse, 0, len(materials))
		for _, m := range materials {
			resp = append(resp, materialResponse(m, svc.Current()))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// AddMaterial adds a material reminder to a lesson.
func AddMaterial(roster *storage.RosterRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req MaterialRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}
		reminder, ok := parseDateParam(w, req.ReminderDate, "reminder_date")
		if !ok {
			return
		}

		m := models.MaterialNeeded{LessonID: id, Description: req.Description, ReminderDate: reminder}
		if err := roster.AddMaterial(r.Context(), &m); err != nil {
			writeStoreError(w, err, "material")
			return
		}
		writeJSON(w, http.StatusCreated, materialResponse(m, nil))
	}
}

// SetMaterialAcquired marks a material as gathered or not.
func SetMaterialAcquired(roster *storage.RosterRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req AcquiredRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		if err := roster.SetAcquired(r.Context(), id, req.Acquired); err != nil {
			writeStoreError(w, err, "material")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DueMaterials lists unacquired materials due by ?date (default today).
func DueMaterials(roster *storage.RosterRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := models.Day(time.Now())
		if v := r.URL.Query().Get("date"); v != "" {
			var ok bool
			if date, ok = parseDateParam(w, v, "date"); !ok {
				return
			}
		}

		due, err := roster.ListDue(r.Context(), date)
		if err != nil {
			writeStoreError(w, err, "materials")
			return
		}

		idx, err := svc.Index(r.Context())
		if err != nil {
			writeStoreError(w, err, "schedule")
			return
		}

		resp := make([]MaterialResponse, 0, len(due))
		for _, m := range due {
			resp = append(resp, materialResponse(m, idx))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
