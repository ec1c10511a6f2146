package handlers

import (
	"net/http"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// School request/response types

type SchoolRequest struct {
	SchoolName   string  `json:"school_name" validate:"max=200"`
	TeacherName  string  `json:"teacher_name" validate:"max=200"`
	StartDate    *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	LogoPath     *string `json:"logo_path"`
	SharedRoster bool    `json:"shared_roster"`
}

type SchoolResponse struct {
	SchoolName   string  `json:"school_name"`
	TeacherName  string  `json:"teacher_name"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	LogoPath     *string `json:"logo_path"`
	SharedRoster bool    `json:"shared_roster"`
}

func schoolResponse(cfg *models.SchoolConfig) SchoolResponse {
	return SchoolResponse{
		SchoolName:   cfg.SchoolName,
		TeacherName:  cfg.TeacherName,
		StartDate:    dateString(cfg.StartDate),
		EndDate:      dateString(cfg.EndDate),
		LogoPath:     cfg.LogoPath,
		SharedRoster: cfg.SharedRoster,
	}
}

// GetSchool returns the school configuration.
func GetSchool(schools *storage.SchoolRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := schools.Get(r.Context())
		if err != nil {
			writeStoreError(w, err, "school settings")
			return
		}
		writeJSON(w, http.StatusOK, schoolResponse(cfg))
	}
}

// UpdateSchool replaces the school configuration. The school start date is
// the fallback base date for every class, so the schedule is invalidated.
func UpdateSchool(schools *storage.SchoolRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SchoolRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		cfg := &models.SchoolConfig{
			SchoolName:   req.SchoolName,
			TeacherName:  req.TeacherName,
			StartDate:    optionalDate(req.StartDate),
			EndDate:      optionalDate(req.EndDate),
			LogoPath:     req.LogoPath,
			SharedRoster: req.SharedRoster,
		}
		if cfg.StartDate != nil && cfg.EndDate != nil && cfg.EndDate.Before(*cfg.StartDate) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "end_date must not be before start_date")
			return
		}

		if err := schools.Update(r.Context(), cfg); err != nil {
			writeStoreError(w, err, "school settings")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusOK, schoolResponse(cfg))
	}
}
