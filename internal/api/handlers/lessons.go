package handlers

import (
	"context"
	"net/http"

	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/sequence"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Lesson request/response types

type LessonRequest struct {
	Number            string   `json:"number" validate:"max=32"`
	Name              string   `json:"name" validate:"max=200"`
	AnchorDate        *string  `json:"anchor_date" validate:"omitempty,datetime=2006-01-02"`
	LearningObjective string   `json:"learning_objective"`
	LessonType        string   `json:"lesson_type" validate:"max=100"`
	Status            string   `json:"status" validate:"max=100"`
	ReviewStatus      string   `json:"review_status" validate:"omitempty,oneof=Pending Approved"`
	PlanNotes         string   `json:"plan_notes"`
	PostNotes         string   `json:"post_notes"`
	Materials         []string `json:"materials" validate:"dive,max=200"`
	Attachments       []string `json:"attachments" validate:"dive,max=500"`
}

type CreateLessonRequest struct {
	LessonRequest
	Position *int `json:"position" validate:"omitempty,min=0"`
}

type RangeRequest struct {
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
}

type OrderRequest struct {
	IDs []int64 `json:"ids"`
}

type AnchorRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type MoveRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type MergeRequest struct {
	WithID int64 `json:"with_id" validate:"required,gt=0"`
}

type LessonResponse struct {
	ID                int64    `json:"id"`
	ClassSubjectID    int64    `json:"class_subject_id"`
	Sequence          int      `json:"sequence"`
	Number            string   `json:"number"`
	Name              string   `json:"name"`
	AnchorDate        *string  `json:"anchor_date"`
	ScheduledDate     *string  `json:"scheduled_date"`
	LearningObjective string   `json:"learning_objective"`
	LessonType        string   `json:"lesson_type"`
	Status            string   `json:"status"`
	ReviewStatus      string   `json:"review_status"`
	PlanNotes         string   `json:"plan_notes"`
	PostNotes         string   `json:"post_notes"`
	Materials         []string `json:"materials"`
	Attachments       []string `json:"attachments"`
}

func lessonResponse(l models.Lesson, idx *schedule.Index) LessonResponse {
	resp := LessonResponse{
		ID:                l.ID,
		ClassSubjectID:    l.ClassSubjectID,
		Sequence:          l.Sequence,
		Number:            l.Number,
		Name:              l.Name,
		AnchorDate:        dateString(l.AnchorDate),
		LearningObjective: l.LearningObjective,
		LessonType:        string(l.Type),
		Status:            string(l.Status),
		ReviewStatus:      string(l.ReviewStatus),
		PlanNotes:         l.PlanNotes,
		PostNotes:         l.PostNotes,
		Materials:         l.Materials,
		Attachments:       l.Attachments,
	}
	if resp.Materials == nil {
		resp.Materials = []string{}
	}
	if resp.Attachments == nil {
		resp.Attachments = []string{}
	}
	if idx != nil {
		if d, ok := idx.DateOf(l.ID); ok {
			resp.ScheduledDate = dateString(&d)
		}
	}
	return resp
}

func (req LessonRequest) apply(l *models.Lesson) {
	l.Number = req.Number
	l.Name = req.Name
	l.AnchorDate = optionalDate(req.AnchorDate)
	l.LearningObjective = req.LearningObjective
	l.Type = models.LessonType(req.LessonType)
	l.Status = models.LessonStatus(req.Status)
	l.ReviewStatus = models.ReviewStatus(req.ReviewStatus)
	l.PlanNotes = req.PlanNotes
	l.PostNotes = req.PostNotes
	l.Materials = req.Materials
	l.Attachments = req.Attachments
}

// lessonsWithDates renders lessons with their scheduled dates from a fresh index.
func lessonsWithDates(ctx context.Context, svc *schedule.Service, lessons []models.Lesson) ([]LessonResponse, error) {
	idx, err := svc.Index(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]LessonResponse, 0, len(lessons))
	for _, l := range lessons {
		resp = append(resp, lessonResponse(l, idx))
	}
	return resp, nil
}

// ListLessons returns a class's lessons in sequence order.
func ListLessons(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		list, err := lessons.ListByClass(r.Context(), classID)
		if err != nil {
			writeStoreError(w, err, "lessons")
			return
		}

		resp, err := lessonsWithDates(r.Context(), svc, list)
		if err != nil {
			writeStoreError(w, err, "lessons")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// CreateLesson inserts one lesson at position, or at the end.
func CreateLesson(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req CreateLessonRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		position := -1
		if req.Position != nil {
			position = *req.Position
		}

		l := models.Lesson{ClassSubjectID: classID}
		req.LessonRequest.apply(&l)
		if err := lessons.Create(r.Context(), &l, position); err != nil {
			writeStoreError(w, err, "class")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusCreated, lessonResponse(l, nil))
	}
}

// InsertLessonRange bulk-inserts numbered lessons, e.g. 3.1 through 3.5.
func InsertLessonRange(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req RangeRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		numbers, err := sequence.ParseRange(req.Start, req.End)
		if err != nil {
			writeStoreError(w, err, "lesson range")
			return
		}

		position := -1
		if req.Position != nil {
			position = *req.Position
		}

		created, err := lessons.InsertAt(r.Context(), classID, position, numbers)
		if err != nil {
			writeStoreError(w, err, "class")
			return
		}
		svc.Invalidate()

		resp := make([]LessonResponse, 0, len(created))
		for _, l := range created {
			resp = append(resp, lessonResponse(l, nil))
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// ReorderLessons renumbers a class from a complete list of its lesson IDs.
func ReorderLessons(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req OrderRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		if err := lessons.Reorder(r.Context(), classID, req.IDs); err != nil {
			writeStoreError(w, err, "lesson order")
			return
		}
		svc.Invalidate()

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteLessons removes the listed lessons of a class, or all of them when
// the body is empty or lists none.
func DeleteLessons(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		classID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req OrderRequest
		if !decodeJSON(w, r, &req, true) {
			return
		}

		n, err := lessons.DeleteMany(r.Context(), classID, req.IDs)
		if err != nil {
			writeStoreError(w, err, "lessons")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
	}
}

// GetLesson returns one lesson with its scheduled date.
func GetLesson(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		l, err := lessons.GetByID(r.Context(), id)
		if err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		if l == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Lesson not found")
			return
		}

		resp, err := lessonsWithDates(r.Context(), svc, []models.Lesson{*l})
		if err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		writeJSON(w, http.StatusOK, resp[0])
	}
}

// UpdateLesson replaces a lesson's content. Its position is unchanged.
func UpdateLesson(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req LessonRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		ctx := r.Context()
		l, err := lessons.GetByID(ctx, id)
		if err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		if l == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Lesson not found")
			return
		}

		req.apply(l)
		if err := lessons.Update(ctx, l); err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusOK, lessonResponse(*l, nil))
	}
}

// DeleteLesson removes a lesson and closes the gap in its class's sequence.
func DeleteLesson(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := lessons.Delete(r.Context(), id); err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		svc.Invalidate()

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetAnchor pins a lesson to a date.
func SetAnchor(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req AnchorRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}
		date, ok := parseDateParam(w, req.Date, "date")
		if !ok {
			return
		}

		if err := lessons.SetAnchor(r.Context(), id, &date); err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		svc.Invalidate()

		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearAnchor returns a lesson to automatic scheduling.
func ClearAnchor(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := lessons.SetAnchor(r.Context(), id, nil); err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		svc.Invalidate()

		w.WriteHeader(http.StatusNoContent)
	}
}

// MoveLesson swaps a lesson with its neighbor above or below.
func MoveLesson(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req MoveRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		delta := 1
		if req.Direction == "up" {
			delta = -1
		}

		moved, err := lessons.Move(r.Context(), id, delta)
		if err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		if moved {
			svc.Invalidate()
		}

		writeJSON(w, http.StatusOK, map[string]bool{"moved": moved})
	}
}

// MergeLessons folds two lessons of a class into the earlier one.
func MergeLessons(lessons *storage.LessonRepository, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req MergeRequest
		if !decodeJSON(w, r, &req, false) {
			return
		}

		merged, err := lessons.Merge(r.Context(), id, req.WithID)
		if err != nil {
			writeStoreError(w, err, "lesson")
			return
		}
		svc.Invalidate()

		writeJSON(w, http.StatusOK, lessonResponse(*merged, nil))
	}
}
