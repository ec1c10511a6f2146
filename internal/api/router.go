// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lesson-planner/backend/internal/api/handlers"
	"github.com/lesson-planner/backend/internal/api/middleware"
	"github.com/lesson-planner/backend/internal/calendar"
	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/websocket"
)

// Services holds the long-lived components the handlers depend on.
// Importer and Scheduler may be nil; feed syncs then run inline or not at all.
type Services struct {
	DB        *storage.DB
	Hub       *websocket.Hub
	Schedule  *schedule.Service
	Importer  *calendar.ImportService
	Scheduler *calendar.Scheduler
	StaticDir string
	Version   string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services) *mux.Router {
	db, hub, svc := s.DB, s.Hub, s.Schedule

	schools := storage.NewSchoolRepository(db)
	classes := storage.NewClassRepository(db)
	lessons := storage.NewLessonRepository(db)
	cal := storage.NewCalendarRepository(db)
	feeds := storage.NewFeedRepository(db)
	roster := storage.NewRosterRepository(db)

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, hub, svc, s.Version)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub, svc)).Methods("GET")

	// School configuration
	api.HandleFunc("/school", handlers.GetSchool(schools)).Methods("GET")
	api.HandleFunc("/school", handlers.UpdateSchool(schools, svc)).Methods("PUT")

	// Schedule reads. Registered before the entity routes so literal
	// segments like "search" never reach an {id} pattern.
	api.HandleFunc("/schedule/day/{date}", handlers.DaySchedule(svc, schools)).Methods("GET")
	api.HandleFunc("/schedule/week/{date}", handlers.WeekSchedule(svc, schools)).Methods("GET")
	api.HandleFunc("/schedule/month/{year:[0-9]+}/{month:[0-9]+}", handlers.MonthSchedule(svc, schools)).Methods("GET")
	api.HandleFunc("/schedule/lessons/{id}", handlers.LessonSchedule(svc)).Methods("GET")
	api.HandleFunc("/schedule/search", handlers.SearchSchedule(svc)).Methods("GET")
	api.HandleFunc("/schedule/week-number", handlers.WeekNumber(schools)).Methods("GET")
	api.HandleFunc("/schedule/export.ics", handlers.ExportICS(svc, schools)).Methods("GET")

	// Class endpoints
	api.HandleFunc("/classes", handlers.ListClasses(classes)).Methods("GET")
	api.HandleFunc("/classes", handlers.CreateClass(classes, svc)).Methods("POST")
	api.HandleFunc("/classes/{id}", handlers.GetClass(classes)).Methods("GET")
	api.HandleFunc("/classes/{id}", handlers.UpdateClass(classes, svc)).Methods("PUT")
	api.HandleFunc("/classes/{id}", handlers.DeleteClass(classes, svc)).Methods("DELETE")
	api.HandleFunc("/classes/{id}/start-date", handlers.SetClassStartDate(classes, svc)).Methods("PUT")

	// Lesson sequence endpoints
	api.HandleFunc("/classes/{id}/lessons", handlers.ListLessons(lessons, svc)).Methods("GET")
	api.HandleFunc("/classes/{id}/lessons", handlers.CreateLesson(lessons, svc)).Methods("POST")
	api.HandleFunc("/classes/{id}/lessons", handlers.DeleteLessons(lessons, svc)).Methods("DELETE")
	api.HandleFunc("/classes/{id}/lessons/range", handlers.InsertLessonRange(lessons, svc)).Methods("POST")
	api.HandleFunc("/classes/{id}/lessons/order", handlers.ReorderLessons(lessons, svc)).Methods("PUT")

	api.HandleFunc("/lessons/{id}", handlers.GetLesson(lessons, svc)).Methods("GET")
	api.HandleFunc("/lessons/{id}", handlers.UpdateLesson(lessons, svc)).Methods("PUT")
	api.HandleFunc("/lessons/{id}", handlers.DeleteLesson(lessons, svc)).Methods("DELETE")
	api.HandleFunc("/lessons/{id}/anchor", handlers.SetAnchor(lessons, svc)).Methods("PUT")
	api.HandleFunc("/lessons/{id}/anchor", handlers.ClearAnchor(lessons, svc)).Methods("DELETE")
	api.HandleFunc("/lessons/{id}/move", handlers.MoveLesson(lessons, svc)).Methods("POST")
	api.HandleFunc("/lessons/{id}/merge", handlers.MergeLessons(lessons, svc)).Methods("POST")

	// Calendar events and event types
	api.HandleFunc("/events", handlers.ListEvents(cal)).Methods("GET")
	api.HandleFunc("/events", handlers.AddEvent(cal, svc)).Methods("POST")
	api.HandleFunc("/events", handlers.DeleteEvents(cal, svc)).Methods("DELETE")
	api.HandleFunc("/event-types", handlers.ListEventTypes(cal)).Methods("GET")
	api.HandleFunc("/event-types", handlers.CreateEventType(cal)).Methods("POST")
	api.HandleFunc("/event-types/{id}", handlers.UpdateEventType(cal, svc)).Methods("PUT")
	api.HandleFunc("/event-types/{id}", handlers.DeleteEventType(cal)).Methods("DELETE")

	// Holiday feed endpoints
	api.HandleFunc("/feeds", handlers.ListFeeds(feeds, s.Scheduler)).Methods("GET")
	api.HandleFunc("/feeds", handlers.CreateFeed(feeds, s.Scheduler)).Methods("POST")
	api.HandleFunc("/feeds/{id}", handlers.GetFeed(feeds, s.Scheduler)).Methods("GET")
	api.HandleFunc("/feeds/{id}", handlers.UpdateFeed(feeds, s.Scheduler)).Methods("PUT")
	api.HandleFunc("/feeds/{id}", handlers.DeleteFeed(feeds, s.Scheduler)).Methods("DELETE")
	api.HandleFunc("/feeds/{id}/sync", handlers.SyncFeed(feeds, s.Importer, s.Scheduler)).Methods("POST")

	// Roster, performance and materials
	api.HandleFunc("/classes/{id}/roster", handlers.ListRoster(roster, schools)).Methods("GET")
	api.HandleFunc("/classes/{id}/roster", handlers.AddStudent(roster, schools)).Methods("POST")
	api.HandleFunc("/roster/{id}", handlers.RemoveStudent(roster)).Methods("DELETE")
	api.HandleFunc("/lessons/{id}/performance", handlers.GetPerformance(roster)).Methods("GET")
	api.HandleFunc("/lessons/{id}/performance", handlers.PutPerformance(roster)).Methods("PUT")
	api.HandleFunc("/lessons/{id}/materials", handlers.ListMaterials(roster, svc)).Methods("GET")
	api.HandleFunc("/lessons/{id}/materials", handlers.AddMaterial(roster)).Methods("POST")
	api.HandleFunc("/materials/due", handlers.DueMaterials(roster, svc)).Methods("GET")
	api.HandleFunc("/materials/{id}/acquired", handlers.SetMaterialAcquired(roster)).Methods("PUT")

	// Dashboard
	api.HandleFunc("/dashboard", handlers.Dashboard(classes, lessons, cal, roster)).Methods("GET")

	// Serve static frontend files
	if s.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.StaticDir)))
	}

	return r
}
