package calendar

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
	"github.com/lesson-planner/backend/internal/websocket"
)

// SchedulerConfig holds the cron specs for the background jobs.
type SchedulerConfig struct {
	DefaultIntervalMin int
	ReminderSpec       string
	RefreshSpec        string
	Location           *time.Location
}

// Scheduler runs feed syncs, material reminders and index refreshes.
type Scheduler struct {
	cron          *cron.Cron
	importService *ImportService
	feedRepo      *storage.FeedRepository
	rosterRepo    *storage.RosterRepository
	schedule      *schedule.Service
	broadcaster   *websocket.EventBroadcaster
	cfg           SchedulerConfig

	// Track jobs per feed
	jobs   map[string]cron.EntryID
	jobsMu sync.RWMutex
}

// NewScheduler creates a new background job scheduler.
func NewScheduler(
	importService *ImportService,
	feedRepo *storage.FeedRepository,
	rosterRepo *storage.RosterRepository,
	svc *schedule.Service,
	hub *websocket.Hub,
	cfg SchedulerConfig,
) *Scheduler {
	if cfg.DefaultIntervalMin <= 0 {
		cfg.DefaultIntervalMin = 1440
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:          cron.New(cron.WithSeconds(), cron.WithLocation(cfg.Location)),
		importService: importService,
		feedRepo:      feedRepo,
		rosterRepo:    rosterRepo,
		schedule:      svc,
		broadcaster:   broadcaster,
		cfg:           cfg,
		jobs:          make(map[string]cron.EntryID),
	}
}

// Start loads enabled feeds, registers the fixed jobs and starts the cron.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Println("Starting background scheduler...")

	feeds, err := s.feedRepo.ListEnabled(ctx)
	if err != nil {
		return err
	}

	for _, feed := range feeds {
		s.ScheduleFeed(feed)
	}

	if s.cfg.ReminderSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReminderSpec, func() {
			s.SendReminders(context.Background())
		}); err != nil {
			return err
		}
	}

	// Refresh picks up feeds changed elsewhere and rebuilds a stale index
	if s.cfg.RefreshSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.RefreshSpec, func() {
			s.refresh(context.Background())
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Printf("Background scheduler started with %d feeds", len(feeds))

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	log.Println("Stopping background scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Background scheduler stopped")
}

// ScheduleFeed adds or updates a feed's sync job.
func (s *Scheduler) ScheduleFeed(feed models.HolidayFeed) {
	if !feed.Enabled {
		s.UnscheduleFeed(feed.ID)
		return
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if existingID, exists := s.jobs[feed.ID]; exists {
		s.cron.Remove(existingID)
		delete(s.jobs, feed.ID)
	}

	minutes := feed.SyncIntervalMin
	if minutes <= 0 {
		minutes = s.cfg.DefaultIntervalMin
	}

	entryID, err := s.cron.AddFunc(minutesToCronSpec(minutes), func() {
		s.syncFeed(context.Background(), feed.ID, feed.Name)
	})
	if err != nil {
		log.Printf("Failed to schedule feed %s: %v", feed.ID, err)
		return
	}

	s.jobs[feed.ID] = entryID
	log.Printf("Scheduled feed %s (%s) every %d minutes", feed.ID, feed.Name, minutes)
}

// UnscheduleFeed removes a feed's sync job.
func (s *Scheduler) UnscheduleFeed(feedID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if entryID, exists := s.jobs[feedID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, feedID)
		log.Printf("Unscheduled feed %s", feedID)
	}
}

// TriggerSync runs a feed import immediately in the background.
func (s *Scheduler) TriggerSync(feedID string) {
	go func() {
		ctx := context.Background()
		feed, err := s.feedRepo.GetByID(ctx, feedID)
		if err != nil || feed == nil {
			log.Printf("Feed not found for sync: %s", feedID)
			return
		}
		s.syncFeed(ctx, feed.ID, feed.Name)
	}()
}

func (s *Scheduler) syncFeed(ctx context.Context, feedID, feedName string) {
	log.Printf("Syncing feed: %s (%s)", feedID, feedName)

	result, err := s.importService.SyncFeed(ctx, feedID)
	if err != nil {
		log.Printf("Feed sync failed for %s: %v", feedID, err)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastFeedSyncError(feedID, feedName, err)
		}
		return
	}

	log.Printf("Feed sync completed for %s: %d events, %d dates added, %d already present",
		feedID, result.EventsFound, result.DatesAdded, result.DatesExisting)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastFeedSyncCompleted(*result)
	}
}

// SendReminders pushes every unacquired material due today or earlier.
func (s *Scheduler) SendReminders(ctx context.Context) int {
	today := models.Day(time.Now().In(s.cfg.Location))

	due, err := s.rosterRepo.ListDue(ctx, today)
	if err != nil {
		log.Printf("Failed to list due materials: %v", err)
		return 0
	}
	if len(due) == 0 || s.broadcaster == nil {
		return len(due)
	}

	idx, err := s.schedule.Index(ctx)
	if err != nil {
		log.Printf("Sending reminders without lesson dates: %v", err)
	}

	for _, m := range due {
		lessonDate := ""
		if idx != nil {
			if d, ok := idx.DateOf(m.LessonID); ok {
				lessonDate = models.FormatDate(d)
			}
		}
		s.broadcaster.BroadcastMaterialReminder(m, lessonDate)
	}

	log.Printf("Sent %d material reminders", len(due))
	return len(due)
}

func (s *Scheduler) refresh(ctx context.Context) {
	s.refreshFeeds(ctx)

	if s.schedule.Stale() {
		if _, err := s.schedule.Index(ctx); err != nil {
			log.Printf("Failed to refresh schedule: %v", err)
		}
	}
}

// refreshFeeds reloads feed jobs from the database.
func (s *Scheduler) refreshFeeds(ctx context.Context) {
	feeds, err := s.feedRepo.ListEnabled(ctx)
	if err != nil {
		log.Printf("Failed to refresh feed schedules: %v", err)
		return
	}

	currentIDs := make(map[string]bool)
	for _, feed := range feeds {
		currentIDs[feed.ID] = true
		s.jobsMu.RLock()
		_, scheduled := s.jobs[feed.ID]
		s.jobsMu.RUnlock()
		if !scheduled {
			s.ScheduleFeed(feed)
		}
	}

	s.jobsMu.Lock()
	for feedID, entryID := range s.jobs {
		if !currentIDs[feedID] {
			s.cron.Remove(entryID)
			delete(s.jobs, feedID)
			log.Printf("Removed schedule for feed %s (no longer enabled)", feedID)
		}
	}
	s.jobsMu.Unlock()
}

// minutesToCronSpec converts minutes to an @every spec.
func minutesToCronSpec(minutes int) string {
	if minutes <= 0 {
		minutes = 1440
	}
	return "@every " + (time.Duration(minutes) * time.Minute).String()
}

// NextRun returns the next scheduled sync for a feed.
func (s *Scheduler) NextRun(feedID string) *time.Time {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	if entryID, exists := s.jobs[feedID]; exists {
		entry := s.cron.Entry(entryID)
		if !entry.Next.IsZero() {
			return &entry.Next
		}
	}
	return nil
}
