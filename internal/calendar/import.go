package calendar

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
)

// Invalidator is told when calendar data changed under the schedule.
type Invalidator interface {
	Invalidate()
}

// ImportService pulls holiday feeds into the calendar.
type ImportService struct {
	feedRepo     *storage.FeedRepository
	calendarRepo *storage.CalendarRepository
	parser       *Parser
	invalidator  Invalidator
}

// NewImportService creates a new feed import service.
func NewImportService(
	feedRepo *storage.FeedRepository,
	calendarRepo *storage.CalendarRepository,
	invalidator Invalidator,
) *ImportService {
	return &ImportService{
		feedRepo:     feedRepo,
		calendarRepo: calendarRepo,
		parser:       NewParser(),
		invalidator:  invalidator,
	}
}

// SyncFeed imports one feed and returns the result.
func (s *ImportService) SyncFeed(ctx context.Context, feedID string) (*models.FeedSyncResult, error) {
	feed, err := s.feedRepo.GetByID(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("getting feed: %w", err)
	}
	if feed == nil {
		return nil, fmt.Errorf("feed %s: %w", feedID, storage.ErrNotFound)
	}

	result := &models.FeedSyncResult{
		FeedID:   feed.ID,
		FeedName: feed.Name,
		SyncedAt: time.Now().UTC(),
	}

	if err := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusSyncing, nil); err != nil {
		log.Printf("Failed to update sync status: %v", err)
	}

	events, err := s.parser.FetchAndParse(ctx, feed.URL)
	if err != nil {
		s.fail(ctx, feed.ID, err)
		result.Error = err
		return result, err
	}

	if err := s.importEvents(ctx, feed, AllDayEvents(events), result); err != nil {
		s.fail(ctx, feed.ID, err)
		result.Error = err
		return result, err
	}

	if err := s.feedRepo.UpdateSyncStatus(ctx, feed.ID, models.SyncStatusSuccess, nil); err != nil {
		log.Printf("Failed to update sync status: %v", err)
	}

	return result, nil
}

// MaxEventDays bounds how many days one feed event may block. Longer events
// are skipped rather than flooding the calendar.
const MaxEventDays = 366

// importEvents adds each day of each event as a calendar event of the
// feed's type, skipping days that already carry that type. The import is
// all or nothing.
func (s *ImportService) importEvents(ctx context.Context, feed *models.HolidayFeed, events []models.FeedEvent, result *models.FeedSyncResult) error {
	result.EventsFound = len(events)

	var days []time.Time
	for _, ev := range events {
		if n := ev.DayCount(); n > MaxEventDays {
			log.Printf("Feed %s: skipping %q spanning %d days", feed.Name, ev.Summary, n)
			result.EventsSkipped++
			continue
		}
		days = append(days, ev.Days()...)
	}

	added, existing, err := s.calendarRepo.ImportDays(ctx, feed.EventType, days)
	if err != nil {
		return err
	}
	result.DatesAdded, result.DatesExisting = added, existing

	if added > 0 && s.invalidator != nil {
		s.invalidator.Invalidate()
	}

	return nil
}

func (s *ImportService) fail(ctx context.Context, feedID string, err error) {
	msg := err.Error()
	if uerr := s.feedRepo.UpdateSyncStatus(ctx, feedID, models.SyncStatusError, &msg); uerr != nil {
		log.Printf("Failed to update sync status: %v", uerr)
	}
}
