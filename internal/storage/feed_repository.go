package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// FeedRepository provides data access for holiday feed subscriptions.
type FeedRepository struct {
	BaseRepository
}

// NewFeedRepository creates a new holiday feed repository.
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const feedColumns = `
	id, name, url, event_type, sync_interval_min, last_sync_at, sync_status,
	sync_error, enabled, created_at, updated_at`

func scanFeed(s rowScanner) (*models.HolidayFeed, error) {
	f := &models.HolidayFeed{}
	err := s.Scan(
		&f.ID, &f.Name, &f.URL, &f.EventType, &f.SyncIntervalMin,
		&f.LastSyncAt, &f.SyncStatus, &f.SyncError,
		&f.Enabled, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

// Create inserts a new holiday feed.
func (r *FeedRepository) Create(ctx context.Context, f *models.HolidayFeed) error {
	f.ID = GenerateID()
	f.CreatedAt = r.Now()
	f.UpdatedAt = r.Now()
	f.SyncStatus = models.SyncStatusPending
	if f.EventType == "" {
		f.EventType = models.EventTypeHoliday
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO holiday_feeds (
			id, name, url, event_type, sync_interval_min, sync_status, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.ID, f.Name, f.URL, f.EventType, f.SyncIntervalMin,
		f.SyncStatus, f.Enabled, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}

	return nil
}

// GetByID retrieves a feed by its ID.
func (r *FeedRepository) GetByID(ctx context.Context, id string) (*models.HolidayFeed, error) {
	row := r.DB().QueryRowContext(ctx, "SELECT "+feedColumns+" FROM holiday_feeds WHERE id = ?", id)
	f, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	return f, nil
}

// List retrieves all feeds by name.
func (r *FeedRepository) List(ctx context.Context) ([]models.HolidayFeed, error) {
	return r.list(ctx, "SELECT "+feedColumns+" FROM holiday_feeds ORDER BY name")
}

// ListEnabled retrieves enabled feeds, least recently synced first.
func (r *FeedRepository) ListEnabled(ctx context.Context) ([]models.HolidayFeed, error) {
	return r.list(ctx, `
		SELECT `+feedColumns+` FROM holiday_feeds
		WHERE enabled = 1
		ORDER BY last_sync_at ASC NULLS FIRST
	`)
}

func (r *FeedRepository) list(ctx context.Context, query string) ([]models.HolidayFeed, error) {
	rows, err := r.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying feeds: %w", err)
	}
	defer rows.Close()

	var feeds []models.HolidayFeed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, *f)
	}

	return feeds, rows.Err()
}

// Update updates an existing feed's settings.
func (r *FeedRepository) Update(ctx context.Context, f *models.HolidayFeed) error {
	f.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE holiday_feeds SET
			name = ?, url = ?, event_type = ?, sync_interval_min = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		f.Name, f.URL, f.EventType, f.SyncIntervalMin, f.Enabled, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating feed: %w", err)
	}

	return requireAffected(result)
}

// UpdateSyncStatus records the outcome of a sync attempt.
func (r *FeedRepository) UpdateSyncStatus(ctx context.Context, id string, status string, syncError *string) error {
	now := time.Now().UTC()
	var lastSyncAt *time.Time
	if status == models.SyncStatusSuccess {
		lastSyncAt = &now
	}

	_, err := r.DB().ExecContext(ctx, `
		UPDATE holiday_feeds SET
			sync_status = ?, sync_error = ?, last_sync_at = COALESCE(?, last_sync_at), updated_at = ?
		WHERE id = ?
	`, status, syncError, lastSyncAt, now, id)
	if err != nil {
		return fmt.Errorf("updating sync status: %w", err)
	}

	return nil
}

// Delete removes a feed. Events it imported stay on the calendar.
func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM holiday_feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}
	return requireAffected(result)
}
