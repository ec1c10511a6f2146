package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
	"github.com/lesson-planner/backend/internal/testutil"
)

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate() { c.n++ }

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImportService_SyncFeed(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	feeds := storage.NewFeedRepository(db)
	cal := storage.NewCalendarRepository(db)
	inv := &countingInvalidator{}
	svc := NewImportService(feeds, cal, inv)

	srv := feedServer(t, http.StatusOK, districtFeed)
	feed := &models.HolidayFeed{Name: "District", URL: srv.URL, EventType: models.EventTypeHoliday, Enabled: true}
	require.NoError(t, feeds.Create(ctx, feed))

	// One day is already on the calendar.
	require.NoError(t, cal.AddEvent(ctx, &models.CalendarEvent{
		Date: testutil.Date(t, "2024-11-28"), EventType: models.EventTypeHoliday,
	}))

	result, err := svc.SyncFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EventsFound)
	assert.Equal(t, 3, result.DatesAdded)
	assert.Equal(t, 1, result.DatesExisting)
	assert.Equal(t, 1, inv.n)

	stored, err := feeds.GetByID(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSuccess, stored.SyncStatus)
	assert.NotNil(t, stored.LastSyncAt)

	// A second sync adds nothing and leaves the schedule alone.
	result, err = svc.SyncFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.DatesAdded)
	assert.Equal(t, 4, result.DatesExisting)
	assert.Equal(t, 1, inv.n)
}

func TestImportService_SyncFeedError(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	feeds := storage.NewFeedRepository(db)
	svc := NewImportService(feeds, storage.NewCalendarRepository(db), nil)

	srv := feedServer(t, http.StatusNotFound, "")
	feed := &models.HolidayFeed{Name: "Gone", URL: srv.URL, EventType: models.EventTypeHoliday, Enabled: true}
	require.NoError(t, feeds.Create(ctx, feed))

	_, err := svc.SyncFeed(ctx, feed.ID)
	require.Error(t, err)

	stored, err := feeds.GetByID(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, stored.SyncStatus)
	require.NotNil(t, stored.SyncError)
	assert.Contains(t, *stored.SyncError, "404")

	_, err = svc.SyncFeed(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestImportService_SyncFeedIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	feeds := storage.NewFeedRepository(db)
	cal := storage.NewCalendarRepository(db)
	inv := &countingInvalidator{}
	svc := NewImportService(feeds, cal, inv)

	// Fail on the third Thanksgiving day, after two have been written.
	_, err := db.ExecContext(ctx, `
		CREATE TRIGGER reject_day BEFORE INSERT ON calendar_events
		WHEN NEW.date = '2024-11-29'
		BEGIN SELECT RAISE(ABORT, 'disk full'); END
	`)
	require.NoError(t, err)

	srv := feedServer(t, http.StatusOK, districtFeed)
	feed := &models.HolidayFeed{Name: "District", URL: srv.URL, EventType: models.EventTypeHoliday, Enabled: true}
	require.NoError(t, feeds.Create(ctx, feed))

	_, err = svc.SyncFeed(ctx, feed.ID)
	require.Error(t, err)

	events, err := cal.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events, "a failed import leaves no dates behind")
	assert.Equal(t, 0, inv.n)

	stored, err := feeds.GetByID(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, stored.SyncStatus)
}

func TestImportService_SkipsOversizedEvents(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	feeds := storage.NewFeedRepository(db)
	cal := storage.NewCalendarRepository(db)
	svc := NewImportService(feeds, cal, nil)

	body := "BEGIN:VCALENDAR\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:forever@district\r\n" +
		"SUMMARY:Closed\r\n" +
		"DTSTART;VALUE=DATE:20240101\r\n" +
		"DTEND;VALUE=DATE:99991231\r\n" +
		"END:VEVENT\r\n" +
		"BEGIN:VEVENT\r\n" +
		"UID:vets@district\r\n" +
		"SUMMARY:Veterans Day\r\n" +
		"DTSTART;VALUE=DATE:20241111\r\n" +
		"END:VEVENT\r\n" +
		"END:VCALENDAR\r\n"
	srv := feedServer(t, http.StatusOK, body)
	feed := &models.HolidayFeed{Name: "District", URL: srv.URL, EventType: models.EventTypeHoliday, Enabled: true}
	require.NoError(t, feeds.Create(ctx, feed))

	result, err := svc.SyncFeed(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EventsFound)
	assert.Equal(t, 1, result.EventsSkipped)
	assert.Equal(t, 1, result.DatesAdded)

	events, err := cal.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2024-11-11", models.FormatDate(events[0].Date))
}
