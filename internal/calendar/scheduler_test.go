package calendar

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/schedule"
	"github.com/lesson-planner/backend/internal/storage"
	"github.com/lesson-planner/backend/internal/storage/models"
	"github.com/lesson-planner/backend/internal/testutil"
	"github.com/lesson-planner/backend/internal/websocket"
)

type reminderMessage struct {
	Type    websocket.MessageType             `json:"type"`
	Payload websocket.MaterialReminderPayload `json:"payload"`
}

func newTestScheduler(t *testing.T, db *storage.DB, hub *websocket.Hub) *Scheduler {
	t.Helper()
	svc := schedule.NewService(storage.NewSnapshotLoader(db))
	feeds := storage.NewFeedRepository(db)
	importer := NewImportService(feeds, storage.NewCalendarRepository(db), svc)
	return NewScheduler(importer, feeds, storage.NewRosterRepository(db), svc, hub, SchedulerConfig{Location: time.UTC})
}

func TestScheduler_SendReminders(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	roster := storage.NewRosterRepository(db)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-02")
	lessons := testutil.AddLessons(t, db, cs.ID, "Measuring")

	due := &models.MaterialNeeded{LessonID: lessons[0].ID, Description: "Rulers", ReminderDate: testutil.Date(t, "2024-08-30")}
	require.NoError(t, roster.AddMaterial(ctx, due))
	acquired := &models.MaterialNeeded{LessonID: lessons[0].ID, Description: "Tape", ReminderDate: testutil.Date(t, "2024-08-29")}
	require.NoError(t, roster.AddMaterial(ctx, acquired))
	require.NoError(t, roster.SetAcquired(ctx, acquired.ID, true))
	later := &models.MaterialNeeded{LessonID: lessons[0].ID, Description: "Compasses", ReminderDate: testutil.Date(t, "9999-01-01")}
	require.NoError(t, roster.AddMaterial(ctx, later))

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	client := websocket.NewClient(hub)
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	sent := newTestScheduler(t, db, hub).SendReminders(ctx)
	assert.Equal(t, 1, sent)

	select {
	case data := <-client.Send():
		var msg reminderMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, websocket.TypeMaterialReminder, msg.Type)
		assert.Equal(t, due.ID, msg.Payload.MaterialID)
		assert.Equal(t, "Rulers", msg.Payload.Description)
		assert.Equal(t, "2024-08-30", msg.Payload.ReminderDate)
		assert.Equal(t, "2024-09-02", msg.Payload.LessonDate)
	case <-time.After(time.Second):
		t.Fatal("no reminder received")
	}

	select {
	case data := <-client.Send():
		t.Fatalf("unexpected extra message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_SendRemindersWithoutHub(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	cs := testutil.CreateClass(t, db, "Math", "2024-09-02")
	lessons := testutil.AddLessons(t, db, cs.ID, "Measuring")
	require.NoError(t, storage.NewRosterRepository(db).AddMaterial(ctx, &models.MaterialNeeded{
		LessonID: lessons[0].ID, Description: "Rulers", ReminderDate: testutil.Date(t, "2024-08-30"),
	}))

	assert.Equal(t, 1, newTestScheduler(t, db, nil).SendReminders(ctx))
}

func TestScheduler_NextRun(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	feeds := storage.NewFeedRepository(db)

	feed := &models.HolidayFeed{Name: "District", URL: "http://127.0.0.1:1/feed.ics", EventType: models.EventTypeHoliday, SyncIntervalMin: 60, Enabled: true}
	require.NoError(t, feeds.Create(ctx, feed))

	s := newTestScheduler(t, db, nil)
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	next := s.NextRun(feed.ID)
	require.NotNil(t, next)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *next, time.Minute)

	s.UnscheduleFeed(feed.ID)
	assert.Nil(t, s.NextRun(feed.ID))
	assert.Nil(t, s.NextRun("missing"))
}
