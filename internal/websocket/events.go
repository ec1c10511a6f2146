package websocket

import (
	"log"

	"github.com/lesson-planner/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastScheduleRebuilt tells clients to refetch schedule views.
func (b *EventBroadcaster) BroadcastScheduleRebuilt(payload ScheduleRebuiltPayload) {
	if payload.SkippedClasses == nil {
		payload.SkippedClasses = []int64{}
	}
	b.broadcast(NewMessage(TypeScheduleRebuilt, payload))
}

// BroadcastFeedSyncCompleted sends a feed sync completed event.
func (b *EventBroadcaster) BroadcastFeedSyncCompleted(result models.FeedSyncResult) {
	payload := FeedSyncPayload{
		FeedID:        result.FeedID,
		FeedName:      result.FeedName,
		Status:        models.SyncStatusSuccess,
		EventsFound:   result.EventsFound,
		DatesAdded:    result.DatesAdded,
		DatesExisting: result.DatesExisting,
	}

	if result.Error != nil {
		payload.Status = models.SyncStatusError
	}

	b.broadcast(NewMessage(TypeFeedSyncCompleted, payload))
}

// BroadcastFeedSyncError sends a feed sync error event.
func (b *EventBroadcaster) BroadcastFeedSyncError(feedID, feedName string, err error) {
	payload := FeedSyncErrorPayload{
		FeedID:   feedID,
		FeedName: feedName,
		Error:    "sync_error",
		Message:  err.Error(),
	}

	b.broadcast(NewMessage(TypeFeedSyncError, payload))
}

// BroadcastMaterialReminder announces a material that should be gathered.
// lessonDate is the lesson's scheduled date, if it has one.
func (b *EventBroadcaster) BroadcastMaterialReminder(m models.MaterialNeeded, lessonDate string) {
	payload := MaterialReminderPayload{
		MaterialID:   m.ID,
		LessonID:     m.LessonID,
		Description:  m.Description,
		ReminderDate: models.FormatDate(m.ReminderDate),
		LessonDate:   lessonDate,
	}

	b.broadcast(NewMessage(TypeMaterialReminder, payload))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
