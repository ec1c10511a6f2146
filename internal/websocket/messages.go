package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeScheduleRebuilt   MessageType = "schedule.rebuilt"
	TypeFeedSyncCompleted MessageType = "feed.sync_completed"
	TypeFeedSyncError     MessageType = "feed.sync_error"
	TypeMaterialReminder  MessageType = "material.reminder_due"
	TypeNotification      MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ScheduleRebuiltPayload is the payload for schedule.rebuilt events.
type ScheduleRebuiltPayload struct {
	Lessons        int       `json:"lessons"`
	SkippedClasses []int64   `json:"skipped_classes"`
	BuiltAt        time.Time `json:"built_at"`
}

// FeedSyncPayload is the payload for feed.sync_completed events.
type FeedSyncPayload struct {
	FeedID        string `json:"feed_id"`
	FeedName      string `json:"feed_name"`
	Status        string `json:"status"`
	EventsFound   int    `json:"events_found"`
	DatesAdded    int    `json:"dates_added"`
	DatesExisting int    `json:"dates_existing"`
}

// FeedSyncErrorPayload is the payload for feed.sync_error events.
type FeedSyncErrorPayload struct {
	FeedID   string `json:"feed_id"`
	FeedName string `json:"feed_name"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

// MaterialReminderPayload is the payload for material.reminder_due events.
type MaterialReminderPayload struct {
	MaterialID   int64  `json:"material_id"`
	LessonID     int64  `json:"lesson_id"`
	Description  string `json:"description"`
	ReminderDate string `json:"reminder_date"`
	LessonDate   string `json:"lesson_date,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}

// Reply builds the response to a client command.
func Reply(raw []byte) Message {
	var cmd struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return NewMessage(TypeError, ErrorPayload{Code: "invalid_message", Message: "message is not valid JSON"})
	}

	switch cmd.Type {
	case TypePing:
		return NewMessage(TypePong, nil)
	default:
		return NewMessage(TypeError, ErrorPayload{
			Code:         "unknown_command",
			Message:      "unsupported command",
			OriginalType: string(cmd.Type),
		})
	}
}
