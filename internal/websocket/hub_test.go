package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesson-planner/backend/internal/storage/models"
)

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.Send():
		var raw struct {
			Type    MessageType     `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(data, &raw))
		return Message{Type: raw.Type, Payload: raw.Payload}
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a, b := NewClient(hub), NewClient(hub)
	hub.Register(a)
	hub.Register(b)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	NewEventBroadcaster(hub).BroadcastScheduleRebuilt(ScheduleRebuiltPayload{Lessons: 3})

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		assert.Equal(t, TypeScheduleRebuilt, msg.Type)

		var p ScheduleRebuiltPayload
		require.NoError(t, json.Unmarshal(msg.Payload.(json.RawMessage), &p))
		assert.Equal(t, 3, p.Lessons)
		assert.NotNil(t, p.SkippedClasses)
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := NewClient(hub)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Stop()
	select {
	case _, ok := <-c.Send():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client channel not closed")
	}

	hub.Unregister(c) // must not block after Stop
}

func TestEventBroadcaster_FeedAndMaterialEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	bc := NewEventBroadcaster(hub)
	bc.BroadcastFeedSyncCompleted(models.FeedSyncResult{FeedID: "f1", FeedName: "District", DatesAdded: 2})
	msg := receive(t, c)
	assert.Equal(t, TypeFeedSyncCompleted, msg.Type)
	assert.Contains(t, string(msg.Payload.(json.RawMessage)), `"dates_added":2`)

	bc.BroadcastMaterialReminder(models.MaterialNeeded{
		ID: 4, LessonID: 9, Description: "beakers",
		ReminderDate: models.Date(2024, time.September, 6),
	}, "2024-09-09")
	msg = receive(t, c)
	assert.Equal(t, TypeMaterialReminder, msg.Type)
	assert.Contains(t, string(msg.Payload.(json.RawMessage)), `"reminder_date":"2024-09-06"`)
}

func TestReply(t *testing.T) {
	assert.Equal(t, TypePong, Reply([]byte(`{"type":"ping"}`)).Type)

	msg := Reply([]byte(`{"type":"subscribe"}`))
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "subscribe", msg.Payload.(ErrorPayload).OriginalType)

	msg = Reply([]byte(`not json`))
	assert.Equal(t, "invalid_message", msg.Payload.(ErrorPayload).Code)
}

func TestHub_SendTo(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(hub)
	assert.False(t, hub.SendTo(c, []byte("x")), "unregistered client")

	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	data, err := Reply([]byte(`{"type":"ping"}`)).JSON()
	require.NoError(t, err)
	require.True(t, hub.SendTo(c, data))
	assert.Equal(t, TypePong, receive(t, c).Type)
}
