package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lesson-planner/backend/internal/schedule"
	ws "github.com/lesson-planner/backend/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The UI may be served through a reverse proxy on another origin
		return true
	},
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to
// WebSocket. A new client first receives the state of the current schedule
// index, if one has been built.
func WebSocketUpgrade(hub *ws.Hub, svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := ws.NewClient(hub)
		if greeting := scheduleGreeting(svc); greeting != nil {
			// The pumps aren't running yet, so the buffered queue is ours.
			client.Send() <- greeting
		}
		hub.Register(client)

		// Start read and write pumps
		go writePump(conn, client)
		go readPump(conn, client, hub)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		handleClientMessage(message, client, hub)
	}
}

func scheduleGreeting(svc *schedule.Service) []byte {
	if svc == nil {
		return nil
	}
	idx := svc.Current()
	if idx == nil {
		return nil
	}
	data, err := ws.NewMessage(ws.TypeScheduleRebuilt, ws.ScheduleRebuiltPayload{
		Lessons:        idx.Len(),
		SkippedClasses: []int64{},
		BuiltAt:        idx.BuiltAt(),
	}).JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket greeting: %v", err)
		return nil
	}
	return data
}

// handleClientMessage answers a client command through the client's send
// queue, so writePump stays the connection's only writer.
func handleClientMessage(message []byte, client *ws.Client, hub *ws.Hub) {
	data, err := ws.Reply(message).JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket reply: %v", err)
		return
	}
	hub.SendTo(client, data)
}
