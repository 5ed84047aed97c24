// Package realtime pushes notifications to connected clients over
// websockets. Delivery is best effort; the notification rows in the
// database remain the source of truth.
package realtime

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type subscription struct {
	conn   *websocket.Conn
	userID uint
}

type envelope struct {
	userID  uint
	payload interface{}
}

// Hub tracks open connections per user and fans out pushed payloads to
// all of a user's connections.
type Hub struct {
	clients    map[uint]map[*websocket.Conn]bool
	register   chan subscription
	unregister chan subscription
	broadcast  chan envelope
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*websocket.Conn]bool),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		broadcast:  make(chan envelope, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client map. Must be started as a goroutine before the
// first connection arrives.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			if h.clients[sub.userID] == nil {
				h.clients[sub.userID] = make(map[*websocket.Conn]bool)
			}
			h.clients[sub.userID][sub.conn] = true

		case sub := <-h.unregister:
			if _, ok := h.clients[sub.userID][sub.conn]; ok {
				delete(h.clients[sub.userID], sub.conn)
				sub.conn.Close()
				if len(h.clients[sub.userID]) == 0 {
					delete(h.clients, sub.userID)
				}
			}

		case msg := <-h.broadcast:
			for conn := range h.clients[msg.userID] {
				if err := conn.WriteJSON(msg.payload); err != nil {
					slog.Warn("websocket write failed", "user_id", msg.userID, "error", err)
					conn.Close()
					delete(h.clients[msg.userID], conn)
				}
			}

		case <-h.done:
			for _, conns := range h.clients {
				for conn := range conns {
					conn.Close()
				}
			}
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Push queues a payload for the user's connections. Drops the payload
// when the queue is full rather than blocking the caller.
func (h *Hub) Push(userID uint, payload interface{}) {
	select {
	case h.broadcast <- envelope{userID: userID, payload: payload}:
	default:
		slog.Warn("realtime queue full, dropping push", "user_id", userID)
	}
}

// Handler returns the websocket endpoint handler. The route must run
// behind middleware that stores the authenticated user id in locals.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("user_id").(uint)
		if !ok {
			conn.Close()
			return
		}

		h.register <- subscription{conn: conn, userID: userID}
		defer func() {
			h.unregister <- subscription{conn: conn, userID: userID}
		}()

		// Clients only listen; the read loop exists to detect closes.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
