package events

import (
	"context"
	"ctchen222/todo-backend/pkg/proto"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer   = 32
	pingInterval = 30 * time.Second
)

// Connection abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Subscriber is one change-feed client.
type Subscriber struct {
	ID      string
	Subject string
	conn    Connection
	send    chan []byte
}

// NewSubscriber wraps conn for the authenticated subject.
func NewSubscriber(subject string, conn Connection) *Subscriber {
	return &Subscriber{
		ID:      uuid.New().String(),
		Subject: subject,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
}

// Serve registers s with hub and pumps messages until either side closes.
func (s *Subscriber) Serve(ctx context.Context, hub *Hub) {
	welcome, _ := json.Marshal(proto.ServerToClientMessage{Type: proto.TypeWelcome, Subject: s.Subject})
	s.send <- welcome

	if !hub.Register(s) {
		s.conn.Close()
		return
	}

	go s.readPump(ctx, hub)
	s.writePump(ctx)
}

// writePump drains the send queue to the connection. It returns once the hub
// closes the queue or a write fails.
func (s *Subscriber) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.WarnContext(ctx, "error writing message to subscriber", "subscriber.id", s.ID, "error", err)
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "error pinging subscriber", "subscriber.id", s.ID, "error", err)
				return
			}
		}
	}
}

// readPump discards client frames and unregisters s once the connection fails.
func (s *Subscriber) readPump(ctx context.Context, hub *Hub) {
	defer hub.Unregister(s)

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			slog.InfoContext(ctx, "Subscriber connection closed", "subscriber.id", s.ID, "error", err)
			return
		}
	}
}
