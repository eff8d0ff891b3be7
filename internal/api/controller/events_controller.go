package controller

import (
	"ctchen222/todo-backend/internal/api/middleware"
	"ctchen222/todo-backend/internal/events"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsController upgrades clients onto the change feed.
type EventsController struct {
	hub *events.Hub
}

// NewEventsController creates a new EventsController.
func NewEventsController(hub *events.Hub) *EventsController {
	return &EventsController{hub: hub}
}

// Subscribe blocks for the lifetime of the websocket connection.
func (ec *EventsController) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Failed to upgrade connection", "error", err)
		return
	}

	subscriber := events.NewSubscriber(middleware.Subject(c), conn)
	slog.InfoContext(c.Request.Context(), "Change feed subscriber connected", "subscriber.id", subscriber.ID)
	subscriber.Serve(c.Request.Context(), ec.hub)
}
