package events

import (
	"context"
	"encoding/json"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TodoCreated    = "todo.created"
	TodoUpdated    = "todo.updated"
	TodoDeleted    = "todo.deleted"
	ContactCreated = "contact.created"
)

// Event describes a change to a stored resource.
type Event struct {
	Type     string          `json:"event"`
	Resource string          `json:"resource"`
	ID       string          `json:"id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks ctchen222/todo-backend/internal/events Publisher

// Publisher accepts change events. Publish must not block the caller on
// slow consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NewEvent builds an Event, encoding payload as JSON. A payload that can't be
// encoded is dropped.
func NewEvent(eventType, resource, id string, payload any) Event {
	e := Event{Type: eventType, Resource: resource, ID: id}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			e.Payload = data
		}
	}
	return e
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
