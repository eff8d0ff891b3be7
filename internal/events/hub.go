package events

import (
	"context"
	"ctchen222/todo-backend/pkg/proto"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("events")

const broadcastBuffer = 256

// Hub fans change events out to connected subscribers. All subscriber
// bookkeeping happens on the goroutine running Run.
type Hub struct {
	subscribers map[*Subscriber]struct{}
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan Event
	done        chan struct{}

	// rdb, when set, relays events through EventsChannel so every instance
	// delivers every change.
	rdb *redis.Client
}

// NewHub creates a hub. rdb may be nil for a single-instance deployment.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan Event, broadcastBuffer),
		done:        make(chan struct{}),
		rdb:         rdb,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	if h.rdb != nil {
		go h.runRelaySubscriber(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			for s := range h.subscribers {
				h.drop(s)
			}
			slog.InfoContext(ctx, "Event hub stopped")
			return

		case s := <-h.register:
			h.subscribers[s] = struct{}{}
			slog.InfoContext(ctx, "Subscriber registered", "subscriber.id", s.ID, "subscribers.count", len(h.subscribers))

		case s := <-h.unregister:
			if _, ok := h.subscribers[s]; ok {
				h.drop(s)
				slog.InfoContext(ctx, "Subscriber unregistered", "subscriber.id", s.ID, "subscribers.count", len(h.subscribers))
			}

		case event := <-h.broadcast:
			h.deliver(ctx, event)
		}
	}
}

// Register adds s to the hub. It returns false if the hub has stopped.
func (h *Hub) Register(s *Subscriber) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes s from the hub and closes its send queue.
func (h *Hub) Unregister(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Publish hands event to the hub, or to redis when relaying. It never blocks
// on subscribers.
func (h *Hub) Publish(ctx context.Context, event Event) {
	ctx, span := tracer.Start(ctx, "hub.Publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.String("event.resource_id", event.ID),
	))
	defer span.End()

	if h.rdb != nil {
		data, err := json.Marshal(event)
		if err == nil {
			err = h.rdb.Publish(ctx, EventsChannel, data).Err()
		}
		if err == nil {
			return
		}
		slog.ErrorContext(ctx, "Failed to relay event, delivering locally", "event.type", event.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to relay event")
	}
	h.enqueue(ctx, event)
}

func (h *Hub) enqueue(ctx context.Context, event Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.WarnContext(ctx, "Event buffer full, dropping event", "event.type", event.Type, "event.resource_id", event.ID)
	}
}

func (h *Hub) deliver(ctx context.Context, event Event) {
	data, err := json.Marshal(proto.ServerToClientMessage{
		Type:     proto.TypeChange,
		Event:    event.Type,
		Resource: event.Resource,
		ID:       event.ID,
		Data:     event.Payload,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling event", "event.type", event.Type, "error", err)
		return
	}

	for s := range h.subscribers {
		select {
		case s.send <- data:
		default:
			slog.WarnContext(ctx, "Subscriber too slow, disconnecting", "subscriber.id", s.ID)
			h.drop(s)
		}
	}
}

func (h *Hub) drop(s *Subscriber) {
	delete(h.subscribers, s)
	close(s.send)
}

func (h *Hub) runRelaySubscriber(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	slog.InfoContext(ctx, "Relaying events through redis", "redis.channel", EventsChannel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, "Failed to decode relayed event", "error", err)
				continue
			}
			h.enqueue(ctx, event)
		}
	}
}
