package events

import (
	"context"
	"ctchen222/todo-backend/pkg/proto"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records written text frames and blocks reads until closed.
type fakeConn struct {
	mu      sync.Mutex
	written chan []byte
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		written: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return errors.New("closed")
	default:
	}
	if messageType == websocket.TextMessage {
		c.written <- data
	}
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func readMessage(t *testing.T, c *fakeConn) proto.ServerToClientMessage {
	t.Helper()
	select {
	case data := <-c.written:
		var msg proto.ServerToClientMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return proto.ServerToClientMessage{}
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHub_DeliversEvents(t *testing.T) {
	hub, _ := startHub(t)
	conn := newFakeConn()
	sub := NewSubscriber("alice@example.com", conn)
	go sub.Serve(context.Background(), hub)

	welcome := readMessage(t, conn)
	assert.Equal(t, proto.TypeWelcome, welcome.Type)
	assert.Equal(t, "alice@example.com", welcome.Subject)

	hub.Publish(context.Background(), NewEvent(TodoCreated, "todo", "42", map[string]string{"name": "A"}))

	msg := readMessage(t, conn)
	assert.Equal(t, proto.TypeChange, msg.Type)
	assert.Equal(t, TodoCreated, msg.Event)
	assert.Equal(t, "todo", msg.Resource)
	assert.Equal(t, "42", msg.ID)
	assert.JSONEq(t, `{"name":"A"}`, string(msg.Data))
}

func TestHub_UnregistersClosedConnections(t *testing.T) {
	hub, _ := startHub(t)
	conn := newFakeConn()
	sub := NewSubscriber("alice@example.com", conn)

	served := make(chan struct{})
	go func() {
		sub.Serve(context.Background(), hub)
		close(served)
	}()
	readMessage(t, conn)

	conn.Close()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after the connection closed")
	}
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	hub, cancel := startHub(t)
	conn := newFakeConn()
	sub := NewSubscriber("alice@example.com", conn)

	served := make(chan struct{})
	go func() {
		sub.Serve(context.Background(), hub)
		close(served)
	}()
	readMessage(t, conn)

	cancel()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after the hub stopped")
	}

	assert.False(t, hub.Register(NewSubscriber("late@example.com", newFakeConn())))
}

func TestHub_DropsSlowSubscribers(t *testing.T) {
	hub := NewHub(nil)
	sub := NewSubscriber("slow@example.com", newFakeConn())
	hub.subscribers[sub] = struct{}{}

	for i := 0; i < sendBuffer; i++ {
		hub.deliver(context.Background(), NewEvent(TodoUpdated, "todo", "1", nil))
	}
	assert.Contains(t, hub.subscribers, sub)

	hub.deliver(context.Background(), NewEvent(TodoUpdated, "todo", "1", nil))
	assert.NotContains(t, hub.subscribers, sub)
}

func TestNopPublisher(t *testing.T) {
	NopPublisher{}.Publish(context.Background(), NewEvent(TodoDeleted, "todo", "1", nil))
}
