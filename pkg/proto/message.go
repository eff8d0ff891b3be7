package proto

import "encoding/json"

// Message types sent over the change feed.
const (
	TypeWelcome = "welcome"
	TypeChange  = "change"
)

// ServerToClientMessage represents a message from the server to a change-feed client.
type ServerToClientMessage struct {
	Type     string          `json:"type"`
	Event    string          `json:"event,omitempty"`
	Resource string          `json:"resource,omitempty"`
	ID       string          `json:"id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	Subject  string          `json:"subject,omitempty"`
}
