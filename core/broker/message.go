package broker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Message is a published payload. The broker never looks inside Payload,
// which holds the complete message object as sent by the publisher.
type Message struct {
	ID      uuid.UUID
	Payload json.RawMessage
}

// MarshalJSON emits the original message object.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Payload) == 0 {
		return json.Marshal(struct {
			ID uuid.UUID `json:"id"`
		}{m.ID})
	}
	return m.Payload, nil
}

// Conn is the delivery side of a client connection as seen by the registry.
// Implementations must be comparable (typically a pointer) because ownership
// checks compare Conn values.
type Conn interface {
	// ClientID is the identity the connection subscribes under; empty means unassigned.
	ClientID() string
	// Deliver writes one event frame and returns once it is written or has failed.
	Deliver(ctx context.Context, topic string, msg Message) error
	// Notify writes an informational frame directly, outside any subscriber queue.
	Notify(ctx context.Context, topic, notice string) error
	// Disconnect reports reason to the peer and closes the connection.
	Disconnect(reason error)
}

// NoticeTopicDeleted is sent to every subscriber of a deleted topic.
const NoticeTopicDeleted = "topic_deleted"
