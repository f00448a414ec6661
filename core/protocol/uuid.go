package protocol

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/dmitrymomot/wspubsub/core/broker"
)

// ValidUUID parses s as a message id. Only the canonical 36 character form
// is accepted, with the RFC 4122 variant and a version from 1 to 8, or the
// nil and max UUIDs.
func ValidUUID(s string) (uuid.UUID, bool) {
	if len(s) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	if id == uuid.Nil || id == uuid.Max {
		return id, true
	}
	if id.Variant() != uuid.RFC4122 {
		return uuid.Nil, false
	}
	if v := id.Version(); v < 1 || v > 8 {
		return uuid.Nil, false
	}
	return id, true
}

// ParseMessage validates the message member of a publish frame. It must be
// a JSON object with a string id that passes ValidUUID.
func ParseMessage(raw json.RawMessage) (broker.Message, bool) {
	if len(raw) == 0 {
		return broker.Message{}, false
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return broker.Message{}, false
	}
	id, ok := ValidUUID(body.ID)
	if !ok {
		return broker.Message{}, false
	}
	return broker.Message{ID: id, Payload: raw}, true
}
