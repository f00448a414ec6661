package protocol

import (
	"encoding/json"
	"time"

	"github.com/dmitrymomot/wspubsub/core/broker"
)

// Frame types.
const (
	TypePing        = "ping"
	TypePong        = "pong"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePublish     = "publish"
	TypeAck         = "ack"
	TypeError       = "error"
	TypeEvent       = "event"
	TypeInfo        = "info"
)

// Error codes carried in error frames.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeShuttingDown = "SHUTTING_DOWN"
	CodeSlowConsumer = "SLOW_CONSUMER"
)

// Error frame messages.
const (
	MsgInvalidJSON      = "Invalid JSON"
	MsgUnknownType      = "Unknown message type"
	MsgMissingSubscribe = "Missing topic or client_id"
	MsgInvalidMessageID = "Invalid or missing message.id"
	MsgUnauthorized     = "Missing or invalid X-API-Key"
	MsgShuttingDown     = "Server is shutting down. No new operations allowed."
	MsgSlowConsumer     = "Subscriber queue overflow"
)

// Info frame notices.
const (
	NoticeServerShutdown = "server_shutdown"
	NoticeTopicDeleted   = broker.NoticeTopicDeleted
)

// StatusOK is the status of every ack.
const StatusOK = "ok"

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Inbound is a client frame. Fields a frame type does not use are ignored.
type Inbound struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	ClientID  string          `json:"client_id"`
	Message   json.RawMessage `json:"message"`
	LastN     int             `json:"last_n"`
	RequestID json.RawMessage `json:"request_id"`
}

// Ack confirms a subscribe, unsubscribe or publish.
type Ack struct {
	Type      string          `json:"type"`
	RequestID json.RawMessage `json:"request_id,omitempty"`
	Topic     string          `json:"topic,omitempty"`
	Status    string          `json:"status"`
	TS        string          `json:"ts"`
}

// ErrorBody is the error member of an error frame.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error reports a rejected frame or a connection-level failure.
type Error struct {
	Type      string          `json:"type"`
	RequestID json.RawMessage `json:"request_id,omitempty"`
	Error     ErrorBody       `json:"error"`
	TS        string          `json:"ts"`
}

// Event carries a published message to a subscriber.
type Event struct {
	Type    string         `json:"type"`
	Topic   string         `json:"topic"`
	Message broker.Message `json:"message"`
	TS      string         `json:"ts"`
}

// Info is an out-of-band notice such as topic_deleted or server_shutdown.
type Info struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
	Msg   string `json:"msg"`
	TS    string `json:"ts"`
}

// Pong answers a ping.
type Pong struct {
	Type      string          `json:"type"`
	RequestID json.RawMessage `json:"request_id,omitempty"`
	TS        string          `json:"ts"`
}

// Timestamp formats t the way every outbound frame carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func NewAck(requestID json.RawMessage, topic string, now time.Time) Ack {
	return Ack{Type: TypeAck, RequestID: requestID, Topic: topic, Status: StatusOK, TS: Timestamp(now)}
}

func NewError(requestID json.RawMessage, code, message string, now time.Time) Error {
	return Error{
		Type:      TypeError,
		RequestID: requestID,
		Error:     ErrorBody{Code: code, Message: message},
		TS:        Timestamp(now),
	}
}

func NewEvent(topic string, msg broker.Message, now time.Time) Event {
	return Event{Type: TypeEvent, Topic: topic, Message: msg, TS: Timestamp(now)}
}

func NewInfo(topic, msg string, now time.Time) Info {
	return Info{Type: TypeInfo, Topic: topic, Msg: msg, TS: Timestamp(now)}
}

func NewPong(requestID json.RawMessage, now time.Time) Pong {
	return Pong{Type: TypePong, RequestID: requestID, TS: Timestamp(now)}
}

// requestID drops an explicit JSON null so it is omitted like an absent one.
func requestID(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
