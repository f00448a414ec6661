package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/wspubsub/core/broker"
	"github.com/dmitrymomot/wspubsub/core/logger"
)

// Transport writes frames to one client connection.
// WriteFrame must be safe for concurrent use.
type Transport interface {
	WriteFrame(ctx context.Context, frame any) error
	Close() error
}

// Gate reports whether the server has stopped accepting operations.
type Gate interface {
	Draining() bool
}

// Broker is the part of broker.Registry a session drives.
type Broker interface {
	Subscribe(topic string, conn broker.Conn, lastN int) bool
	Unsubscribe(topic string, conn broker.Conn) bool
	Publish(topic string, msg broker.Message) bool
	Cleanup(conn broker.Conn) int
}

// State is the liveness of a session.
type State int32

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Option configures a Session.
type Option func(*Session)

// WithGate makes the session refuse every frame while the gate is draining.
func WithGate(g Gate) Option {
	return func(s *Session) { s.gate = g }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source used for frame timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFrameObserver registers fn to be called with the type of every
// inbound frame that has one. Unrecognized types are reported as "unknown".
func WithFrameObserver(fn func(frameType string)) Option {
	return func(s *Session) { s.observe = fn }
}

// Session is one authenticated client connection.
type Session struct {
	id        string
	transport Transport
	broker    Broker
	gate      Gate
	log       *slog.Logger
	now       func() time.Time
	observe   func(string)

	mu       sync.RWMutex
	clientID string

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// NewSession creates an open session writing to t and operating on b.
func NewSession(t Transport, b Broker, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		transport: t,
		broker:    b,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.SessionID(s.id))
	return s
}

// ID is a random identifier used in logs.
func (s *Session) ID() string { return s.id }

// ClientID returns the client id set by the latest subscribe, or "".
func (s *Session) ClientID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientID
}

func (s *Session) State() State { return State(s.state.Load()) }

// Handle processes one inbound frame and writes the reply, if any.
// The returned error is a transport failure; protocol violations are
// answered with error frames and do not end the session.
func (s *Session) Handle(ctx context.Context, data []byte) error {
	if s.State() != StateOpen {
		return ErrSessionClosed
	}

	if s.gate != nil && s.gate.Draining() {
		return s.write(ctx, NewError(nil, CodeShuttingDown, MsgShuttingDown, s.now()))
	}

	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return s.write(ctx, NewError(nil, CodeBadRequest, MsgInvalidJSON, s.now()))
	}
	if in.Type == "" {
		return nil
	}
	reqID := requestID(in.RequestID)

	switch in.Type {
	case TypePing:
		s.observed(in.Type)
		return s.write(ctx, NewPong(reqID, s.now()))

	case TypeSubscribe:
		s.observed(in.Type)
		if in.Topic == "" || in.ClientID == "" {
			return s.write(ctx, NewError(reqID, CodeBadRequest, MsgMissingSubscribe, s.now()))
		}
		s.mu.Lock()
		s.clientID = in.ClientID
		s.mu.Unlock()
		if !s.broker.Subscribe(in.Topic, s, in.LastN) {
			s.log.Debug("subscribe to unknown topic", logger.Topic(in.Topic), logger.ClientID(in.ClientID))
		}
		return s.write(ctx, NewAck(reqID, in.Topic, s.now()))

	case TypeUnsubscribe:
		s.observed(in.Type)
		s.broker.Unsubscribe(in.Topic, s)
		return s.write(ctx, NewAck(reqID, in.Topic, s.now()))

	case TypePublish:
		s.observed(in.Type)
		msg, ok := ParseMessage(in.Message)
		if in.Topic == "" || !ok {
			return s.write(ctx, NewError(reqID, CodeBadRequest, MsgInvalidMessageID, s.now()))
		}
		if !s.broker.Publish(in.Topic, msg) {
			s.log.Debug("publish to unknown topic", logger.Topic(in.Topic))
		}
		return s.write(ctx, NewAck(reqID, in.Topic, s.now()))

	default:
		s.observed("unknown")
		return s.write(ctx, NewError(reqID, CodeBadRequest, MsgUnknownType, s.now()))
	}
}

// Deliver writes an event frame. It implements broker.Conn.
func (s *Session) Deliver(ctx context.Context, topic string, msg broker.Message) error {
	if s.State() != StateOpen {
		return ErrSessionClosed
	}
	return s.transport.WriteFrame(ctx, NewEvent(topic, msg, s.now()))
}

// Notify writes an info frame. An empty topic is omitted from the frame.
func (s *Session) Notify(ctx context.Context, topic, notice string) error {
	if s.State() != StateOpen {
		return ErrSessionClosed
	}
	return s.transport.WriteFrame(ctx, NewInfo(topic, notice, s.now()))
}

// Disconnect tells the client why it is being dropped, when the reason maps
// to an error code, and closes the session.
func (s *Session) Disconnect(reason error) {
	if errors.Is(reason, broker.ErrSlowConsumer) && s.State() == StateOpen {
		if err := s.transport.WriteFrame(context.Background(),
			NewError(nil, CodeSlowConsumer, MsgSlowConsumer, s.now())); err != nil {
			s.log.Debug("slow consumer notice failed", logger.Error(err))
		}
	}
	s.log.Info("session disconnected", logger.ClientID(s.ClientID()), logger.Error(reason))
	_ = s.Close()
}

// Close removes every subscription owned by the session and closes the
// transport. Only the first call has any effect; later calls return the
// same result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		n := s.broker.Cleanup(s)
		s.closeErr = s.transport.Close()
		s.state.Store(int32(StateClosed))
		s.log.Debug("session closed", logger.Count("subscriptions", n))
	})
	return s.closeErr
}

func (s *Session) write(ctx context.Context, frame any) error {
	return s.transport.WriteFrame(ctx, frame)
}

func (s *Session) observed(frameType string) {
	if s.observe != nil {
		s.observe(frameType)
	}
}
