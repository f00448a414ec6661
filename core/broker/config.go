package broker

import (
	"fmt"
	"log/slog"
)

// OverflowPolicy decides what happens when a subscriber queue is full.
type OverflowPolicy string

const (
	// DropOldest discards the oldest undelivered message.
	DropOldest OverflowPolicy = "drop-oldest"
	// Disconnect removes the subscriber and closes its connection.
	Disconnect OverflowPolicy = "disconnect"
)

const (
	DefaultHistorySize = 100
	DefaultQueueSize   = 100
)

// notifyConcurrency bounds parallel topic_deleted notice writes.
const notifyConcurrency = 64

// Config holds registry settings with environment variable support.
type Config struct {
	HistorySize    int            `env:"BROKER_HISTORY_SIZE" envDefault:"100"`
	QueueSize      int            `env:"BROKER_QUEUE_SIZE" envDefault:"100"`
	OverflowPolicy OverflowPolicy `env:"BROKER_OVERFLOW_POLICY" envDefault:"drop-oldest"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		HistorySize:    DefaultHistorySize,
		QueueSize:      DefaultQueueSize,
		OverflowPolicy: DropOldest,
	}
}

// Validate checks that sizes are positive and the policy is known.
func (c Config) Validate() error {
	if c.HistorySize < 1 {
		return fmt.Errorf("%w: history size %d", ErrInvalidConfig, c.HistorySize)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("%w: queue size %d", ErrInvalidConfig, c.QueueSize)
	}
	switch c.OverflowPolicy {
	case DropOldest, Disconnect:
	default:
		return fmt.Errorf("%w: overflow policy %q", ErrInvalidConfig, c.OverflowPolicy)
	}
	return nil
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.rec = rec
		}
	}
}

// WithHistorySize overrides the per-topic history capacity.
func WithHistorySize(n int) Option {
	return func(r *Registry) { r.cfg.HistorySize = n }
}

// WithQueueSize overrides the per-subscriber queue capacity.
func WithQueueSize(n int) Option {
	return func(r *Registry) { r.cfg.QueueSize = n }
}

// WithOverflowPolicy sets the subscriber queue overflow policy.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(r *Registry) { r.cfg.OverflowPolicy = p }
}

// Recorder receives registry events for metrics.
type Recorder interface {
	TopicCreated(topic string)
	TopicDeleted(topic string)
	Published(topic string)
	Delivered(topic string)
	Dropped(topic string)
	Subscribed(topic string)
	Unsubscribed(topic, reason string)
}

// Reasons passed to Recorder.Unsubscribed.
const (
	ReasonUnsubscribe    = "unsubscribe"
	ReasonReplaced       = "replaced"
	ReasonCleanup        = "cleanup"
	ReasonTopicDeleted   = "topic_deleted"
	ReasonDeliveryFailed = "delivery_failed"
	ReasonSlowConsumer   = "slow_consumer"
	ReasonClosed         = "closed"
)

type nopRecorder struct{}

func (nopRecorder) TopicCreated(string)         {}
func (nopRecorder) TopicDeleted(string)         {}
func (nopRecorder) Published(string)            {}
func (nopRecorder) Delivered(string)            {}
func (nopRecorder) Dropped(string)              {}
func (nopRecorder) Subscribed(string)           {}
func (nopRecorder) Unsubscribed(string, string) {}
