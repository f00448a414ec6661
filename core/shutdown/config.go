package shutdown

import (
	"log/slog"
	"time"
)

// DefaultDeadline is how long clients get between the shutdown notice and
// the forced close.
const DefaultDeadline = 10 * time.Second

// defaultNotifyConcurrency bounds parallel notice writes.
const defaultNotifyConcurrency = 64

// Config holds coordinator settings with environment variable support.
type Config struct {
	Deadline time.Duration `env:"SHUTDOWN_DEADLINE" envDefault:"10s"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithDeadline(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.deadline = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// WithNotifyConcurrency limits how many shutdown notices are written at once.
func WithNotifyConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}
