package shutdown

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/wspubsub/core/logger"
)

// NoticeServerShutdown is the notice every tracked peer receives on Drain.
const NoticeServerShutdown = "server_shutdown"

// Peer is a tracked connection.
type Peer interface {
	Notify(ctx context.Context, topic, notice string) error
	Close() error
}

// State of the coordinator.
type State int32

const (
	StateAccepting State = iota
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Coordinator tracks live connections and drains them on shutdown.
type Coordinator struct {
	deadline    time.Duration
	concurrency int
	log         *slog.Logger

	state atomic.Int32
	done  chan struct{}

	mu    sync.Mutex
	peers map[Peer]struct{}
}

func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		deadline:    DefaultDeadline,
		concurrency: defaultNotifyConcurrency,
		log:         logger.Nop(),
		done:        make(chan struct{}),
		peers:       make(map[Peer]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("shutdown"))
	return c
}

// NewFromConfig creates a coordinator from cfg. Options are applied after cfg.
func NewFromConfig(cfg Config, opts ...Option) *Coordinator {
	return New(append([]Option{WithDeadline(cfg.Deadline)}, opts...)...)
}

func (c *Coordinator) State() State { return State(c.state.Load()) }

// Draining reports whether Drain has started.
func (c *Coordinator) Draining() bool { return c.State() != StateAccepting }

// Done is closed once the coordinator is terminated.
func (c *Coordinator) Done() <-chan struct{} { return c.done }

// Track registers p. It returns false, without registering, once draining
// has begun; the caller should then refuse the connection.
func (c *Coordinator) Track(p Peer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Draining() {
		return false
	}
	c.peers[p] = struct{}{}
	return true
}

// Untrack forgets p. Safe to call for unknown peers.
func (c *Coordinator) Untrack(p Peer) {
	c.mu.Lock()
	delete(c.peers, p)
	c.mu.Unlock()
}

// Tracked returns the number of registered peers.
func (c *Coordinator) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.peers)
}

// Drain notifies every tracked peer, waits for the deadline and force-closes
// the peers that remain. The deadline starts before the first notice is
// written, so slow peers cannot stretch it. Cancelling ctx skips the rest of
// the wait once the notices are out. Drain runs once; later calls return
// ErrAlreadyDraining.
func (c *Coordinator) Drain(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.CompareAndSwap(int32(StateAccepting), int32(StateDraining)) {
		c.mu.Unlock()
		return ErrAlreadyDraining
	}
	peers := c.snapshot()
	c.mu.Unlock()

	timer := time.NewTimer(c.deadline)
	defer timer.Stop()

	c.log.Info("draining connections",
		logger.Count("connections", len(peers)), logger.Duration(c.deadline))

	notifyCtx, stopNotify := context.WithCancel(context.WithoutCancel(ctx))
	defer stopNotify()
	sent := make(chan struct{})
	go func() {
		defer close(sent)
		c.broadcast(notifyCtx, peers)
	}()

	select {
	case <-timer.C:
	case <-ctx.Done():
		select {
		case <-sent:
		case <-timer.C:
		}
	}
	stopNotify()

	c.mu.Lock()
	peers = c.snapshot()
	c.peers = make(map[Peer]struct{})
	c.mu.Unlock()

	for _, p := range peers {
		if err := p.Close(); err != nil {
			c.log.Debug("force close failed", logger.Error(err))
		}
	}
	// Closed peers fail their pending writes, so the broadcast ends promptly.
	<-sent

	c.state.Store(int32(StateTerminated))
	close(c.done)
	c.log.Info("shutdown complete", logger.Count("forced", len(peers)))
	return nil
}

// broadcast sends the notice to peers in parallel until ctx is cancelled.
// Failures are logged and not retried.
func (c *Coordinator) broadcast(ctx context.Context, peers []Peer) {
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for _, p := range peers {
		if ctx.Err() != nil {
			c.log.Debug("shutdown notices cut short by deadline")
			break
		}
		g.Go(func() error {
			if err := p.Notify(ctx, "", NoticeServerShutdown); err != nil {
				c.log.Debug("shutdown notice failed", logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// snapshot must be called with c.mu held.
func (c *Coordinator) snapshot() []Peer {
	out := make([]Peer, 0, len(c.peers))
	for p := range c.peers {
		out = append(out, p)
	}
	return out
}
