package broker

import (
	"context"
	"sync"
)

// subscriber is one client's delivery channel on one topic: a bounded queue
// and the goroutine that drains it. Only that goroutine writes to the
// connection, so at most one delivery is in flight.
type subscriber struct {
	topic    string
	clientID string
	conn     Conn
	reg      *Registry

	mu         sync.Mutex
	queue      *Ring[Message]
	delivering bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSubscriber(reg *Registry, topic, clientID string, conn Conn, queueSize int) *subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &subscriber{
		topic:    topic,
		clientID: clientID,
		conn:     conn,
		reg:      reg,
		queue:    NewRing[Message](queueSize),
		wake:     make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// enqueue appends msg without blocking, evicting the oldest pending message
// when the queue is full. It reports whether a message was evicted.
func (s *subscriber) enqueue(msg Message) (dropped bool) {
	s.mu.Lock()
	_, dropped = s.queue.Push(msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return dropped
}

func (s *subscriber) full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Full()
}

// Pending returns the number of queued, not yet delivered messages.
func (s *subscriber) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Delivering reports whether a delivery is in flight.
func (s *subscriber) Delivering() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivering
}

func (s *subscriber) next() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.queue.Pop()
	s.delivering = ok
	return msg, ok
}

func (s *subscriber) idle() {
	s.mu.Lock()
	s.delivering = false
	s.mu.Unlock()
}

// run drains the queue until the subscriber is stopped or a delivery fails.
func (s *subscriber) run() {
	defer close(s.done)
	defer s.idle()

	for {
		if s.ctx.Err() != nil {
			return
		}

		msg, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.ctx.Done():
				return
			}
		}

		if err := s.conn.Deliver(s.ctx, s.topic, msg); err != nil {
			if s.ctx.Err() == nil {
				s.reg.detach(s, err)
			}
			return
		}
		s.reg.rec.Delivered(s.topic)
	}
}

// stop signals the worker to exit. Pending messages are discarded.
func (s *subscriber) stop() {
	s.cancel()
}

// wait blocks until the worker has exited or ctx is done.
func (s *subscriber) wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
