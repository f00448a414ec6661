package broker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/wspubsub/core/logger"
)

// TopicInfo is a ListTopics entry.
type TopicInfo struct {
	Name        string `json:"name"`
	Subscribers int    `json:"subscribers"`
}

// TopicStats is a Stats entry.
type TopicStats struct {
	Messages    int `json:"messages"`
	Subscribers int `json:"subscribers"`
}

// Totals aggregates the registry for health reporting.
type Totals struct {
	Topics      int
	Subscribers int
}

type topic struct {
	name    string
	history *Ring[Message]
	subs    map[string]*subscriber
}

// Registry owns all topics. Safe for concurrent use.
type Registry struct {
	cfg Config
	log *slog.Logger
	rec Recorder

	mu     sync.RWMutex
	topics map[string]*topic
	order  []string
}

// New creates a registry with default settings adjusted by opts.
// It panics if the resulting configuration is invalid; use NewFromConfig
// to get an error instead.
func New(opts ...Option) *Registry {
	r, err := NewFromConfig(DefaultConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// NewFromConfig creates a registry from cfg. Options override config values.
func NewFromConfig(cfg Config, opts ...Option) (*Registry, error) {
	r := &Registry{
		cfg:    cfg,
		log:    logger.Nop(),
		rec:    nopRecorder{},
		topics: make(map[string]*topic),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	r.log = r.log.With(logger.Component("broker"))
	return r, nil
}

// CreateTopic adds an empty topic. It fails with ErrTopicExists if the name is taken.
func (r *Registry) CreateTopic(name string) error {
	if name == "" {
		return ErrEmptyTopicName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[name]; ok {
		return fmt.Errorf("%w: %s", ErrTopicExists, name)
	}
	r.topics[name] = &topic{
		name:    name,
		history: NewRing[Message](r.cfg.HistorySize),
		subs:    make(map[string]*subscriber),
	}
	r.order = append(r.order, name)
	r.rec.TopicCreated(name)
	r.log.Info("topic created", logger.Topic(name))
	return nil
}

// DeleteTopic removes a topic and detaches its subscribers. Each affected
// connection then receives one topic_deleted notice, sent directly.
// ctx bounds the wait for in-flight deliveries only: the notice is written
// even when that wait times out, bounded by the connection's write timeout.
func (r *Registry) DeleteTopic(ctx context.Context, name string) error {
	r.mu.Lock()
	t, ok := r.topics[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTopicNotFound, name)
	}
	delete(r.topics, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })

	subs := make([]*subscriber, 0, len(t.subs))
	for id, s := range t.subs {
		delete(t.subs, id)
		s.stop()
		r.rec.Unsubscribed(name, ReasonTopicDeleted)
		subs = append(subs, s)
	}
	r.rec.TopicDeleted(name)
	r.mu.Unlock()

	r.notifyDeleted(ctx, name, subs)

	r.log.Info("topic deleted", logger.Topic(name), logger.Count("subscribers", len(subs)))
	return nil
}

// notifyDeleted sends one topic_deleted notice per connection. Connections
// are handled in parallel so one stalled client cannot hold back the others.
func (r *Registry) notifyDeleted(ctx context.Context, name string, subs []*subscriber) {
	byConn := make(map[Conn][]*subscriber, len(subs))
	for _, s := range subs {
		byConn[s.conn] = append(byConn[s.conn], s)
	}

	notifyCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(notifyConcurrency)
	for conn, owned := range byConn {
		g.Go(func() error {
			// In-flight events land first so the notice is the last frame for this topic.
			for _, s := range owned {
				if err := s.wait(ctx); err != nil {
					r.log.Warn("in-flight delivery outlived topic deletion",
						logger.Topic(name), logger.ClientID(s.clientID), logger.Error(err))
				}
			}
			if err := conn.Notify(notifyCtx, name, NoticeTopicDeleted); err != nil {
				r.log.Debug("topic deletion notice failed",
					logger.Topic(name), logger.ClientID(owned[0].clientID), logger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ListTopics returns every topic with its subscriber count, in creation order.
func (r *Registry) ListTopics() []TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TopicInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, TopicInfo{Name: name, Subscribers: len(r.topics[name].subs)})
	}
	return out
}

// Stats returns history length and subscriber count per topic.
func (r *Registry) Stats() map[string]TopicStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]TopicStats, len(r.topics))
	for name, t := range r.topics {
		out[name] = TopicStats{Messages: t.history.Len(), Subscribers: len(t.subs)}
	}
	return out
}

// Totals returns the number of topics and subscribers.
func (r *Registry) Totals() Totals {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tot := Totals{Topics: len(r.topics)}
	for _, t := range r.topics {
		tot.Subscribers += len(t.subs)
	}
	return tot
}

// History returns a copy of a topic's retained messages, oldest first.
func (r *Registry) History(name string) ([]Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.topics[name]
	if !ok {
		return nil, false
	}
	return t.history.Items(), true
}

// Subscribe attaches conn to a topic under conn.ClientID(), replacing any
// previous subscriber with that id, and queues the newest lastN history
// messages for replay. It does nothing and returns false when the topic
// does not exist or the connection has no client id.
func (r *Registry) Subscribe(name string, conn Conn, lastN int) bool {
	id := conn.ClientID()
	if id == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[name]
	if !ok {
		return false
	}

	if prev, ok := t.subs[id]; ok {
		prev.stop()
		r.rec.Unsubscribed(name, ReasonReplaced)
	}

	s := newSubscriber(r, name, id, conn, r.cfg.QueueSize)
	t.subs[id] = s
	for _, msg := range t.history.Last(lastN) {
		s.enqueue(msg)
	}
	go s.run()

	r.rec.Subscribed(name)
	r.log.Debug("subscribed", logger.Topic(name), logger.ClientID(id), logger.Count("replay", min(lastN, t.history.Len())))
	return true
}

// Unsubscribe detaches conn's current client id from a topic. Entries that
// belong to another connection are left alone.
func (r *Registry) Unsubscribe(name string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[name]
	if !ok {
		return false
	}
	s, ok := t.subs[conn.ClientID()]
	if !ok || s.conn != conn {
		return false
	}
	r.remove(t, s, ReasonUnsubscribe)
	return true
}

// Publish appends msg to the topic history and queues it for every current
// subscriber. It returns false if the topic does not exist.
func (r *Registry) Publish(name string, msg Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[name]
	if !ok {
		return false
	}

	t.history.Push(msg)
	r.rec.Published(name)

	for _, s := range t.subs {
		if r.cfg.OverflowPolicy == Disconnect && s.full() {
			r.remove(t, s, ReasonSlowConsumer)
			r.log.Warn("slow consumer disconnected", logger.Topic(name), logger.ClientID(s.clientID))
			go s.conn.Disconnect(ErrSlowConsumer)
			continue
		}
		if s.enqueue(msg) {
			r.rec.Dropped(name)
		}
	}
	return true
}

// Cleanup detaches every subscriber owned by conn on every topic and returns
// how many were removed.
func (r *Registry) Cleanup(conn Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, t := range r.topics {
		for _, s := range t.subs {
			if s.conn == conn {
				r.remove(t, s, ReasonCleanup)
				n++
			}
		}
	}
	return n
}

// Close stops every subscriber worker and waits for them to exit or for ctx.
// Topics and their history are kept.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	var subs []*subscriber
	for _, t := range r.topics {
		for _, s := range t.subs {
			r.remove(t, s, ReasonClosed)
			subs = append(subs, s)
		}
	}
	r.mu.Unlock()

	pending := 0
	for _, s := range subs {
		if s.wait(ctx) != nil {
			pending++
		}
	}
	if pending > 0 {
		r.log.Warn("subscriber workers still running after close", logger.Count("pending", pending))
		return fmt.Errorf("close: %d subscriber workers still running: %w", pending, ctx.Err())
	}
	return nil
}

// detach is called by a subscriber whose delivery failed.
func (r *Registry) detach(s *subscriber, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[s.topic]
	if !ok || t.subs[s.clientID] != s {
		return
	}
	r.remove(t, s, ReasonDeliveryFailed)
	r.log.Debug("subscriber removed after delivery failure",
		logger.Topic(s.topic), logger.ClientID(s.clientID), logger.Error(cause))
}

// remove must be called with r.mu held.
func (r *Registry) remove(t *topic, s *subscriber, reason string) {
	delete(t.subs, s.clientID)
	s.stop()
	r.rec.Unsubscribed(t.name, reason)
}
