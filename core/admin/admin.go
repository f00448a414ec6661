package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/wspubsub/core/broker"
	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/logger"
	"github.com/dmitrymomot/wspubsub/core/response"
	"github.com/dmitrymomot/wspubsub/core/router"
)

var (
	ErrInvalidBody   = response.ErrBadRequest.WithMessage("Invalid JSON body")
	ErrMissingName   = response.ErrBadRequest.WithMessage("Missing topic name")
	ErrTopicExists   = response.ErrConflict.WithMessage("Topic already exists")
	ErrTopicNotFound = response.ErrNotFound.WithMessage("Topic not found")
)

// DefaultDeleteTimeout bounds the wait for in-flight deliveries on delete.
const DefaultDeleteTimeout = 5 * time.Second

// Topics is the registry surface the admin handlers need.
type Topics interface {
	CreateTopic(name string) error
	DeleteTopic(ctx context.Context, name string) error
	ListTopics() []broker.TopicInfo
	Stats() map[string]broker.TopicStats
	Totals() broker.Totals
}

// Service holds handler dependencies.
type Service struct {
	topics        Topics
	started       time.Time
	now           func() time.Time
	deleteTimeout time.Duration
	log           *slog.Logger
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source for uptime. The start time is read
// from it once, when the service is created.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithDeleteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deleteTimeout = d
		}
	}
}

func New(topics Topics, opts ...Option) *Service {
	s := &Service{
		topics:        topics,
		now:           time.Now,
		deleteTimeout: DefaultDeleteTimeout,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	s.log = s.log.With(logger.Component("admin"))
	return s
}

// Mount registers the admin routes on r.
func Mount[C handler.Context](r router.Router[C], s *Service) {
	r.Post("/topics", CreateTopic[C](s))
	r.Delete("/topics/{name}", DeleteTopic[C](s))
	r.Get("/topics", ListTopics[C](s))
	r.Get("/stats", Stats[C](s))
	r.Get("/health", Health[C](s))
}

type createTopicRequest struct {
	Name string `json:"name"`
}

type topicStatus struct {
	Status string `json:"status"`
	Topic  string `json:"topic"`
}

func CreateTopic[C handler.Context](s *Service) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		var req createTopicRequest
		if body := ctx.Request().Body; body != nil {
			if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return response.Error(response.ErrRequestEntityTooLarge)
				}
				return response.Error(ErrInvalidBody)
			}
		}
		if req.Name == "" {
			return response.Error(ErrMissingName)
		}

		if err := s.topics.CreateTopic(req.Name); err != nil {
			if errors.Is(err, broker.ErrTopicExists) {
				return response.Error(ErrTopicExists)
			}
			return response.Error(err)
		}
		return response.JSONWithStatus(topicStatus{Status: "created", Topic: req.Name}, http.StatusCreated)
	}
}

func DeleteTopic[C handler.Context](s *Service) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		name := ctx.Param("name")

		dctx, cancel := context.WithTimeout(ctx, s.deleteTimeout)
		defer cancel()
		if err := s.topics.DeleteTopic(dctx, name); err != nil {
			if errors.Is(err, broker.ErrTopicNotFound) {
				return response.Error(ErrTopicNotFound)
			}
			s.log.ErrorContext(ctx, "delete topic", logger.Topic(name), logger.Error(err))
			return response.Error(err)
		}
		return response.JSON(topicStatus{Status: "deleted", Topic: name})
	}
}

func ListTopics[C handler.Context](s *Service) handler.HandlerFunc[C] {
	return func(C) handler.Response {
		return response.JSON(map[string][]broker.TopicInfo{"topics": s.topics.ListTopics()})
	}
}

func Stats[C handler.Context](s *Service) handler.HandlerFunc[C] {
	return func(C) handler.Response {
		return response.JSON(map[string]map[string]broker.TopicStats{"topics": s.topics.Stats()})
	}
}

type healthReport struct {
	UptimeSec   int64 `json:"uptime_sec"`
	Topics      int   `json:"topics"`
	Subscribers int   `json:"subscribers"`
}

func Health[C handler.Context](s *Service) handler.HandlerFunc[C] {
	return func(C) handler.Response {
		tot := s.topics.Totals()
		return response.JSON(healthReport{
			UptimeSec:   int64(s.now().Sub(s.started) / time.Second),
			Topics:      tot.Topics,
			Subscribers: tot.Subscribers,
		})
	}
}
