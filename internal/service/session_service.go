package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-console-api/internal/dto"
	"github.com/noah-isme/exam-console-api/internal/observability"
)

const sessionBufferSize = 8

// Session event types.
const (
	SessionEventSignedIn       = "signed_in"
	SessionEventSignedOut      = "signed_out"
	SessionEventProfileUpdated = "profile_updated"
)

// SessionPublisher emits session-changed notifications.
type SessionPublisher interface {
	Publish(ctx context.Context, event dto.SessionEvent)
}

// SessionService fans session-changed events out to subscribers of the same teacher,
// across nodes when a Redis channel or NATS subject is configured.
type SessionService interface {
	SessionPublisher
	Subscribe(teacherID uint) (<-chan dto.SessionEvent, func())
	Start(ctx context.Context)
}

// SessionBus names the optional cross-node transports.
type SessionBus struct {
	Redis        *redis.Client
	RedisChannel string
	NATS         *nats.Conn
	NATSSubject  string
}

type sessionService struct {
	bus    SessionBus
	logger zerolog.Logger
	broker *sessionBroker
	nodeID string
}

type sessionEnvelope struct {
	Source string           `json:"source"`
	Event  dto.SessionEvent `json:"event"`
}

type sessionBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.SessionEvent]struct{}
}

// NewSessionService constructs the session event hub.
func NewSessionService(bus SessionBus, logger zerolog.Logger) SessionService {
	return &sessionService{
		bus:    bus,
		logger: logger.With().Str("component", "session_service").Logger(),
		broker: &sessionBroker{subscribers: make(map[uint]map[chan dto.SessionEvent]struct{})},
		nodeID: uuid.NewString(),
	}
}

func (s *sessionService) Start(ctx context.Context) {
	if s.bus.Redis != nil && s.bus.RedisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.bus.NATS != nil && s.bus.NATSSubject != "" {
		s.consumeNATS(ctx)
	}
}

func (s *sessionService) Publish(ctx context.Context, event dto.SessionEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	observability.SessionEventsTotal().WithLabelValues(event.Type).Inc()
	s.broker.broadcast(event)

	payload, err := json.Marshal(sessionEnvelope{Source: s.nodeID, Event: event})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode session event")
		return
	}

	if s.bus.Redis != nil && s.bus.RedisChannel != "" {
		if err := s.bus.Redis.Publish(ctx, s.bus.RedisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish session event to redis")
		}
	}
	if s.bus.NATS != nil && s.bus.NATSSubject != "" {
		if err := s.bus.NATS.Publish(s.bus.NATSSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish session event to nats")
		}
	}
}

func (s *sessionService) Subscribe(teacherID uint) (<-chan dto.SessionEvent, func()) {
	channel := make(chan dto.SessionEvent, sessionBufferSize)
	s.broker.subscribe(teacherID, channel)

	var once sync.Once
	return channel, func() {
		once.Do(func() { s.broker.unsubscribe(teacherID, channel) })
	}
}

func (s *sessionService) consumeRedis(ctx context.Context) {
	pubsub := s.bus.Redis.Subscribe(ctx, s.bus.RedisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("session redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *sessionService) consumeNATS(ctx context.Context) {
	// Every node needs every event, so this is a plain subscription rather than a queue group.
	sub, err := s.bus.NATS.Subscribe(s.bus.NATSSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats session subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain session nats subscription")
		}
	}()
}

func (s *sessionService) handleEnvelope(payload []byte) {
	var envelope sessionEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid session event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *sessionBroker) subscribe(teacherID uint, ch chan dto.SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[teacherID]; !exists {
		b.subscribers[teacherID] = make(map[chan dto.SessionEvent]struct{})
	}
	b.subscribers[teacherID][ch] = struct{}{}
}

func (b *sessionBroker) unsubscribe(teacherID uint, ch chan dto.SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[teacherID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, teacherID)
		}
	}
}

func (b *sessionBroker) broadcast(event dto.SessionEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.TeacherID] {
		select {
		case ch <- event:
		default:
		}
	}
}
