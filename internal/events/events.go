// Package events publishes engine lifecycle events (chain recomputed, check-in
// built) to Kafka. Without configured brokers a no-op publisher is used.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeChainRecomputed = "chain.recomputed"
	TypeCheckInBuilt    = "checkin.built"
	TypeBackfillDone    = "backfill.completed"
)

// Event is the JSON payload written to the topic.
type Event struct {
	Type       string          `json:"type"`
	UserID     uuid.UUID       `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// ChainRecomputed is the data of a TypeChainRecomputed event.
type ChainRecomputed struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Days         int    `json:"days"`
	Trigger      string `json:"trigger"`
	ChainVersion int64  `json:"chain_version"`
	LatestTdee   int    `json:"latest_tdee,omitempty"`
}

// CheckInBuilt is the data of a TypeCheckInBuilt event.
type CheckInBuilt struct {
	WeekStart         string `json:"week_start"`
	SuggestedCalories int    `json:"suggested_calories"`
	Eligible          bool   `json:"eligible"`
}

// New wraps data into an Event.
func New(eventType string, userID uuid.UUID, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return Event{Type: eventType, UserID: userID, OccurredAt: time.Now().UTC(), Data: raw}, nil
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
}

var errEmptyTopic = errors.New("kafka topic must not be empty")

// KafkaPublisher writes events keyed by user ID, so one user's events stay
// ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *slog.Logger
}

// NewPublisher returns a KafkaPublisher, or Noop when no brokers are configured.
func NewPublisher(cfg Config, log *slog.Logger) (Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Brokers) == 0 {
		log.Info("event_publisher_disabled", slog.String("reason", "no brokers"))
		return Noop{}, nil
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errEmptyTopic
	}
	w := newKafkaWriter(cfg, log)
	log.Info("event_publisher_enabled", slog.String("topic", cfg.Topic), slog.Int("brokers", len(cfg.Brokers)))
	return newKafkaPublisher(w, cfg.Topic, log), nil
}

// newKafkaWriter builds an async writer: WriteMessages only enqueues, and
// delivery failures surface through Completion.
func newKafkaWriter(cfg Config, log *slog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: false,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("event_delivery_err", slog.Int("messages", len(messages)), slog.Any("err", err))
			}
		},
	}
}

func newKafkaPublisher(w messageWriter, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		log:    log.With(slog.String("component", "event_publisher")),
	}
}

// Publish hands one event to the writer. With the async writer it returns
// once the message is queued.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("event_publish_err", slog.String("type", e.Type), slog.Any("err", err))
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	p.log.Debug("event_published", slog.String("type", e.Type), slog.String("user_id", e.UserID.String()))
	return nil
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
