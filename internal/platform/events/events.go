// Package events publishes workflow lifecycle events to Kafka so downstream
// consumers (card printing, analytics) can react without polling the store.
// Publishing is fire-and-forget: the workflow never fails because the broker
// is down.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const Topic = "passbuy.workflow"

// Event is the wire envelope for a lifecycle event.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	EntityID   string    `json:"entity_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	TypeApplicationCreated     = "application.created"
	TypeCardIssued             = "card.issued"
	TypeApplicationsReconciled = "applications.reconciled"
)

// Publisher emits lifecycle events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// Noop discards events; used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close()                         {}

// Kafka publishes events via franz-go.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(Topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &Kafka{client: client, logger: logger}, nil
}

// Publish produces asynchronously; delivery failures are logged, not returned.
func (k *Kafka) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		k.logger.ErrorContext(ctx, "marshal event", "error", err, "type", event.Type)
		return
	}
	record := &kgo.Record{Key: []byte(event.UserID), Value: payload}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.logger.Error("produce event", "error", err, "type", event.Type)
		}
	})
}

func (k *Kafka) Close() {
	k.client.Close()
}
