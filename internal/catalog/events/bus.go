// Package events fans domain events out to the notification channels registered at startup.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/product-catalog/internal/catalog/domain"
	"github.com/tair/product-catalog/pkg/logger"
)

// Notification is the channel-neutral form of a domain event
type Notification struct {
	ID          string          `json:"id"`
	Name        string          `json:"event"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Subscriber receives every notification published on the bus
type Subscriber interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

var deliveries = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_event_deliveries_total",
		Help: "Event deliveries by subscriber and status",
	},
	[]string{"subscriber", "status"},
)

func init() {
	prometheus.MustRegister(deliveries)
}

// Bus implements domain.EventPublisher. Delivery is synchronous and in registration order;
// a failing subscriber is logged and skipped. Events describe committed writes, so delivery
// ignores the caller's cancellation and is bounded by deliveryTimeout instead.
type Bus struct {
	subscribers []Subscriber
}

func NewBus(subscribers ...Subscriber) *Bus {
	return &Bus{subscribers: subscribers}
}

var _ domain.EventPublisher = (*Bus)(nil)

const deliveryTimeout = 10 * time.Second

func (b *Bus) Publish(ctx context.Context, events ...domain.DomainEvent) {
	if len(b.subscribers) == 0 || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliveryTimeout)
	defer cancel()

	for _, event := range events {
		n, err := ToNotification(event)
		if err != nil {
			logger.Error(ctx).Err(err).Str("event", event.EventName()).Msg("Failed to encode domain event")
			continue
		}
		for _, sub := range b.subscribers {
			b.deliver(ctx, sub, n)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, sub Subscriber, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			deliveries.WithLabelValues(sub.Name(), "panic").Inc()
			logger.Error(ctx).
				Str("subscriber", sub.Name()).
				Str("event", n.Name).
				Interface("panic", r).
				Msg("Event subscriber panicked")
		}
	}()

	if err := sub.Notify(ctx, n); err != nil {
		deliveries.WithLabelValues(sub.Name(), "error").Inc()
		logger.Warn(ctx).
			Err(err).
			Str("subscriber", sub.Name()).
			Str("event", n.Name).
			Str("aggregate_id", n.AggregateID).
			Msg("Event delivery failed")
		return
	}

	deliveries.WithLabelValues(sub.Name(), "ok").Inc()
	logger.Debug(ctx).
		Str("subscriber", sub.Name()).
		Str("event", n.Name).
		Str("aggregate_id", n.AggregateID).
		Msg("Event delivered")
}

// ToNotification encodes a domain event for delivery
func ToNotification(event domain.DomainEvent) (Notification, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to marshal %s: %w", event.EventName(), err)
	}
	return Notification{
		ID:          uuid.NewString(),
		Name:        event.EventName(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     payload,
	}, nil
}
