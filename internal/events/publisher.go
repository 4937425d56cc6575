package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits cart activity. Callers treat failures as non-fatal.
type Publisher interface {
	PublishCartActivity(ctx context.Context, eventName string, meta EventMeta, payload CartActivity) error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) PublishCartActivity(context.Context, string, EventMeta, CartActivity) error { return nil }

func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

type RabbitPublisher struct {
	ch       *amqp.Channel
	producer string
	now      func() time.Time
}

func NewRabbitPublisher(conn *amqp.Connection) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &RabbitPublisher{ch: ch, producer: producerName, now: time.Now}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishCartActivity(ctx context.Context, eventName string, meta EventMeta, payload CartActivity) error {
	routingKey, ok := RoutingKey(eventName)
	if !ok {
		return fmt.Errorf("unknown cart event %q", eventName)
	}

	env, err := newCartEvent(eventName, meta, p.producer, payload, p.now().UTC())
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventName, err)
	}

	return p.publishJSON(ctx, routingKey, body)
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func newCartEvent(eventName string, meta EventMeta, producer string, payload CartActivity, occurredAt time.Time) (EventEnvelope, error) {
	if payload.Timestamp.IsZero() {
		payload.Timestamp = occurredAt
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s payload: %w", eventName, err)
	}
	return EventEnvelope{
		EventName:     eventName,
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		Producer:      producer,
		PartitionKey:  meta.PartitionKey,
		OccurredAt:    occurredAt,
		Schema:        schemaOf(eventName),
		Payload:       raw,
	}, nil
}
