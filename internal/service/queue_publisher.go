// Package service holds integrations with systems outside the request path.
// Publisher sends domain events to RabbitMQ; errors are logged and returned
// so callers can choose to ignore them without failing the request.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/voltride-support/internal/queue"
)

// Publisher dials the broker per publish.  Event volume is low (orders and
// login codes), so a long-lived channel is not worth its reconnect logic.
type Publisher struct {
	URL string
	Log *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{URL: url, Log: log}
}

// Publish marshals v to JSON and publishes it persistently to queue via the
// default exchange, declaring the queue first.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	log := p.Log.With(zap.String("queue", queue))
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(v)
	if err != nil {
		log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}

// OrderPlaced publishes an order.placed event.
func (p *Publisher) OrderPlaced(ctx context.Context, ev q.OrderPlacedEvent) error {
	return p.Publish(ctx, q.OrderPlacedQueue, ev)
}

// OrderStatusChanged publishes an order.status_changed event.
func (p *Publisher) OrderStatusChanged(ctx context.Context, ev q.OrderStatusChangedEvent) error {
	return p.Publish(ctx, q.OrderStatusChangedQueue, ev)
}

// SendCode hands a login code to the SMS gateway through otp.requested.
func (p *Publisher) SendCode(ctx context.Context, phone, code string, expiresAt time.Time) error {
	return p.Publish(ctx, q.OTPRequestedQueue, q.OTPRequestedEvent{
		Phone:     phone,
		Code:      code,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
