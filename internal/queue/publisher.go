package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends notification events to a durable RabbitMQ queue.  It
// dials per publish: notifications are rare compared to reads and a
// short-lived connection survives broker restarts without bookkeeping.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

// NewPublisher returns a Notifier that publishes to queue on the broker
// at url.
func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, log: log}
}

// Notify publishes ev as a persistent JSON message.  Errors are returned
// so the caller can log them; they never affect the state change that
// produced the event.
func (p *Publisher) Notify(ctx context.Context, ev Event) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug("event published", zap.String("event", ev.Type), zap.String("queue", p.queue))
	return nil
}

// LogNotifier only logs events.  It stands in for the broker in
// development and when NOTIFY_DRIVER=log.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a Notifier that logs events at info level.
func NewLogNotifier(log *zap.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.log.Info("notification",
		zap.String("event", ev.Type),
		zap.String("to", ev.RecipientEmail),
		zap.Uint64("reservation_id", ev.ReservationID),
		zap.Uint64("rental_id", ev.RentalID),
	)
	return nil
}
