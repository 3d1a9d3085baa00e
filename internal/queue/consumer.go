package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/mail"
)

// Consumer reads notification events from RabbitMQ and mails the
// recipient.  Malformed or undeliverable messages are rejected without
// requeue so one bad message cannot block the queue.
type Consumer struct {
	url     string
	queue   string
	sender  mail.Sender
	baseURL string
	log     *zap.Logger
}

// NewConsumer returns a consumer that renders each event from queue as
// a mail and hands it to sender.  baseURL prefixes links in the mails.
func NewConsumer(url, queue string, sender mail.Sender, baseURL string, log *zap.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, sender: sender, baseURL: baseURL, log: log}
}

// Run connects and consumes until ctx is cancelled, reconnecting with an
// exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("notification consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("notification consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("notification consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Error("notification consumer: handle failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and sends the matching mail.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.RecipientEmail == "" {
		return fmt.Errorf("event %s has no recipient", ev.Type)
	}
	msg, err := Render(ev, c.baseURL)
	if err != nil {
		return err
	}
	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s: %w", ev.Type, err)
	}
	c.log.Info("notification mailed", zap.String("event", ev.Type), zap.String("to", ev.RecipientEmail))
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
