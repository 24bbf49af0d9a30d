package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one job id. A nil return acks the message.
type Handler func(ctx context.Context, jobID string) error

// Acknowledger is the subset of amqp.Delivery the dispatch loop needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *slog.Logger
}

// NewConsumer dials RabbitMQ with a prefetch of one so each worker holds a
// single job at a time.
func NewConsumer(amqpURL, queue string, log *slog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	queue = queueOrDefault(queue)
	if err := declare(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, channel: ch, queue: queue, log: log}, nil
}

// Consume blocks until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			deliver(ctx, c.log, d.Body, d, handler)
		}
	}
}

// deliver decodes one message and settles it. Malformed bodies are dropped;
// handler errors are requeued for another attempt.
func deliver(ctx context.Context, log *slog.Logger, body []byte, ack Acknowledger, handler Handler) {
	var msg JobMessage
	if err := json.Unmarshal(body, &msg); err != nil || msg.JobID == "" {
		log.Error("malformed job message", "err", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := handler(ctx, msg.JobID); err != nil {
		log.Error("job handler failed", "job_id", msg.JobID, "err", err)
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}

func (c *Consumer) Close() {
	c.channel.Close()
	c.conn.Close()
}
