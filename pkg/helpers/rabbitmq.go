package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher wraps an AMQP channel and queue for publishing messages.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	mu    sync.Mutex // amqp channels are not safe for concurrent publish
	Queue string
}

// DialRabbit connects and declares the durable queue, retrying while the broker comes up.
func DialRabbit(ctx context.Context, url, queue string, attempts uint64) (*amqp.Connection, *amqp.Channel, error) {
	var (
		conn *amqp.Connection
		ch   *amqp.Channel
	)
	err := RetryConnect(ctx, attempts, 500*time.Millisecond, func(ctx context.Context) error {
		c, err := amqp.Dial(url)
		if err != nil {
			return err
		}
		chn, err := c.Channel()
		if err != nil {
			_ = c.Close()
			return err
		}
		if _, err := chn.QueueDeclare(
			queue,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			_ = chn.Close()
			_ = c.Close()
			return err
		}
		conn, ch = c, chn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return conn, ch, nil
}

func NewRabbitPublisher(ctx context.Context, url, queue string) (*RabbitPublisher, error) {
	conn, ch, err := DialRabbit(ctx, url, queue, 5)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{conn: conn, ch: ch, Queue: queue}, nil
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// PublishJSON publishes a JSON-encoded message to the default queue.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	if p == nil || p.ch == nil {
		return errors.New("rabbitmq publisher not connected")
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.Queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
}
