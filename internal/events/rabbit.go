// Copyright 2026 The myAdmin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/myadmin/myadmin/internal/observability/logger"
)

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare %s: %w", queue, err)
	}
	return nil
}

// Publisher publishes events to RabbitMQ over one lazily dialled
// connection, redialling after failures.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declare(ch, QueueLedgerImported); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// PublishImported sends ev as a persistent JSON message.
func (p *Publisher) PublishImported(ctx context.Context, ev ImportedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",                  // default exchange
		QueueLedgerImported, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.closeLocked()
		return fmt.Errorf("publish %s: %w", QueueLedgerImported, err)
	}
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

// Outcome labels a handled delivery.
type Outcome string

const (
	OutcomeAcked    Outcome = "acked"
	OutcomeRejected Outcome = "rejected"
	OutcomeRequeued Outcome = "requeued"
)

// Consumer reads ledger.imported and runs a handler per event.
type Consumer struct {
	url      string
	handler  Handler
	prefetch int
	// OnOutcome is called after each delivery, for metrics.
	OnOutcome func(Outcome)
}

func NewConsumer(url string, handler Handler) *Consumer {
	return &Consumer{url: url, handler: handler, prefetch: 10}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	log := slog.Default().With(logger.Component("events"), logger.Queue(QueueLedgerImported))
	backoff := time.Second
	for {
		err := c.consume(ctx, func() { backoff = time.Second })
		if ctx.Err() != nil {
			return nil
		}
		log.WarnContext(ctx, "consumer disconnected, retrying", logger.Error(err), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

const maxBackoff = 30 * time.Second

func nextBackoff(d time.Duration) time.Duration {
	return min(d*2, maxBackoff)
}

func (c *Consumer) consume(ctx context.Context, connected func()) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if err := declare(ch, QueueLedgerImported); err != nil {
		return err
	}
	msgs, err := ch.Consume(QueueLedgerImported, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	connected()
	slog.InfoContext(ctx, "consumer started", logger.Queue(QueueLedgerImported))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(d, c.Handle(ctx, d.Body, d.Redelivered))
		}
	}
}

func (c *Consumer) settle(d amqp.Delivery, outcome Outcome) {
	switch outcome {
	case OutcomeAcked:
		_ = d.Ack(false)
	case OutcomeRequeued:
		_ = d.Nack(false, true)
	default:
		_ = d.Nack(false, false)
	}
}

// Handle runs the handler for one message body. Undecodable messages are
// rejected; handler failures are requeued once and then rejected.
func (c *Consumer) Handle(ctx context.Context, body []byte, redelivered bool) Outcome {
	outcome := c.handle(ctx, body, redelivered)
	if c.OnOutcome != nil {
		c.OnOutcome(outcome)
	}
	return outcome
}

func (c *Consumer) handle(ctx context.Context, body []byte, redelivered bool) Outcome {
	ev, err := Decode(body)
	if err != nil {
		slog.WarnContext(ctx, "rejecting message", logger.Queue(QueueLedgerImported), logger.Error(err))
		return OutcomeRejected
	}
	if err := c.handler(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "event handler failed",
			logger.Queue(QueueLedgerImported),
			logger.Tenant(ev.Tenant),
			logger.Error(err),
		)
		if redelivered {
			return OutcomeRejected
		}
		return OutcomeRequeued
	}
	return OutcomeAcked
}
