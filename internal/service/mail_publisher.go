// Package service holds adapters that connect the ticket core to external
// systems.  MailPublisher implements ticket.Mailer on top of RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/config"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
	"github.com/iliyamo/ticket-lifecycle/internal/queue"
)

// MailPublisher hands outgoing ticket mail to the durable mail queue.  A
// connection is opened per message; dispatch volume is low and this keeps
// the publisher free of reconnect state.
type MailPublisher struct {
	url   string
	queue string
	clock clock.Clock
}

func NewMailPublisher(cfg config.BrokerConfig, clk clock.Clock) *MailPublisher {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &MailPublisher{url: cfg.URL, queue: cfg.MailQueue, clock: clk}
}

// Send publishes msg as a persistent JSON message.  Errors are returned
// with the failing step so the caller can log them.
func (p *MailPublisher) Send(ctx context.Context, msg model.Message) error {
	pub, err := p.publishing(msg)
	if err != nil {
		return err
	}
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
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *MailPublisher) publishing(msg model.Message) (amqp.Publishing, error) {
	now := p.clock.Now()
	body, err := json.Marshal(queue.NewTicketMailEvent(msg, now.Format(time.RFC3339)))
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal mail: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         body,
	}, nil
}
