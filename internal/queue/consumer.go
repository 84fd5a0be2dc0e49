package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ticket-lifecycle/internal/config"
)

// MailConsumer drains the mail queue and appends one line per message to
// <LogDir>/mail.log.  Delivery to a real mail relay plugs in here.
type MailConsumer struct {
	cfg    config.BrokerConfig
	logger *slog.Logger
}

func NewMailConsumer(cfg config.BrokerConfig, logger *slog.Logger) *MailConsumer {
	return &MailConsumer{cfg: cfg, logger: logger}
}

// Run dials the broker and consumes until ctx is canceled, reconnecting
// with exponential backoff when the connection drops.
func (m *MailConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(m.cfg.URL)
		if err != nil {
			m.logger.Warn("mail-consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = m.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.logger.Warn("mail-consumer: consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (m *MailConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		m.logger.Warn("mail-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(m.cfg.MailQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(m.cfg.MailQueue, "", false, false, false, false, nil)
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
			if err := handleMessage(m.cfg.LogDir, d.Body); err != nil {
				m.logger.Error("mail-consumer: handle message failed", "error", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(dir string, body []byte) error {
	var ev TicketMailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if strings.TrimSpace(ev.To) == "" {
		return errors.New("mail without recipient")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "mail.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	files := make([]string, 0, len(ev.Attachments))
	for _, a := range ev.Attachments {
		files = append(files, fmt.Sprintf("%s(%dB)", a.Filename, len(a.Content)))
	}
	line := fmt.Sprintf("[%s] Ticket mailed | to=%s | subject=%q | attachments=[%s]\n",
		ev.QueuedAt, ev.To, ev.Subject, strings.Join(files, ","))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
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
