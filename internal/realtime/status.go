// Package realtime pushes ticket status changes to PubNub so gate scanners
// and box-office screens refresh without polling.
package realtime

import (
	"context"
	"log/slog"
	"time"

	pubnub "github.com/pubnub/go"

	"github.com/iliyamo/ticket-lifecycle/internal/config"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// StatusChange is the payload published on every ticket transition.
type StatusChange struct {
	Type      string `json:"type"`
	TicketID  string `json:"ticket_id"`
	EventID   string `json:"event_id"`
	Status    string `json:"status"`
	Validated bool   `json:"validated"`
	At        string `json:"at"`
}

type publishFunc func(channel string, msg any) error

// Broadcaster publishes status changes.  A nil *Broadcaster is valid and
// publishes nothing.
type Broadcaster struct {
	channel string
	publish publishFunc
	logger  *slog.Logger
}

// NewBroadcaster returns nil when cfg has no keys.
func NewBroadcaster(cfg config.RealtimeConfig, logger *slog.Logger) *Broadcaster {
	if !cfg.Enabled() {
		return nil
	}
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PublishKey
	pnConfig.SubscribeKey = cfg.SubscribeKey
	pnConfig.UUID = cfg.UUID
	pn := pubnub.NewPubNub(pnConfig)

	return &Broadcaster{
		channel: cfg.Channel,
		logger:  logger,
		publish: func(channel string, msg any) error {
			_, _, err := pn.Publish().Channel(channel).Message(msg).Execute()
			return err
		},
	}
}

// TicketChanged publishes t's current state.  Failures are logged only;
// a missed broadcast never fails the request that caused it.
func (b *Broadcaster) TicketChanged(ctx context.Context, kind string, t model.Ticket) {
	if b == nil {
		return
	}
	msg := StatusChange{
		Type:      kind,
		TicketID:  t.ID,
		EventID:   t.EventID,
		Status:    t.Status,
		Validated: t.Validated,
		At:        t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if err := b.publish(b.channel, msg); err != nil {
		b.logger.WarnContext(ctx, "status broadcast failed", "ticket_id", t.ID, "error", err)
	}
}
