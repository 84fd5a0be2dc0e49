package ticket

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// Dispatched describes a delivered ticket.
type Dispatched struct {
	Recipient string `json:"recipient"`
	Filename  string `json:"filename"`
}

// DispatchTicket sends the ticket artifact to its owner, or to recipient
// when one is given.
type DispatchTicket struct {
	deps      Deps
	id        string
	recipient string
}

func NewDispatchTicket(deps Deps, ticketID, recipient string) *DispatchTicket {
	return &DispatchTicket{deps: deps, id: ticketID, recipient: strings.TrimSpace(recipient)}
}

func (c *DispatchTicket) Execute(ctx context.Context) (*Dispatched, error) {
	t, err := c.deps.Tickets.FindByID(ctx, c.id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, invalid("id", "ticket does not exist")
	}
	ev, err := c.deps.Events.FindByID(ctx, t.EventID)
	if err != nil {
		return nil, fmt.Errorf("find event %s: %w", t.EventID, err)
	}
	if ev == nil {
		return nil, invalid("event_id", "event does not exist")
	}

	var user *model.User
	if t.UserID != "" {
		if user, err = c.deps.Users.FindByID(ctx, t.UserID); err != nil {
			return nil, fmt.Errorf("find user %s: %w", t.UserID, err)
		}
	}
	if user == nil && c.recipient == "" {
		return nil, invalid("user_id", "ticket owner does not exist")
	}
	to := c.recipient
	if to == "" {
		to = strings.TrimSpace(user.Email)
	}
	if to == "" {
		return nil, invalid("recipient", "no recipient address")
	}

	art, err := NewProduceArtifact(c.deps, c.id).Execute(ctx)
	if err != nil {
		return nil, err
	}

	msg := composeMessage(to, user, *t, *ev, art)
	if err := c.deps.Mailer.Send(ctx, msg); err != nil {
		c.deps.logger().ErrorContext(ctx, "ticket dispatch failed",
			"ticket_id", c.id, "recipient", to, "error", err)
		return nil, ErrDispatch
	}
	c.deps.logger().InfoContext(ctx, "ticket dispatched", "ticket_id", c.id, "recipient", to)
	return &Dispatched{Recipient: to, Filename: art.Filename}, nil
}

func composeMessage(to string, user *model.User, t model.Ticket, ev model.Event, art *Artifact) model.Message {
	greeting := "Hello,"
	if user != nil && user.Name != "" {
		greeting = "Hello " + user.Name + ","
	}
	text := fmt.Sprintf("%s\n\nYour ticket %s for %s is attached.\nPresent it at the entrance.\n",
		greeting, t.Code, ev.Name)
	htmlBody := fmt.Sprintf("<p>%s</p><p>Your ticket <strong>%s</strong> for <strong>%s</strong> is attached.</p><p>Present it at the entrance.</p>",
		html.EscapeString(greeting), html.EscapeString(t.Code), html.EscapeString(ev.Name))
	return model.Message{
		To:      to,
		Subject: "Your ticket for " + ev.Name,
		Text:    text,
		HTML:    htmlBody,
		Attachments: []model.Attachment{{
			Filename:    art.Filename,
			ContentType: art.ContentType,
			Content:     art.Content,
		}},
	}
}
