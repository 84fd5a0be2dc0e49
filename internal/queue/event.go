// Package queue defines the mail outbox payload exchanged over RabbitMQ and
// the consumer that drains it.
package queue

import "github.com/iliyamo/ticket-lifecycle/internal/model"

// TicketMailEvent is published when a ticket is dispatched.  It carries the
// whole message, attachment included, so the consumer never needs to read
// the ticket store.
type TicketMailEvent struct {
	To          string             `json:"to"`
	Subject     string             `json:"subject"`
	Text        string             `json:"text"`
	HTML        string             `json:"html,omitempty"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
	QueuedAt    string             `json:"queued_at"`
}

// NewTicketMailEvent wraps msg for publishing.
func NewTicketMailEvent(msg model.Message, queuedAt string) TicketMailEvent {
	return TicketMailEvent{
		To:          msg.To,
		Subject:     msg.Subject,
		Text:        msg.Text,
		HTML:        msg.HTML,
		Attachments: msg.Attachments,
		QueuedAt:    queuedAt,
	}
}
