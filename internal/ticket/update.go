package ticket

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// Patch lists the fields an update may change.  Nil fields are left
// untouched.  Status may only move from available to sold; canceling goes
// through CancelTicket.  UserID is only accepted on a sold ticket.
type Patch struct {
	Type          *string    `json:"type,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Price         *string    `json:"price,omitempty"`
	Quantity      *int       `json:"quantity,omitempty"`
	Seat          *string    `json:"seat,omitempty"`
	Section       *string    `json:"section,omitempty"`
	UserID        *string    `json:"user_id,omitempty"`
	Status        *string    `json:"status,omitempty"`
	IsReserved    *bool      `json:"is_reserved,omitempty"`
	ReservedUntil *time.Time `json:"reserved_until,omitempty"`
}

// UpdateTicket applies a Patch to an existing ticket.
type UpdateTicket struct {
	deps  Deps
	id    string
	patch Patch
}

func NewUpdateTicket(deps Deps, id string, patch Patch) *UpdateTicket {
	return &UpdateTicket{deps: deps, id: id, patch: patch}
}

func (c *UpdateTicket) Execute(ctx context.Context) (*model.Ticket, error) {
	t, err := c.deps.Tickets.FindByID(ctx, c.id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Kind: "ticket", ID: c.id}
	}
	if t.IsCanceled() {
		return nil, invalid("status", "canceled tickets cannot be modified")
	}

	p := c.patch
	if p.Type != nil {
		if strings.TrimSpace(*p.Type) == "" {
			return nil, invalid("type", "must not be empty")
		}
		t.Type = strings.TrimSpace(*p.Type)
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return nil, invalid("description", "must not be empty")
		}
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		amount, currency, err := ParsePrice(*p.Price)
		if err != nil {
			return nil, err
		}
		t.Price, t.Currency = amount, currency
	}
	if p.Quantity != nil {
		if *p.Quantity <= 0 {
			return nil, invalid("quantity", "must be greater than zero")
		}
		t.Quantity = *p.Quantity
	}
	if p.Seat != nil {
		t.Seat = *p.Seat
	}
	if p.Section != nil {
		t.Section = *p.Section
	}
	if p.UserID != nil {
		t.UserID = strings.TrimSpace(*p.UserID)
	}
	if p.Status != nil {
		if err := c.applyStatus(t, *p.Status); err != nil {
			return nil, err
		}
	}
	if t.UserID != "" && t.Status != model.StatusSold {
		return nil, invalid("user_id", "an owner can only be set on a sold ticket")
	}
	if p.IsReserved != nil {
		t.IsReserved = *p.IsReserved
		if !t.IsReserved {
			t.ReservedUntil = nil
		}
	}
	if p.ReservedUntil != nil {
		if !t.IsReserved {
			return nil, invalid("reserved_until", "requires is_reserved")
		}
		until := p.ReservedUntil.UTC()
		t.ReservedUntil = &until
	}

	saved, err := c.deps.Tickets.Save(ctx, *t)
	if err != nil {
		return nil, err
	}
	c.deps.logger().InfoContext(ctx, "ticket updated", "ticket_id", saved.ID, "status", saved.Status)
	return saved, nil
}

func (c *UpdateTicket) applyStatus(t *model.Ticket, status string) error {
	if status == t.Status {
		return nil
	}
	switch status {
	case model.StatusSold:
		now := c.deps.clock().Now()
		t.Status = model.StatusSold
		t.PurchasedAt = &now
		t.IsReserved = false
		t.ReservedUntil = nil
	case model.StatusAvailable:
		return invalid("status", "a sold ticket cannot be made available again")
	case model.StatusCanceled:
		return invalid("status", "use cancel to cancel a ticket")
	default:
		return invalid("status", "must be %q or %q", model.StatusAvailable, model.StatusSold)
	}
	return nil
}
