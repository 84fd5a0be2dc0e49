package ticket

import (
	"context"
	"strings"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// CreateInput carries the fields of a new ticket.  Price is a
// "<amount> <CUR>" string; Status may be left empty to take the store
// default.
type CreateInput struct {
	EventID     string `json:"event_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
	Seat        string `json:"seat,omitempty"`
	Section     string `json:"section,omitempty"`
	Status      string `json:"status,omitempty"`
}

// CreateTicket validates and persists a new ticket.
type CreateTicket struct {
	deps  Deps
	input CreateInput
}

func NewCreateTicket(deps Deps, in CreateInput) *CreateTicket {
	return &CreateTicket{deps: deps, input: in}
}

// Execute validates every field before anything is written.
func (c *CreateTicket) Execute(ctx context.Context) (*model.Ticket, error) {
	in := c.input
	if strings.TrimSpace(in.EventID) == "" {
		return nil, invalid("event_id", "is required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return nil, invalid("type", "is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, invalid("description", "is required")
	}
	if in.Price == "" {
		return nil, invalid("price", "is required")
	}
	amount, currency, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, invalid("quantity", "must be greater than zero")
	}

	t := model.Ticket{
		EventID:     strings.TrimSpace(in.EventID),
		Type:        strings.TrimSpace(in.Type),
		Description: strings.TrimSpace(in.Description),
		Price:       amount,
		Currency:    currency,
		Quantity:    in.Quantity,
		Seat:        in.Seat,
		Section:     in.Section,
	}
	switch in.Status {
	case "", model.StatusAvailable:
		t.Status = in.Status
	case model.StatusSold:
		now := c.deps.clock().Now()
		t.Status = model.StatusSold
		t.PurchasedAt = &now
	default:
		return nil, invalid("status", "must be %q or %q", model.StatusAvailable, model.StatusSold)
	}

	saved, err := c.deps.Tickets.Save(ctx, t)
	if err != nil {
		return nil, err
	}
	c.deps.logger().InfoContext(ctx, "ticket created",
		"ticket_id", saved.ID, "event_id", saved.EventID, "type", saved.Type)
	return saved, nil
}
