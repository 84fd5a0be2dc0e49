package ticket

import (
	"context"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// ValidateTicket redeems a sold ticket at the event gate.
type ValidateTicket struct {
	deps Deps
	id   string
}

func NewValidateTicket(deps Deps, id string) *ValidateTicket {
	return &ValidateTicket{deps: deps, id: id}
}

func (c *ValidateTicket) Execute(ctx context.Context) error {
	t, err := c.deps.Tickets.FindByID(ctx, c.id)
	if err != nil {
		return err
	}
	if t == nil {
		return invalid("id", "ticket does not exist")
	}
	if t.Validated {
		return invalid("validated", "ticket has already been validated")
	}
	if t.Status != model.StatusSold {
		return invalid("status", "cannot validate a ticket with status %q", t.Status)
	}

	ok, err := c.deps.Tickets.ValidateTicket(ctx, c.id)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Kind: "ticket", ID: c.id}
	}
	c.deps.logger().InfoContext(ctx, "ticket validated", "ticket_id", c.id)
	return nil
}
