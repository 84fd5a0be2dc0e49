package ticket

import (
	"context"
)

// CancelTicket cancels an available or sold ticket.  Canceled and used
// tickets are terminal.
type CancelTicket struct {
	deps   Deps
	id     string
	reason string
}

func NewCancelTicket(deps Deps, id, reason string) *CancelTicket {
	return &CancelTicket{deps: deps, id: id, reason: reason}
}

func (c *CancelTicket) Execute(ctx context.Context) error {
	t, err := c.deps.Tickets.FindByID(ctx, c.id)
	if err != nil {
		return err
	}
	if t == nil {
		return invalid("id", "ticket does not exist")
	}
	if t.IsCanceled() {
		return invalid("status", "ticket has already been canceled")
	}
	if t.Validated {
		return invalid("validated", "cannot cancel a used ticket: it has already been utilized")
	}

	ok, err := c.deps.Tickets.CancelTicket(ctx, c.id, c.reason)
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Kind: "ticket", ID: c.id}
	}
	c.deps.logger().InfoContext(ctx, "ticket canceled", "ticket_id", c.id, "reason", c.reason)
	return nil
}
