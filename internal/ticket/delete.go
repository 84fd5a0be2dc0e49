package ticket

import (
	"context"
)

// DeleteTicket permanently removes a ticket.
type DeleteTicket struct {
	deps Deps
	id   string
}

func NewDeleteTicket(deps Deps, id string) *DeleteTicket {
	return &DeleteTicket{deps: deps, id: id}
}

// Execute checks existence first so a missing ticket never reaches the
// store's delete.
func (c *DeleteTicket) Execute(ctx context.Context) error {
	t, err := c.deps.Tickets.FindByID(ctx, c.id)
	if err != nil {
		return err
	}
	if t == nil {
		return &NotFoundError{Kind: "ticket", ID: c.id}
	}
	ok, err := c.deps.Tickets.Delete(ctx, ID(t.ID))
	if err != nil {
		return err
	}
	if !ok {
		return &NotFoundError{Kind: "ticket", ID: c.id}
	}
	c.deps.logger().InfoContext(ctx, "ticket deleted", "ticket_id", c.id)
	return nil
}
