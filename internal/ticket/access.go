package ticket

import (
	"context"
	"fmt"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/mapper"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// Access mediates between commands/queries and the Store.  It translates
// between the flat and rich shapes and does not enforce business rules;
// callers check preconditions first.  Store errors are returned wrapped but
// otherwise unchanged.
type Access struct {
	store Store
	tr    mapper.Translator
	clock clock.Clock
}

// NewAccess returns an Access over store.  A nil clock falls back to the
// system clock.
func NewAccess(store Store, tr mapper.Translator, clk clock.Clock) *Access {
	if store == nil {
		panic("nil store passed to NewAccess")
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Access{store: store, tr: tr, clock: clk}
}

// FindByID returns the ticket or nil when it does not exist.
func (a *Access) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	e, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find ticket %s: %w", id, err)
	}
	return a.tr.ToApplication(e), nil
}

func (a *Access) FindByEvent(ctx context.Context, event Ref) ([]model.Ticket, error) {
	return a.list(a.store.FindByEvent(ctx, event.Reference()))
}

func (a *Access) FindByUser(ctx context.Context, user Ref) ([]model.Ticket, error) {
	return a.list(a.store.FindByUser(ctx, user.Reference()))
}

func (a *Access) FindByStatus(ctx context.Context, status Ref) ([]model.Ticket, error) {
	return a.list(a.store.FindByStatus(ctx, status.Reference()))
}

func (a *Access) FindByType(ctx context.Context, typ Ref) ([]model.Ticket, error) {
	return a.list(a.store.FindByType(ctx, typ.Reference()))
}

func (a *Access) FindAll(ctx context.Context) ([]model.Ticket, error) {
	return a.list(a.store.FindAll(ctx))
}

func (a *Access) FindAvailableTickets(ctx context.Context) ([]model.Ticket, error) {
	return a.list(a.store.FindAvailableTickets(ctx))
}

func (a *Access) FindSoldTickets(ctx context.Context) ([]model.Ticket, error) {
	return a.list(a.store.FindSoldTickets(ctx))
}

// FindActiveTickets returns tickets that can still be used: not canceled
// and not yet validated.
func (a *Access) FindActiveTickets(ctx context.Context) ([]model.Ticket, error) {
	return a.list(a.store.FindActiveTickets(ctx))
}

// FindInactiveTickets returns canceled or already validated tickets.
func (a *Access) FindInactiveTickets(ctx context.Context) ([]model.Ticket, error) {
	return a.list(a.store.FindInactiveTickets(ctx))
}

func (a *Access) SearchByText(ctx context.Context, query string) ([]model.Ticket, error) {
	return a.list(a.store.SearchByText(ctx, query))
}

// FindWithFilters runs a filtered, paginated search.  Nil arguments mean no
// filter and the default page.  Paging numbers from the store are passed
// through unchanged.
func (a *Access) FindWithFilters(ctx context.Context, f *model.TicketFilter, p *model.Pagination) (model.Page[model.Ticket], error) {
	var filter model.TicketFilter
	if f != nil {
		filter = *f
	}
	res, err := a.store.FindWithFilters(ctx, filter, NormalizePagination(p))
	if err != nil {
		return model.Page[model.Ticket]{}, fmt.Errorf("search tickets: %w", err)
	}
	return model.Page[model.Ticket]{
		Items:      a.tr.ToApplicationAll(res.Items),
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}, nil
}

// Save persists t and returns the stored record.
func (a *Access) Save(ctx context.Context, t model.Ticket) (*model.Ticket, error) {
	saved, err := a.store.Save(ctx, a.tr.ToDomain(&t))
	if err != nil {
		return nil, fmt.Errorf("save ticket: %w", err)
	}
	return a.tr.ToApplication(saved), nil
}

// Delete removes the referenced ticket and reports whether a row was removed.
func (a *Access) Delete(ctx context.Context, ticket Ref) (bool, error) {
	id := ticket.String()
	ok, err := a.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete ticket %s: %w", id, err)
	}
	return ok, nil
}

// ValidateTicket marks the ticket as redeemed.  It returns false without an
// error when the ticket does not exist.
func (a *Access) ValidateTicket(ctx context.Context, id string) (bool, error) {
	t, err := a.FindByID(ctx, id)
	if err != nil || t == nil {
		return false, err
	}
	now := a.clock.Now()
	t.Validated = true
	t.ValidatedAt = &now
	if _, err := a.Save(ctx, *t); err != nil {
		return false, err
	}
	return true, nil
}

// CancelTicket moves the ticket to canceled.  It returns false without an
// error when the ticket does not exist.
func (a *Access) CancelTicket(ctx context.Context, id, reason string) (bool, error) {
	t, err := a.FindByID(ctx, id)
	if err != nil || t == nil {
		return false, err
	}
	now := a.clock.Now()
	t.Status = model.StatusCanceled
	t.CancellationReason = reason
	t.CanceledAt = &now
	if _, err := a.Save(ctx, *t); err != nil {
		return false, err
	}
	return true, nil
}

func (a *Access) list(es []*model.TicketEntity, err error) ([]model.Ticket, error) {
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return a.tr.ToApplicationAll(es), nil
}
