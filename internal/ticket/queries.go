package ticket

import (
	"context"
	"fmt"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// GetTicket loads a single ticket.
type GetTicket struct {
	deps Deps
	id   string
}

func NewGetTicket(deps Deps, id string) *GetTicket { return &GetTicket{deps: deps, id: id} }

func (q *GetTicket) Execute(ctx context.Context) (*model.Ticket, error) {
	t, err := q.deps.Tickets.FindByID(ctx, q.id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Kind: "ticket", ID: q.id}
	}
	return t, nil
}

// TicketsByEvent lists the tickets of an event.
type TicketsByEvent struct {
	deps  Deps
	event Ref
}

func NewTicketsByEvent(deps Deps, event Ref) *TicketsByEvent {
	return &TicketsByEvent{deps: deps, event: event}
}

func (q *TicketsByEvent) Execute(ctx context.Context) ([]model.Ticket, error) {
	return q.deps.Tickets.FindByEvent(ctx, q.event)
}

// TicketsByUser lists the tickets owned by a user.
type TicketsByUser struct {
	deps Deps
	user Ref
}

func NewTicketsByUser(deps Deps, user Ref) *TicketsByUser {
	return &TicketsByUser{deps: deps, user: user}
}

func (q *TicketsByUser) Execute(ctx context.Context) ([]model.Ticket, error) {
	return q.deps.Tickets.FindByUser(ctx, q.user)
}

// TicketsByStatus lists tickets in a given status.
type TicketsByStatus struct {
	deps   Deps
	status Ref
}

func NewTicketsByStatus(deps Deps, status Ref) *TicketsByStatus {
	return &TicketsByStatus{deps: deps, status: status}
}

func (q *TicketsByStatus) Execute(ctx context.Context) ([]model.Ticket, error) {
	return q.deps.Tickets.FindByStatus(ctx, q.status)
}

// TicketsByType lists tickets of a category.
type TicketsByType struct {
	deps Deps
	typ  Ref
}

func NewTicketsByType(deps Deps, typ Ref) *TicketsByType {
	return &TicketsByType{deps: deps, typ: typ}
}

func (q *TicketsByType) Execute(ctx context.Context) ([]model.Ticket, error) {
	return q.deps.Tickets.FindByType(ctx, q.typ)
}

// SearchTickets runs a filtered, paginated search.  Nil filter or
// pagination select everything and the first page of ten.
type SearchTickets struct {
	deps   Deps
	filter *model.TicketFilter
	page   *model.Pagination
}

func NewSearchTickets(deps Deps, filter *model.TicketFilter, page *model.Pagination) *SearchTickets {
	return &SearchTickets{deps: deps, filter: filter, page: page}
}

func (q *SearchTickets) Execute(ctx context.Context) (model.Page[model.Ticket], error) {
	res, err := q.deps.Tickets.FindWithFilters(ctx, q.filter, q.page)
	if err != nil {
		return model.Page[model.Ticket]{}, err
	}
	return Aggregate(res), nil
}

// Scope selects one of the predefined ticket listings.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeAvailable Scope = "available"
	ScopeSold      Scope = "sold"
	ScopeActive    Scope = "active"
	ScopeInactive  Scope = "inactive"
)

// ListTickets returns a predefined listing.
type ListTickets struct {
	deps  Deps
	scope Scope
}

func NewListTickets(deps Deps, scope Scope) *ListTickets {
	return &ListTickets{deps: deps, scope: scope}
}

func (q *ListTickets) Execute(ctx context.Context) ([]model.Ticket, error) {
	a := q.deps.Tickets
	switch q.scope {
	case ScopeAll, "":
		return a.FindAll(ctx)
	case ScopeAvailable:
		return a.FindAvailableTickets(ctx)
	case ScopeSold:
		return a.FindSoldTickets(ctx)
	case ScopeActive:
		return a.FindActiveTickets(ctx)
	case ScopeInactive:
		return a.FindInactiveTickets(ctx)
	}
	return nil, &ValidationError{Field: "scope", Message: fmt.Sprintf("unknown scope %q", q.scope)}
}

// SearchText runs a free-text search over code, description, seat and
// section.
type SearchText struct {
	deps  Deps
	query string
}

func NewSearchText(deps Deps, query string) *SearchText {
	return &SearchText{deps: deps, query: query}
}

func (q *SearchText) Execute(ctx context.Context) ([]model.Ticket, error) {
	return q.deps.Tickets.SearchByText(ctx, q.query)
}
