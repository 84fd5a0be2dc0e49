package ticket

import (
	"context"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// Store is the persistence collaborator.  Finders return (nil, nil) when a
// single record is absent and an empty slice when nothing matches.
//
// Save inserts entities without an ID and assigns ID, Code and CreatedAt.  For
// existing entities UpdatedAt must equal the stored value; otherwise the
// write is rejected with a conflict error.  Save always sets UpdatedAt.
type Store interface {
	FindByID(ctx context.Context, id string) (*model.TicketEntity, error)
	FindByEvent(ctx context.Context, event model.Reference) ([]*model.TicketEntity, error)
	FindByUser(ctx context.Context, user model.Reference) ([]*model.TicketEntity, error)
	FindByStatus(ctx context.Context, status model.Reference) ([]*model.TicketEntity, error)
	FindByType(ctx context.Context, typ model.Reference) ([]*model.TicketEntity, error)
	FindAll(ctx context.Context) ([]*model.TicketEntity, error)
	FindWithFilters(ctx context.Context, f model.TicketFilter, p model.Pagination) (model.Page[*model.TicketEntity], error)
	FindAvailableTickets(ctx context.Context) ([]*model.TicketEntity, error)
	FindSoldTickets(ctx context.Context) ([]*model.TicketEntity, error)
	FindActiveTickets(ctx context.Context) ([]*model.TicketEntity, error)
	FindInactiveTickets(ctx context.Context) ([]*model.TicketEntity, error)
	SearchByText(ctx context.Context, query string) ([]*model.TicketEntity, error)
	Save(ctx context.Context, e *model.TicketEntity) (*model.TicketEntity, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// EventFinder loads events; it returns (nil, nil) when the event is absent.
type EventFinder interface {
	FindByID(ctx context.Context, id string) (*model.Event, error)
}

// UserFinder loads users; it returns (nil, nil) when the user is absent.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Mailer delivers a message, typically by handing it to an outbox.
type Mailer interface {
	Send(ctx context.Context, msg model.Message) error
}
