package ticket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/mapper"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
	"github.com/iliyamo/ticket-lifecycle/internal/repository"
)

var now = time.Date(2026, 6, 12, 19, 30, 0, 0, time.UTC)

type fixture struct {
	deps   Deps
	store  *repository.MemoryTicketStore
	events *repository.MemoryEvents
	users  *repository.MemoryUsers
	mailer *mockMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewFixed(now)
	store := repository.NewMemoryTicketStore(clk)
	events := repository.NewMemoryEvents(model.Event{
		ID:       "ev-1",
		Name:     "Spring Concert",
		StartsAt: time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC),
		Location: "Main Hall",
	})
	users := repository.NewMemoryUsers(model.User{ID: "u-1", Name: "Ana", Email: "ana@example.com"})
	mailer := &mockMailer{}
	return &fixture{
		deps: Deps{
			Tickets: NewAccess(store, mapper.New(mapper.StandardDefaults), clk),
			Events:  events,
			Users:   users,
			Mailer:  mailer,
			Clock:   clk,
			Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		},
		store:  store,
		events: events,
		users:  users,
		mailer: mailer,
	}
}

func (f *fixture) create(t *testing.T, in CreateInput) *model.Ticket {
	t.Helper()
	if in.EventID == "" {
		in.EventID = "ev-1"
	}
	if in.Type == "" {
		in.Type = "general"
	}
	if in.Description == "" {
		in.Description = "Standing"
	}
	if in.Price == "" {
		in.Price = "25.00 EUR"
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	tk, err := NewCreateTicket(f.deps, in).Execute(context.Background())
	require.NoError(t, err)
	return tk
}

// sell moves a ticket to sold for user u-1.
func (f *fixture) sell(t *testing.T, id string) *model.Ticket {
	t.Helper()
	sold, user := model.StatusSold, "u-1"
	tk, err := NewUpdateTicket(f.deps, id, Patch{Status: &sold, UserID: &user}).Execute(context.Background())
	require.NoError(t, err)
	return tk
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg model.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// spyStore wraps a Store and records deletes; failFind makes FindByID fail.
type spyStore struct {
	Store
	deletes  []string
	failFind error
}

func (s *spyStore) FindByID(ctx context.Context, id string) (*model.TicketEntity, error) {
	if s.failFind != nil {
		return nil, s.failFind
	}
	return s.Store.FindByID(ctx, id)
}

func (s *spyStore) Delete(ctx context.Context, id string) (bool, error) {
	s.deletes = append(s.deletes, id)
	return s.Store.Delete(ctx, id)
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
