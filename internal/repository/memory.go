package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// MemoryTicketStore keeps tickets in a map.  It is safe for concurrent use
// and applies the same defaults and compare-and-swap rule as TicketRepo.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]*model.TicketEntity
	clock   clock.Clock
}

// NewMemoryTicketStore returns an empty store.  A nil clock uses the system
// clock.
func NewMemoryTicketStore(clk clock.Clock) *MemoryTicketStore {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &MemoryTicketStore{tickets: map[string]*model.TicketEntity{}, clock: clk}
}

func (s *MemoryTicketStore) FindByID(_ context.Context, id string) (*model.TicketEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	return cloneEntity(e), nil
}

func (s *MemoryTicketStore) FindByEvent(_ context.Context, event model.Reference) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool { return e.Event.ID == event.ID }), nil
}

func (s *MemoryTicketStore) FindByUser(_ context.Context, user model.Reference) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool { return e.User != nil && e.User.ID == user.ID }), nil
}

func (s *MemoryTicketStore) FindByStatus(_ context.Context, status model.Reference) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool { return statusOf(e) == status.ID }), nil
}

func (s *MemoryTicketStore) FindByType(_ context.Context, typ model.Reference) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool { return e.Type != nil && e.Type.Code == typ.ID }), nil
}

func (s *MemoryTicketStore) FindAll(context.Context) ([]*model.TicketEntity, error) {
	return s.where(func(*model.TicketEntity) bool { return true }), nil
}

// FindAvailableTickets returns available tickets without a live hold.
func (s *MemoryTicketStore) FindAvailableTickets(context.Context) ([]*model.TicketEntity, error) {
	now := s.clock.Now()
	return s.where(func(e *model.TicketEntity) bool {
		if statusOf(e) != model.StatusAvailable {
			return false
		}
		return !e.IsReserved || (e.ReservedUntil != nil && !e.ReservedUntil.After(now))
	}), nil
}

func (s *MemoryTicketStore) FindSoldTickets(context.Context) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool { return statusOf(e) == model.StatusSold }), nil
}

func (s *MemoryTicketStore) FindActiveTickets(context.Context) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool {
		return statusOf(e) != model.StatusCanceled && !e.Validated
	}), nil
}

func (s *MemoryTicketStore) FindInactiveTickets(context.Context) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool {
		return statusOf(e) == model.StatusCanceled || e.Validated
	}), nil
}

func (s *MemoryTicketStore) SearchByText(_ context.Context, query string) ([]*model.TicketEntity, error) {
	return s.where(func(e *model.TicketEntity) bool { return matchesText(e, query) }), nil
}

func (s *MemoryTicketStore) FindWithFilters(_ context.Context, f model.TicketFilter, p model.Pagination) (model.Page[*model.TicketEntity], error) {
	matched := s.where(func(e *model.TicketEntity) bool {
		switch {
		case f.EventID != "" && e.Event.ID != f.EventID:
			return false
		case f.UserID != "" && (e.User == nil || e.User.ID != f.UserID):
			return false
		case f.Status != "" && statusOf(e) != f.Status:
			return false
		case f.Type != "" && (e.Type == nil || e.Type.Code != f.Type):
			return false
		}
		return matchesText(e, f.Query)
	})
	page, limit := pageOrDefault(p)
	start := (page - 1) * limit
	items := []*model.TicketEntity{}
	if start < len(matched) {
		end := min(start+limit, len(matched))
		items = matched[start:end]
	}
	return model.Page[*model.TicketEntity]{
		Items:      items,
		Total:      len(matched),
		Page:       page,
		Limit:      limit,
		TotalPages: (len(matched) + limit - 1) / limit,
	}, nil
}

// Save inserts entities without an ID and updates the rest under the
// updated_at compare-and-swap rule.
func (s *MemoryTicketStore) Save(_ context.Context, e *model.TicketEntity) (*model.TicketEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := stamp(s.clock.Now())
	c := cloneEntity(e)
	if c.ID == "" {
		c.ID = newTicketID()
		if c.Code == "" {
			c.Code = newTicketCode()
		}
		if c.Status == nil || c.Status.Code == "" {
			c.Status = &model.StatusRef{Code: model.StatusAvailable}
		}
		c.CreatedAt = now
		c.UpdatedAt = now
	} else {
		cur, ok := s.tickets[c.ID]
		if !ok {
			return nil, ErrTicketNotFound
		}
		if !cur.UpdatedAt.Equal(c.UpdatedAt) {
			return nil, ErrConflict
		}
		c.CreatedAt = cur.CreatedAt
		c.Code = cur.Code
		c.UpdatedAt = nextStamp(now, cur.UpdatedAt)
	}
	s.tickets[c.ID] = c
	return cloneEntity(c), nil
}

func (s *MemoryTicketStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return false, nil
	}
	delete(s.tickets, id)
	return true, nil
}

// where returns clones of matching tickets ordered by creation time.
func (s *MemoryTicketStore) where(keep func(*model.TicketEntity) bool) []*model.TicketEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.TicketEntity{}
	for _, e := range s.tickets {
		if keep(e) {
			out = append(out, cloneEntity(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func statusOf(e *model.TicketEntity) string {
	if e.Status == nil {
		return ""
	}
	return e.Status.Code
}

func matchesText(e *model.TicketEntity, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{e.Code, e.Description, e.Seat, e.Section} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func pageOrDefault(p model.Pagination) (int, int) {
	page, limit := p.Page, p.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return page, limit
}

func cloneEntity(e *model.TicketEntity) *model.TicketEntity {
	c := *e
	if e.User != nil {
		u := *e.User
		c.User = &u
	}
	if e.Price != nil {
		p := *e.Price
		c.Price = &p
	}
	if e.Status != nil {
		st := *e.Status
		c.Status = &st
	}
	if e.Type != nil {
		ty := *e.Type
		c.Type = &ty
	}
	return &c
}

// MemoryEvents is an in-memory EventFinder.
type MemoryEvents struct {
	mu     sync.RWMutex
	events map[string]model.Event
}

func NewMemoryEvents(events ...model.Event) *MemoryEvents {
	m := &MemoryEvents{events: map[string]model.Event{}}
	for _, ev := range events {
		m.events[ev.ID] = ev
	}
	return m
}

func (m *MemoryEvents) Put(ev model.Event) {
	m.mu.Lock()
	m.events[ev.ID] = ev
	m.mu.Unlock()
}

func (m *MemoryEvents) FindByID(_ context.Context, id string) (*model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

// MemoryUsers is an in-memory UserFinder.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewMemoryUsers(users ...model.User) *MemoryUsers {
	m := &MemoryUsers{users: map[string]model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MemoryUsers) Put(u model.User) {
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
}

func (m *MemoryUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
