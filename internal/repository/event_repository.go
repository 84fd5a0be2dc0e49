package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// EventRepo reads events from the 'events' table.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// FindByID fetches an event by id; it returns (nil, nil) when none exists.
func (r *EventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	var ev model.Event
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, starts_at, location FROM events WHERE id = ? LIMIT 1",
		id).Scan(&ev.ID, &ev.Name, &ev.StartsAt, &ev.Location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev.StartsAt = ev.StartsAt.UTC()
	return &ev, nil
}
