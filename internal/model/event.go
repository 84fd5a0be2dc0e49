package model

import "time"

// Event is the read model of the owning event used when rendering a ticket
// artifact.  Only the columns needed for the document are loaded.
type Event struct {
	ID       string    // events.id
	Name     string    // events.name
	StartsAt time.Time // events.starts_at
	Location string    // events.location
}
