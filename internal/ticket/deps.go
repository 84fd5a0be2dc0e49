package ticket

import (
	"log/slog"

	"github.com/iliyamo/ticket-lifecycle/internal/clock"
)

// Deps bundles the collaborators commands and queries are built with.
// Queries only need Tickets; the artifact and dispatch commands also need
// Events, Users and Mailer.
type Deps struct {
	Tickets *Access
	Events  EventFinder
	Users   UserFinder
	Mailer  Mailer
	Signer  *Signer // optional; artifacts are unsigned when nil
	Clock   clock.Clock
	Logger  *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d Deps) clock() clock.Clock {
	if d.Clock == nil {
		return clock.NewSystem()
	}
	return d.Clock
}
