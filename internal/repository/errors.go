// Package repository contains the persistence adapters for tickets, events
// and users: a MySQL implementation used in production and an in-memory one
// used for local runs and tests.  Both honor the same contract so callers
// can switch between them.
package repository

import "errors"

// ErrConflict is returned by Save when the stored ticket changed since it
// was loaded (its updated_at no longer matches).  Handlers should translate
// this into an HTTP 409 response so the client can reload and retry.
var ErrConflict = errors.New("conflict: ticket was modified concurrently")

// ErrTicketNotFound is returned by Save when asked to update a ticket that
// no longer exists.
var ErrTicketNotFound = errors.New("ticket not found")
