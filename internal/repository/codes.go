package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// newTicketID returns a random UUIDv4 string.
func newTicketID() string { return uuid.NewString() }

// newTicketCode returns a 10 character upper-case redemption code.
func newTicketCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}

// stamp truncates t to the microsecond precision of DATETIME(6) columns so
// compare-and-swap tokens survive a round trip through MySQL.
func stamp(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }

// nextStamp returns the updated_at value for a write over prev.  It always
// moves forward, so two writers holding the same version conflict even when
// they save within one clock tick.
func nextStamp(now, prev time.Time) time.Time {
	now, prev = stamp(now), stamp(prev)
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
