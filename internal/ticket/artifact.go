package ticket

import (
	"bytes"
	"context"
	"fmt"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

const artifactContentType = "text/plain; charset=utf-8"

// Artifact is the redeemable document produced for a ticket.
type Artifact struct {
	Filename    string
	ContentType string
	Content     []byte
	Signature   string // empty when no signer is configured
}

// ProduceArtifact renders the printable ticket.  It only reads.
type ProduceArtifact struct {
	deps Deps
	id   string
}

func NewProduceArtifact(deps Deps, ticketID string) *ProduceArtifact {
	return &ProduceArtifact{deps: deps, id: ticketID}
}

func (c *ProduceArtifact) Execute(ctx context.Context) (*Artifact, error) {
	t, err := c.deps.Tickets.FindByID(ctx, c.id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, invalid("id", "ticket does not exist")
	}
	ev, err := c.deps.Events.FindByID(ctx, t.EventID)
	if err != nil {
		return nil, fmt.Errorf("find event %s: %w", t.EventID, err)
	}
	if ev == nil {
		return nil, invalid("event_id", "event does not exist")
	}

	body := renderArtifact(*t, *ev)
	a := &Artifact{
		Filename:    artifactFilename(*t),
		ContentType: artifactContentType,
	}
	if c.deps.Signer != nil {
		a.Signature = c.deps.Signer.Sign(body)
		body = append(body, []byte("Signature: "+a.Signature+"\n")...)
	}
	a.Content = body
	return a, nil
}

func artifactFilename(t model.Ticket) string {
	code := t.Code
	if code == "" {
		code = t.ID
	}
	return "ticket-" + code + ".txt"
}

func renderArtifact(t model.Ticket, ev model.Event) []byte {
	var b bytes.Buffer
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-10s%s\n", label+":", value)
		}
	}
	b.WriteString("EVENT TICKET\n")
	line("Code", t.Code)
	line("Event", ev.Name)
	if !ev.StartsAt.IsZero() {
		line("Date", ev.StartsAt.Format("2006-01-02 15:04 MST"))
	}
	line("Location", ev.Location)
	line("Section", t.Section)
	line("Seat", t.Seat)
	line("Type", t.Type)
	line("Admits", fmt.Sprint(t.Quantity))
	line("Price", formatPrice(t))
	return b.Bytes()
}

func formatPrice(t model.Ticket) string {
	return t.Price.StringFixed(2) + " " + t.Currency
}
