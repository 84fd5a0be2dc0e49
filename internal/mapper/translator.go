// Package mapper converts tickets between the rich shape persisted by stores
// and the flat shape used by commands, queries and the HTTP API.
package mapper

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/ticket-lifecycle/internal/model"
)

// Default values applied when a nested value or scalar is missing.
const (
	DefaultCurrency = "USD"
	DefaultStatus   = model.StatusAvailable
	DefaultType     = "general"
)

// Defaults is the fallback policy a Translator applies to absent price,
// status and type data.
type Defaults struct {
	Currency string
	Status   string
	Type     string
}

// StandardDefaults is the policy used by the service.
var StandardDefaults = Defaults{
	Currency: DefaultCurrency,
	Status:   DefaultStatus,
	Type:     DefaultType,
}

// Translator maps tickets in both directions.  The zero value is not useful;
// build one with New.
type Translator struct {
	defaults Defaults
}

// New returns a Translator applying d to absent values.
func New(d Defaults) Translator {
	return Translator{defaults: d}
}

// ToApplication flattens a rich ticket.  A nil entity maps to nil.
func (tr Translator) ToApplication(e *model.TicketEntity) *model.Ticket {
	if e == nil {
		return nil
	}
	t := &model.Ticket{
		ID:                 e.ID,
		Code:               e.Code,
		EventID:            e.Event.ID,
		Price:              decimal.Zero,
		Currency:           tr.defaults.Currency,
		Status:             tr.defaults.Status,
		Type:               tr.defaults.Type,
		Description:        e.Description,
		Quantity:           e.Quantity,
		Seat:               e.Seat,
		Section:            e.Section,
		IsReserved:         e.IsReserved,
		ReservedUntil:      e.ReservedUntil,
		Validated:          e.Validated,
		ValidatedAt:        e.ValidatedAt,
		PurchasedAt:        e.PurchasedAt,
		CanceledAt:         e.CanceledAt,
		CancellationReason: e.CancellationReason,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
	if e.User != nil {
		t.UserID = e.User.ID
	}
	if e.Price != nil {
		t.Price = e.Price.Amount
		if e.Price.Currency != "" {
			t.Currency = e.Price.Currency
		}
	}
	if e.Status != nil && e.Status.Code != "" {
		t.Status = e.Status.Code
	}
	if e.Type != nil && e.Type.Code != "" {
		t.Type = e.Type.Code
	}
	return t
}

// ToDomain rebuilds the nested shapes from a flat ticket.  It only builds
// data and never calls into the rich representation.  A nil ticket maps to
// nil.
func (tr Translator) ToDomain(t *model.Ticket) *model.TicketEntity {
	if t == nil {
		return nil
	}
	e := &model.TicketEntity{
		ID:    t.ID,
		Code:  t.Code,
		Event: model.Reference{ID: t.EventID},
		Price: &model.Money{
			Amount:   t.Price,
			Currency: orDefault(t.Currency, tr.defaults.Currency),
		},
		Status:             &model.StatusRef{Code: orDefault(t.Status, tr.defaults.Status)},
		Type:               &model.TypeRef{Code: orDefault(t.Type, tr.defaults.Type)},
		Description:        t.Description,
		Quantity:           t.Quantity,
		Seat:               t.Seat,
		Section:            t.Section,
		IsReserved:         t.IsReserved,
		ReservedUntil:      t.ReservedUntil,
		Validated:          t.Validated,
		ValidatedAt:        t.ValidatedAt,
		PurchasedAt:        t.PurchasedAt,
		CanceledAt:         t.CanceledAt,
		CancellationReason: t.CancellationReason,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.UserID != "" {
		e.User = &model.Reference{ID: t.UserID}
	}
	return e
}

// ToApplicationAll flattens a slice, dropping nil entries.  The result is
// never nil.
func (tr Translator) ToApplicationAll(es []*model.TicketEntity) []model.Ticket {
	out := make([]model.Ticket, 0, len(es))
	for _, e := range es {
		if t := tr.ToApplication(e); t != nil {
			out = append(out, *t)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
