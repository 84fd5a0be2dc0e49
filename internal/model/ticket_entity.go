package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reference is the minimal shape used to point at another record.  Stores
// resolve it lazily by ID.
type Reference struct {
	ID string
}

// Money pairs an amount with its currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// StatusRef and TypeRef are the nested status and category shapes carried by
// TicketEntity.
type StatusRef struct {
	Code string
}

type TypeRef struct {
	Code string
}

// TicketEntity is the rich representation persisted by the store.  Price,
// status and type are nested values and the owning event and user are
// references rather than bare ids.  Nil nested values mean "not set".
type TicketEntity struct {
	ID                 string
	Code               string
	Event              Reference
	User               *Reference // nil until sold
	Price              *Money
	Status             *StatusRef
	Type               *TypeRef
	Description        string
	Quantity           int
	Seat               string
	Section            string
	IsReserved         bool
	ReservedUntil      *time.Time
	Validated          bool
	ValidatedAt        *time.Time
	PurchasedAt        *time.Time
	CanceledAt         *time.Time
	CancellationReason string
	CreatedAt          time.Time
	UpdatedAt          time.Time // compare-and-swap token on save
}
