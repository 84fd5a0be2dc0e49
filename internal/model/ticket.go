package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket status codes.  A ticket is created available, becomes sold once a
// purchase is recorded and may be canceled from either state.
const (
	StatusAvailable = "available"
	StatusSold      = "sold"
	StatusCanceled  = "canceled"
)

// Ticket is the flat representation of a ticket used across the
// command/query boundary and on the wire.  Price, status and type are plain
// scalars; the persistence layer works with TicketEntity instead.
//
// Fields:
//  ID                 – opaque identifier assigned at creation.
//  Code               – human-readable redemption code printed on the artifact.
//  EventID            – owning event, immutable after creation.
//  UserID             – purchaser; empty until the ticket is sold.
//  Price / Currency   – decimal amount and ISO 4217 code, always paired.
//  Status             – available, sold or canceled.
//  Type               – category tag such as general or vip.
//  Quantity           – number of admissions the ticket grants.
//  IsReserved         – temporary hold prior to sale; ReservedUntil bounds it.
//  Validated          – redemption flag, set at the gate.
type Ticket struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	EventID            string          `json:"event_id"`
	UserID             string          `json:"user_id,omitempty"`
	Price              decimal.Decimal `json:"price"`
	Currency           string          `json:"currency"`
	Status             string          `json:"status"`
	Type               string          `json:"type"`
	Description        string          `json:"description,omitempty"`
	Quantity           int             `json:"quantity"`
	Seat               string          `json:"seat,omitempty"`
	Section            string          `json:"section,omitempty"`
	IsReserved         bool            `json:"is_reserved"`
	ReservedUntil      *time.Time      `json:"reserved_until,omitempty"`
	Validated          bool            `json:"validated"`
	ValidatedAt        *time.Time      `json:"validated_at,omitempty"`
	PurchasedAt        *time.Time      `json:"purchased_at,omitempty"`
	CanceledAt         *time.Time      `json:"canceled_at,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsCanceled reports whether the ticket reached the canceled state.
func (t Ticket) IsCanceled() bool { return t.Status == StatusCanceled }
