package entity

import (
	"github.com/google/uuid"
)

// Booking is the purchase ledger entry tying payment to a set of tickets.
// Pay is one-shot: once Paid is set further payments are rejected.
type Booking struct {
	Base
	OrderID    string     `db:"order_id"`
	ShowtimeID uuid.UUID  `db:"showtime_id"`
	CustomerID *uuid.UUID `db:"customer_id"`
	TotalSeats int        `db:"total_seats"`
	TotalPrice float64    `db:"total_price"`
	Paid       bool       `db:"paid"`
	AmountPaid float64    `db:"amount_paid"`
}
