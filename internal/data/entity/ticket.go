package entity

import (
	"time"

	"github.com/google/uuid"
)

type TicketStatus string

const (
	TicketStatusFree     TicketStatus = "free"
	TicketStatusReserved TicketStatus = "reserved"
	TicketStatusBooked   TicketStatus = "booked"
)

// Ticket is the per-showtime sellable instance of a seat. Exactly one
// ticket exists per (showtime, seat) pair, enforced by a unique constraint.
// Version is the optimistic concurrency token bumped on every update.
type Ticket struct {
	Base
	ShowtimeID    uuid.UUID    `db:"showtime_id"`
	SeatID        uuid.UUID    `db:"seat_id"`
	Status        TicketStatus `db:"status"`
	OwnerID       *uuid.UUID   `db:"owner_id"`
	Price         float64      `db:"price"`
	ReservedUntil *time.Time   `db:"reserved_until"`
	Version       int          `db:"version"`
}

// CanTransition reports whether a status change is legal:
// free -> reserved -> booked, free -> booked, and reserved/booked -> free
// (cancellation). Everything else is rejected.
func CanTransition(from, to TicketStatus) bool {
	switch from {
	case TicketStatusFree:
		return to == TicketStatusReserved || to == TicketStatusBooked
	case TicketStatusReserved:
		return to == TicketStatusBooked || to == TicketStatusFree
	case TicketStatusBooked:
		return to == TicketStatusFree
	}
	return false
}

// HoldExpired reports whether a reservation hold has lapsed. An expired
// hold is treated as free at the next allocation.
func (t *Ticket) HoldExpired(now time.Time) bool {
	return t.Status == TicketStatusReserved && t.ReservedUntil != nil && now.After(*t.ReservedUntil)
}

// ClaimableBy reports whether a buyer may book this ticket right now.
func (t *Ticket) ClaimableBy(buyerID *uuid.UUID, now time.Time) bool {
	switch t.Status {
	case TicketStatusFree:
		return true
	case TicketStatusReserved:
		if t.HoldExpired(now) {
			return true
		}
		return buyerID != nil && t.OwnerID != nil && *t.OwnerID == *buyerID
	}
	return false
}
