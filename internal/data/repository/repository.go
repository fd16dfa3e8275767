package repository

import (
	"cinema-ops/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Film       FilmRepository
	Auditorium AuditoriumRepository
	Seat       SeatRepository
	Showtime   ShowtimeRepository
	Ticket     TicketRepository
	Booking    BookingRepository
	Customer   CustomerRepository
	Outbox     OutboxRepository
}

// NewRepository builds the repository bundle over a querier. Pass the pool
// for plain reads; the unit of work rebinds the bundle to an open
// transaction for multi-entity writes.
func NewRepository(db database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Film:       NewFilmRepository(db, log),
		Auditorium: NewAuditoriumRepository(db, log),
		Seat:       NewSeatRepository(db, log),
		Showtime:   NewShowtimeRepository(db, log),
		Ticket:     NewTicketRepository(db, log),
		Booking:    NewBookingRepository(db, log),
		Customer:   NewCustomerRepository(db, log),
		Outbox:     NewOutboxRepository(db, log),
	}
}
