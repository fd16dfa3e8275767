package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/dto/response"
	"cinema-ops/internal/event"

	"github.com/google/uuid"
)

// seedShowtime creates a film, an auditorium with seatCount seats, and a
// showtime with materialized tickets.
func seedShowtime(t *testing.T, env *testEnv, seatCount int) (showtimeID string, seats []entity.Seat) {
	t.Helper()
	film := env.seedFilm("Heat", 120)
	auditorium, seats := env.seedAuditorium("Screen 1", seatCount)

	created, err := env.svc.Scheduler.CreateShowtime(context.Background(), &request.CreateShowtimeRequest{
		FilmID:       film.ID.String(),
		AuditoriumID: auditorium.ID.String(),
		StartsAt:     time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("seed showtime failed: %v", err)
	}
	return created.ID, seats
}

func seatIDs(seats []entity.Seat) []string {
	ids := make([]string, len(seats))
	for i, seat := range seats {
		ids[i] = seat.ID.String()
	}
	return ids
}

func ticketIDs(tickets []response.TicketResponse) []string {
	ids := make([]string, len(tickets))
	for i, ticket := range tickets {
		ids[i] = ticket.ID
	}
	return ids
}

func TestBuyTicketsBooksAllSeats(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 5)

	purchase, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats[:3]),
	})
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	if len(purchase.Tickets) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(purchase.Tickets))
	}
	if purchase.TotalPrice != 30 {
		t.Errorf("expected total 30, got %v", purchase.TotalPrice)
	}
	for _, ticket := range purchase.Tickets {
		if ticket.Status != string(entity.TicketStatusBooked) {
			t.Errorf("expected booked ticket, got %s", ticket.Status)
		}
	}

	count, err := env.svc.Ticket.GetFreeSeatCount(context.Background(), showtimeID)
	if err != nil {
		t.Fatalf("GetFreeSeatCount failed: %v", err)
	}
	if count.FreeSeats != 2 {
		t.Errorf("expected 2 free seats after purchase, got %d", count.FreeSeats)
	}
}

func TestBuyTicketsAllOrNothing(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 4)

	// Someone else takes the middle seat first.
	if _, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: []string{seats[1].ID.String()},
	}); err != nil {
		t.Fatalf("setup purchase failed: %v", err)
	}

	_, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats[:3]),
	})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
	if conflict.SeatID != seats[1].ID {
		t.Errorf("expected conflict on seat %s, got %s", seats[1].ID, conflict.SeatID)
	}

	// The seats around the conflicting one must remain free.
	count, err := env.svc.Ticket.GetFreeSeatCount(context.Background(), showtimeID)
	if err != nil {
		t.Fatalf("GetFreeSeatCount failed: %v", err)
	}
	if count.FreeSeats != 3 {
		t.Errorf("expected 3 free seats after failed cart, got %d", count.FreeSeats)
	}

	// And no booking row for the failed cart.
	bookings, err := env.svc.Booking.GetBookingsByShowtimeID(context.Background(), showtimeID)
	if err != nil {
		t.Fatalf("GetBookingsByShowtimeID failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("expected only the setup booking, got %d", len(bookings))
	}
}

func TestBuyTicketsUnknownSeat(t *testing.T) {
	env := newTestEnv()
	showtimeID, _ := seedShowtime(t, env, 2)

	_, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: []string{uuid.NewString()},
	})
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCancelThenRebook(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 2)

	purchase, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
	})
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}

	if _, err := env.svc.Ticket.CancelTickets(context.Background(), &request.CancelTicketsRequest{
		TicketIDs: ticketIDs(purchase.Tickets),
	}); err != nil {
		t.Fatalf("CancelTickets failed: %v", err)
	}

	count, err := env.svc.Ticket.GetFreeSeatCount(context.Background(), showtimeID)
	if err != nil {
		t.Fatalf("GetFreeSeatCount failed: %v", err)
	}
	if count.FreeSeats != 2 {
		t.Fatalf("expected both seats free after cancel, got %d", count.FreeSeats)
	}

	if _, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
	}); err != nil {
		t.Fatalf("rebooking cancelled seats failed: %v", err)
	}
}

func TestCancelFreeTicketRejected(t *testing.T) {
	env := newTestEnv()
	showtimeID, _ := seedShowtime(t, env, 1)

	tickets, err := env.store.repository().Ticket.FindByShowtimeID(context.Background(), uuid.MustParse(showtimeID))
	if err != nil || len(tickets) != 1 {
		t.Fatalf("expected one seeded ticket, got %d (err %v)", len(tickets), err)
	}

	_, err = env.svc.Ticket.CancelTickets(context.Background(), &request.CancelTicketsRequest{
		TicketIDs: []string{tickets[0].ID.String()},
	})
	var transition *TransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestCancelEmitsEventForBookedOnly(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 2)

	purchase, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats[:1]),
	})
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}

	reservation, err := env.svc.Ticket.ReserveTickets(context.Background(), showtimeID, &request.ReserveTicketsRequest{
		SeatIDs: seatIDs(seats[1:]),
	})
	if err != nil {
		t.Fatalf("ReserveTickets failed: %v", err)
	}

	before := len(env.pendingOutbox())
	if _, err := env.svc.Ticket.CancelTickets(context.Background(), &request.CancelTicketsRequest{
		TicketIDs: append(ticketIDs(purchase.Tickets), ticketIDs(reservation.Tickets)...),
	}); err != nil {
		t.Fatalf("CancelTickets failed: %v", err)
	}

	pending := env.pendingOutbox()
	if len(pending) != before+1 {
		t.Fatalf("expected exactly one cancellation event, got %d new", len(pending)-before)
	}
	last := pending[len(pending)-1]
	if last.EventType != event.TypeTicketCancelled {
		t.Errorf("expected %s, got %s", event.TypeTicketCancelled, last.EventType)
	}
}

func TestReserveThenOwnerBuys(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 1)
	buyer := uuid.NewString()

	if _, err := env.svc.Ticket.ReserveTickets(context.Background(), showtimeID, &request.ReserveTicketsRequest{
		SeatIDs: seatIDs(seats),
		BuyerID: &buyer,
	}); err != nil {
		t.Fatalf("ReserveTickets failed: %v", err)
	}

	// A stranger cannot take the held seat.
	stranger := uuid.NewString()
	_, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
		BuyerID: &stranger,
	})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SeatConflictError for stranger, got %v", err)
	}

	// The holder can.
	if _, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
		BuyerID: &buyer,
	}); err != nil {
		t.Fatalf("holder purchase failed: %v", err)
	}
}

func TestExpiredHoldIsClaimable(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 1)
	holder := uuid.NewString()

	if _, err := env.svc.Ticket.ReserveTickets(context.Background(), showtimeID, &request.ReserveTicketsRequest{
		SeatIDs: seatIDs(seats),
		BuyerID: &holder,
	}); err != nil {
		t.Fatalf("ReserveTickets failed: %v", err)
	}

	// Force the hold into the past.
	env.store.mu.Lock()
	for id, ticket := range env.store.tickets {
		expired := time.Now().Add(-time.Minute)
		ticket.ReservedUntil = &expired
		env.store.tickets[id] = ticket
	}
	env.store.mu.Unlock()

	stranger := uuid.NewString()
	if _, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
		BuyerID: &stranger,
	}); err != nil {
		t.Fatalf("expected expired hold to be claimable, got %v", err)
	}
}

func TestUpdateTicketStatusHonorsTransitionTable(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 1)

	purchase, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
	})
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}
	ticketID := purchase.Tickets[0].ID

	// booked -> reserved is illegal.
	_, err = env.svc.Ticket.UpdateTicketStatus(context.Background(), ticketID, &request.UpdateTicketStatusRequest{
		Status: "reserved",
	})
	var transition *TransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected TransitionError, got %v", err)
	}

	// booked -> free is a cancellation and emits an event.
	before := len(env.pendingOutbox())
	updated, err := env.svc.Ticket.UpdateTicketStatus(context.Background(), ticketID, &request.UpdateTicketStatusRequest{
		Status: "free",
	})
	if err != nil {
		t.Fatalf("UpdateTicketStatus failed: %v", err)
	}
	if updated.Status != string(entity.TicketStatusFree) {
		t.Errorf("expected free, got %s", updated.Status)
	}
	if len(env.pendingOutbox()) != before+1 {
		t.Error("expected a cancellation event for admin release of a sold seat")
	}
}

func TestBuyTicketsStaleVersionIsSeatConflict(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 3)
	seeded := len(env.pendingOutbox())
	kicked := env.kicker.count()

	// The second versioned update loses the race to a concurrent writer.
	env.failTicketUpdate(2)

	_, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats[:2]),
	})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
	if conflict.SeatID == uuid.Nil {
		t.Errorf("expected the conflict to carry the contested seat id")
	}
	if got := len(env.pendingOutbox()); got != seeded {
		t.Errorf("failed purchase added %d outbox events", got-seeded)
	}
	if env.kicker.count() != kicked {
		t.Errorf("failed purchase kicked the relay")
	}
}

func TestReserveTicketsStaleVersionIsSeatConflict(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 2)
	env.failTicketUpdate(1)

	_, err := env.svc.Ticket.ReserveTickets(context.Background(), showtimeID, &request.ReserveTicketsRequest{
		SeatIDs: seatIDs(seats),
	})
	var conflict *SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SeatConflictError, got %v", err)
	}
}

func TestCancelTicketsStaleVersionIsConcurrencyError(t *testing.T) {
	env := newTestEnv()
	showtimeID, seats := seedShowtime(t, env, 2)

	purchase, err := env.svc.Ticket.BuyTickets(context.Background(), showtimeID, &request.BuyTicketsRequest{
		SeatIDs: seatIDs(seats),
	})
	if err != nil {
		t.Fatalf("BuyTickets failed: %v", err)
	}

	env.failTicketUpdate(1)

	_, err = env.svc.Ticket.CancelTickets(context.Background(), &request.CancelTicketsRequest{
		TicketIDs: ticketIDs(purchase.Tickets),
	})
	if !errors.Is(err, ErrConcurrency) {
		t.Fatalf("expected ErrConcurrency, got %v", err)
	}
}

func TestMalformedShowtimeIDIsParseError(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Ticket.BuyTickets(context.Background(), "not-a-uuid", &request.BuyTicketsRequest{
		SeatIDs: []string{uuid.NewString()},
	})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
