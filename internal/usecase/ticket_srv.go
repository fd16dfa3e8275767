package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/dto/response"
	"cinema-ops/internal/event"
	"cinema-ops/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketService interface {
	// BuyTickets books every requested seat or none of them. A seat held
	// by someone else fails the whole cart with SeatConflictError.
	BuyTickets(ctx context.Context, showtimeID string, req *request.BuyTicketsRequest) (*response.PurchaseResponse, error)
	// ReserveTickets holds seats during checkout. Expired holds are
	// reclaimed lazily at the next allocation and by the reaper.
	ReserveTickets(ctx context.Context, showtimeID string, req *request.ReserveTicketsRequest) (*response.ReservationResponse, error)
	// CancelTickets reverts tickets to free regardless of owner (refunds).
	CancelTickets(ctx context.Context, req *request.CancelTicketsRequest) (*response.CancellationResponse, error)
	GetFreeSeatCount(ctx context.Context, showtimeID string) (*response.FreeSeatCountResponse, error)
	// UpdateTicketStatus is the administrative override; it still honors
	// the legal-transition table.
	UpdateTicketStatus(ctx context.Context, ticketID string, req *request.UpdateTicketStatusRequest) (*response.TicketResponse, error)
}

type ticketService struct {
	repo         *repository.Repository
	uow          repository.UnitOfWork
	relay        RelayKicker
	holdDuration time.Duration
	log          *zap.Logger
}

func NewTicketService(repo *repository.Repository, uow repository.UnitOfWork, relay RelayKicker, config *utils.Config, log *zap.Logger) TicketService {
	return &ticketService{
		repo:         repo,
		uow:          uow,
		relay:        relay,
		holdDuration: config.Jobs.HoldDuration,
		log:          log.With(zap.String("service", "ticket")),
	}
}

func (s *ticketService) BuyTickets(ctx context.Context, showtimeID string, req *request.BuyTicketsRequest) (*response.PurchaseResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Buy tickets validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	showID, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, parseErrorf("invalid showtime ID format %s: %w", showtimeID, err)
	}

	seatIDs, err := parseUUIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	var buyerID *uuid.UUID
	if req.BuyerID != nil {
		id, err := uuid.Parse(*req.BuyerID)
		if err != nil {
			return nil, parseErrorf("invalid buyer ID format %s: %w", *req.BuyerID, err)
		}
		buyerID = &id
	}

	var result response.PurchaseResponse

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		showtime, err := tx.Showtime.FindByID(ctx, showID)
		if err != nil {
			return fmt.Errorf("load showtime: %w", err)
		}
		if showtime == nil {
			return &NotFoundError{Resource: "showtime", ID: showtimeID}
		}

		tickets, err := tx.Ticket.FindBySeatIDsForUpdate(ctx, showID, seatIDs)
		if err != nil {
			return err
		}
		if missing := missingSeat(seatIDs, tickets); missing != uuid.Nil {
			return &NotFoundError{Resource: "seat", ID: missing.String()}
		}

		now := time.Now()
		var totalPrice float64
		for _, ticket := range tickets {
			if !ticket.ClaimableBy(buyerID, now) {
				return &SeatConflictError{SeatID: ticket.SeatID}
			}
			totalPrice += ticket.Price
		}

		booking := &entity.Booking{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			OrderID:    utils.GenerateOrderID(),
			ShowtimeID: showID,
			CustomerID: buyerID,
			TotalSeats: len(tickets),
			TotalPrice: totalPrice,
		}
		if err := tx.Booking.Create(ctx, booking); err != nil {
			return err
		}

		for _, ticket := range tickets {
			ticket.Status = entity.TicketStatusBooked
			ticket.OwnerID = buyerID
			ticket.ReservedUntil = nil
			ticket.UpdatedAt = now
			if err := tx.Ticket.UpdateStatusVersioned(ctx, ticket); err != nil {
				// A racer got to the seat between our read and write.
				if errors.Is(err, repository.ErrStaleVersion) {
					return &SeatConflictError{SeatID: ticket.SeatID}
				}
				return err
			}
		}

		outboxEvent, err := event.NewOutboxEvent(event.TypeTicketSold, event.TicketSold{
			BookingID:  booking.ID,
			ShowtimeID: showID,
			Quantity:   len(tickets),
			TotalPrice: totalPrice,
		})
		if err != nil {
			return err
		}
		if err := tx.Outbox.Add(ctx, outboxEvent); err != nil {
			return err
		}

		result = response.PurchaseResponse{
			BookingID:  booking.ID.String(),
			OrderID:    booking.OrderID,
			ShowtimeID: showtimeID,
			TotalPrice: totalPrice,
			Tickets:    ticketsToResponses(tickets),
		}

		after(func(ctx context.Context) { s.relay.Kick() })
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Tickets sold",
		zap.String("showtime_id", showtimeID),
		zap.String("order_id", result.OrderID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Float64("total_price", result.TotalPrice),
	)

	return &result, nil
}

func (s *ticketService) ReserveTickets(ctx context.Context, showtimeID string, req *request.ReserveTicketsRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reserve tickets validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	showID, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, parseErrorf("invalid showtime ID format %s: %w", showtimeID, err)
	}

	seatIDs, err := parseUUIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	var buyerID *uuid.UUID
	if req.BuyerID != nil {
		id, err := uuid.Parse(*req.BuyerID)
		if err != nil {
			return nil, parseErrorf("invalid buyer ID format %s: %w", *req.BuyerID, err)
		}
		buyerID = &id
	}

	hold := s.holdDuration
	if req.HoldMinutes > 0 {
		hold = time.Duration(req.HoldMinutes) * time.Minute
	}

	var result response.ReservationResponse

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		showtime, err := tx.Showtime.FindByID(ctx, showID)
		if err != nil {
			return fmt.Errorf("load showtime: %w", err)
		}
		if showtime == nil {
			return &NotFoundError{Resource: "showtime", ID: showtimeID}
		}

		tickets, err := tx.Ticket.FindBySeatIDsForUpdate(ctx, showID, seatIDs)
		if err != nil {
			return err
		}
		if missing := missingSeat(seatIDs, tickets); missing != uuid.Nil {
			return &NotFoundError{Resource: "seat", ID: missing.String()}
		}

		now := time.Now()
		reservedUntil := now.Add(hold)
		for _, ticket := range tickets {
			if !ticket.ClaimableBy(buyerID, now) {
				return &SeatConflictError{SeatID: ticket.SeatID}
			}

			ticket.Status = entity.TicketStatusReserved
			ticket.OwnerID = buyerID
			ticket.ReservedUntil = &reservedUntil
			ticket.UpdatedAt = now
			if err := tx.Ticket.UpdateStatusVersioned(ctx, ticket); err != nil {
				if errors.Is(err, repository.ErrStaleVersion) {
					return &SeatConflictError{SeatID: ticket.SeatID}
				}
				return err
			}
		}

		result = response.ReservationResponse{
			ShowtimeID:    showtimeID,
			ReservedUntil: reservedUntil,
			Tickets:       ticketsToResponses(tickets),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Tickets reserved",
		zap.String("showtime_id", showtimeID),
		zap.Int("seat_count", len(seatIDs)),
		zap.Time("reserved_until", result.ReservedUntil),
	)

	return &result, nil
}

func (s *ticketService) CancelTickets(ctx context.Context, req *request.CancelTicketsRequest) (*response.CancellationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Cancel tickets validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	ticketIDs, err := parseUUIDs(req.TicketIDs)
	if err != nil {
		return nil, err
	}

	var result response.CancellationResponse

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		tickets, err := tx.Ticket.FindByIDsForUpdate(ctx, ticketIDs)
		if err != nil {
			return err
		}

		found := make(map[uuid.UUID]bool, len(tickets))
		for _, ticket := range tickets {
			found[ticket.ID] = true
		}
		for _, id := range ticketIDs {
			if !found[id] {
				return &NotFoundError{Resource: "ticket", ID: id.String()}
			}
		}

		now := time.Now()
		cancelled := make(map[uuid.UUID]*cancelTally)
		for _, ticket := range tickets {
			if !entity.CanTransition(ticket.Status, entity.TicketStatusFree) {
				return &TransitionError{From: string(ticket.Status), To: string(entity.TicketStatusFree)}
			}

			// Revenue was only counted for booked tickets, so only those
			// feed the cancellation event.
			if ticket.Status == entity.TicketStatusBooked {
				tally := cancelled[ticket.ShowtimeID]
				if tally == nil {
					tally = &cancelTally{}
					cancelled[ticket.ShowtimeID] = tally
				}
				tally.ids = append(tally.ids, ticket.ID)
				tally.total += ticket.Price
			}

			ticket.Status = entity.TicketStatusFree
			ticket.OwnerID = nil
			ticket.ReservedUntil = nil
			ticket.UpdatedAt = now
			if err := tx.Ticket.UpdateStatusVersioned(ctx, ticket); err != nil {
				if errors.Is(err, repository.ErrStaleVersion) {
					return fmt.Errorf("cancel ticket %s: %w", ticket.ID.String(), ErrConcurrency)
				}
				return err
			}
		}

		for showID, tally := range cancelled {
			outboxEvent, err := event.NewOutboxEvent(event.TypeTicketCancelled, event.TicketCancelled{
				ShowtimeID: showID,
				TicketIDs:  tally.ids,
				Quantity:   len(tally.ids),
				TotalPrice: tally.total,
			})
			if err != nil {
				return err
			}
			if err := tx.Outbox.Add(ctx, outboxEvent); err != nil {
				return err
			}
		}

		result = response.CancellationResponse{Cancelled: ticketsToResponses(tickets)}

		if len(cancelled) > 0 {
			after(func(ctx context.Context) { s.relay.Kick() })
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Tickets cancelled", zap.Int("count", len(ticketIDs)))
	return &result, nil
}

type cancelTally struct {
	ids   []uuid.UUID
	total float64
}

func (s *ticketService) GetFreeSeatCount(ctx context.Context, showtimeID string) (*response.FreeSeatCountResponse, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, parseErrorf("invalid showtime ID format %s: %w", showtimeID, err)
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if showtime == nil {
		return nil, &NotFoundError{Resource: "showtime", ID: showtimeID}
	}

	count, err := s.repo.Ticket.CountFree(ctx, id)
	if err != nil {
		return nil, err
	}

	return &response.FreeSeatCountResponse{
		ShowtimeID: showtimeID,
		FreeSeats:  count,
	}, nil
}

func (s *ticketService) UpdateTicketStatus(ctx context.Context, ticketID string, req *request.UpdateTicketStatusRequest) (*response.TicketResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update ticket status validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	id, err := uuid.Parse(ticketID)
	if err != nil {
		return nil, parseErrorf("invalid ticket ID format %s: %w", ticketID, err)
	}

	newStatus := entity.TicketStatus(req.Status)

	var actingUserID *uuid.UUID
	if req.ActingUserID != nil {
		uid, err := uuid.Parse(*req.ActingUserID)
		if err != nil {
			return nil, parseErrorf("invalid acting user ID format %s: %w", *req.ActingUserID, err)
		}
		actingUserID = &uid
	}

	var result response.TicketResponse

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		tickets, err := tx.Ticket.FindByIDsForUpdate(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(tickets) == 0 {
			return &NotFoundError{Resource: "ticket", ID: ticketID}
		}
		ticket := tickets[0]

		if !entity.CanTransition(ticket.Status, newStatus) {
			return &TransitionError{From: string(ticket.Status), To: string(newStatus)}
		}

		wasBooked := ticket.Status == entity.TicketStatusBooked
		now := time.Now()

		ticket.Status = newStatus
		ticket.UpdatedAt = now
		switch newStatus {
		case entity.TicketStatusFree:
			ticket.OwnerID = nil
			ticket.ReservedUntil = nil
		case entity.TicketStatusReserved:
			ticket.OwnerID = actingUserID
			reservedUntil := now.Add(s.holdDuration)
			ticket.ReservedUntil = &reservedUntil
		case entity.TicketStatusBooked:
			if actingUserID != nil {
				ticket.OwnerID = actingUserID
			}
			ticket.ReservedUntil = nil
		}

		if err := tx.Ticket.UpdateStatusVersioned(ctx, ticket); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return fmt.Errorf("update ticket %s: %w", ticketID, ErrConcurrency)
			}
			return err
		}

		// An administrative release of a sold seat is still a cancellation
		// as far as the revenue projection is concerned.
		if wasBooked && newStatus == entity.TicketStatusFree {
			outboxEvent, err := event.NewOutboxEvent(event.TypeTicketCancelled, event.TicketCancelled{
				ShowtimeID: ticket.ShowtimeID,
				TicketIDs:  []uuid.UUID{ticket.ID},
				Quantity:   1,
				TotalPrice: ticket.Price,
			})
			if err != nil {
				return err
			}
			if err := tx.Outbox.Add(ctx, outboxEvent); err != nil {
				return err
			}
			after(func(ctx context.Context) { s.relay.Kick() })
		}

		result = response.TicketToResponse(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Ticket status updated",
		zap.String("ticket_id", ticketID),
		zap.String("status", req.Status),
	)

	return &result, nil
}

// ==================== HELPERS ====================

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, value := range values {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, parseErrorf("invalid ID format %s: %w", value, err)
		}
		ids[i] = id
	}
	return ids, nil
}

// missingSeat returns the first requested seat with no ticket in the
// showtime, or uuid.Nil when every seat was matched.
func missingSeat(seatIDs []uuid.UUID, tickets []*entity.Ticket) uuid.UUID {
	found := make(map[uuid.UUID]bool, len(tickets))
	for _, ticket := range tickets {
		found[ticket.SeatID] = true
	}
	for _, id := range seatIDs {
		if !found[id] {
			return id
		}
	}
	return uuid.Nil
}

func ticketsToResponses(tickets []*entity.Ticket) []response.TicketResponse {
	responses := make([]response.TicketResponse, len(tickets))
	for i, ticket := range tickets {
		responses[i] = response.TicketToResponse(ticket)
	}
	return responses
}
