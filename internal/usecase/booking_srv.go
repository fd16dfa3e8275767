package usecase

import (
	"context"
	"time"

	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/dto/response"
	"cinema-ops/internal/event"
	"cinema-ops/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Pay settles a booking exactly once. Repeated calls return
	// ErrAlreadyPaid without touching the balance.
	Pay(ctx context.Context, bookingID string, req *request.PayBookingRequest) (*response.BookingResponse, error)
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetBookingsByShowtimeID(ctx context.Context, showtimeID string) ([]response.BookingResponse, error)
}

type bookingService struct {
	repo  *repository.Repository
	uow   repository.UnitOfWork
	relay RelayKicker
	log   *zap.Logger
}

func NewBookingService(repo *repository.Repository, uow repository.UnitOfWork, relay RelayKicker, log *zap.Logger) BookingService {
	return &bookingService{
		repo:  repo,
		uow:   uow,
		relay: relay,
		log:   log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) Pay(ctx context.Context, bookingID string, req *request.PayBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Pay booking validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, parseErrorf("invalid booking ID format %s: %w", bookingID, err)
	}

	var result response.BookingResponse

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		booking, err := tx.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return &NotFoundError{Resource: "booking", ID: bookingID}
		}
		if booking.Paid {
			return ErrAlreadyPaid
		}

		if err := tx.Booking.MarkPaid(ctx, id, req.Amount); err != nil {
			return err
		}

		outboxEvent, err := event.NewOutboxEvent(event.TypePaymentConfirmed, event.PaymentConfirmed{
			BookingID:  booking.ID,
			ShowtimeID: booking.ShowtimeID,
			Amount:     req.Amount,
		})
		if err != nil {
			return err
		}
		if err := tx.Outbox.Add(ctx, outboxEvent); err != nil {
			return err
		}

		booking.Paid = true
		booking.AmountPaid = req.Amount
		booking.UpdatedAt = time.Now()
		result = response.BookingToResponse(booking)

		after(func(ctx context.Context) { s.relay.Kick() })
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking paid",
		zap.String("booking_id", bookingID),
		zap.Float64("amount", req.Amount),
	)

	return &result, nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, parseErrorf("invalid booking ID format %s: %w", bookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetBookingsByShowtimeID(ctx context.Context, showtimeID string) ([]response.BookingResponse, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, parseErrorf("invalid showtime ID format %s: %w", showtimeID, err)
	}

	bookings, err := s.repo.Booking.FindByShowtimeID(ctx, id)
	if err != nil {
		return nil, err
	}

	responses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		responses[i] = response.BookingToResponse(booking)
	}
	return responses, nil
}
