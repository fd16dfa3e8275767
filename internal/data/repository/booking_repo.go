package repository

import (
	"context"
	"errors"
	"fmt"

	"cinema-ops/internal/data/entity"
	"cinema-ops/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	// FindByIDForUpdate locks the booking row so two concurrent payments
	// for the same booking serialize instead of both observing unpaid.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Booking, error)
	MarkPaid(ctx context.Context, id uuid.UUID, amount float64) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, order_id, showtime_id, customer_id, total_seats, total_price, paid, amount_paid, created_at, updated_at`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.OrderID,
		&booking.ShowtimeID,
		&booking.CustomerID,
		&booking.TotalSeats,
		&booking.TotalPrice,
		&booking.Paid,
		&booking.AmountPaid,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, order_id, showtime_id, customer_id, total_seats, total_price, paid, amount_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.OrderID,
		booking.ShowtimeID,
		booking.CustomerID,
		booking.TotalSeats,
		booking.TotalPrice,
		booking.Paid,
		booking.AmountPaid,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("showtime_id", booking.ShowtimeID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderID, translateDBErr(err))
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to lock booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("lock booking %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE showtime_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to find bookings by showtime ID",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("find bookings by showtime ID %s: %w", showtimeID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func (r *bookingRepository) MarkPaid(ctx context.Context, id uuid.UUID, amount float64) error {
	// The paid guard is repeated in SQL so even a caller that skipped the
	// locked read cannot double-charge.
	query := `
		UPDATE bookings
		SET paid = TRUE, amount_paid = $2, updated_at = NOW()
		WHERE id = $1 AND paid = FALSE
	`

	result, err := r.db.Exec(ctx, query, id, amount)
	if err != nil {
		r.log.Error("Failed to mark booking paid",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("mark booking %s paid: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mark booking %s paid: %w", id.String(), ErrConflict)
	}

	return nil
}
