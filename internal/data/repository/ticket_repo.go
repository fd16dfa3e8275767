package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TicketRepository interface {
	CreateBatch(ctx context.Context, tickets []*entity.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error)
	FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Ticket, error)
	// FindByIDsForUpdate locks the matching tickets for the duration of the
	// enclosing transaction so the check-then-write in the allocator is not
	// racing concurrent buyers.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*entity.Ticket, error)
	// FindBySeatIDsForUpdate locks the tickets of the given seats within
	// one showtime; buy/reserve requests address seats, not ticket ids.
	FindBySeatIDsForUpdate(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Ticket, error)
	// UpdateStatusVersioned transitions one ticket guarded by its version
	// token. Returns ErrStaleVersion when the token moved underneath us.
	UpdateStatusVersioned(ctx context.Context, ticket *entity.Ticket) error
	CountFree(ctx context.Context, showtimeID uuid.UUID) (int, error)
	DeleteByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error)
	// FreeExpiredHolds reverts reservations whose hold lapsed before the
	// given instant and returns how many were reclaimed.
	FreeExpiredHolds(ctx context.Context, now time.Time) (int64, error)
}

type ticketRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTicketRepository(db database.Querier, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

const ticketColumns = `id, showtime_id, seat_id, status, owner_id, price, reserved_until, version, created_at, updated_at`

func scanTicket(row pgx.Row) (*entity.Ticket, error) {
	var ticket entity.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.ShowtimeID,
		&ticket.SeatID,
		&ticket.Status,
		&ticket.OwnerID,
		&ticket.Price,
		&ticket.ReservedUntil,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) scanTickets(rows pgx.Rows) ([]*entity.Ticket, error) {
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			r.log.Error("Failed to scan ticket row", zap.Error(err))
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

func (r *ticketRepository) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	query := `
		INSERT INTO tickets (id, showtime_id, seat_id, status, owner_id, price, reserved_until, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, ticket := range tickets {
		_, err := r.db.Exec(ctx, query,
			ticket.ID,
			ticket.ShowtimeID,
			ticket.SeatID,
			ticket.Status,
			ticket.OwnerID,
			ticket.Price,
			ticket.ReservedUntil,
			ticket.Version,
			ticket.CreatedAt,
			ticket.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create ticket",
				zap.Error(err),
				zap.String("showtime_id", ticket.ShowtimeID.String()),
				zap.String("seat_id", ticket.SeatID.String()),
			)
			return fmt.Errorf("create ticket for showtime %s seat %s: %w",
				ticket.ShowtimeID.String(), ticket.SeatID.String(), translateDBErr(err))
		}
	}

	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket by ID",
			zap.Error(err),
			zap.String("ticket_id", id.String()),
		)
		return nil, fmt.Errorf("find ticket by ID %s: %w", id.String(), err)
	}

	return ticket, nil
}

func (r *ticketRepository) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE showtime_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to find tickets by showtime ID",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("find tickets by showtime ID %s: %w", showtimeID.String(), err)
	}

	return r.scanTickets(rows)
}

func (r *ticketRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*entity.Ticket, error) {
	// Lock in a deterministic order to avoid deadlocks between two carts
	// that share seats.
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to lock tickets",
			zap.Error(err),
			zap.Int("count", len(ids)),
		)
		return nil, fmt.Errorf("lock %d tickets: %w", len(ids), err)
	}

	return r.scanTickets(rows)
}

func (r *ticketRepository) FindBySeatIDsForUpdate(ctx context.Context, showtimeID uuid.UUID, seatIDs []uuid.UUID) ([]*entity.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE showtime_id = $1 AND seat_id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query, showtimeID, seatIDs)
	if err != nil {
		r.log.Error("Failed to lock tickets by seat",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("count", len(seatIDs)),
		)
		return nil, fmt.Errorf("lock tickets for %d seats in showtime %s: %w",
			len(seatIDs), showtimeID.String(), err)
	}

	return r.scanTickets(rows)
}

func (r *ticketRepository) UpdateStatusVersioned(ctx context.Context, ticket *entity.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $3, owner_id = $4, reserved_until = $5, version = version + 1, updated_at = $6
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Version,
		ticket.Status,
		ticket.OwnerID,
		ticket.ReservedUntil,
		ticket.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update ticket status",
			zap.Error(err),
			zap.String("ticket_id", ticket.ID.String()),
			zap.String("status", string(ticket.Status)),
		)
		return fmt.Errorf("update ticket %s status to %s: %w",
			ticket.ID.String(), string(ticket.Status), translateDBErr(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update ticket %s: %w", ticket.ID.String(), ErrStaleVersion)
	}

	ticket.Version++
	return nil
}

func (r *ticketRepository) CountFree(ctx context.Context, showtimeID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE showtime_id = $1 AND status = 'free'`

	var count int
	if err := r.db.QueryRow(ctx, query, showtimeID).Scan(&count); err != nil {
		r.log.Error("Failed to count free tickets",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, fmt.Errorf("count free tickets for showtime %s: %w", showtimeID.String(), err)
	}

	return count, nil
}

func (r *ticketRepository) DeleteByShowtimeID(ctx context.Context, showtimeID uuid.UUID) (int64, error) {
	query := `DELETE FROM tickets WHERE showtime_id = $1`

	result, err := r.db.Exec(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to delete tickets by showtime ID",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, fmt.Errorf("delete tickets for showtime %s: %w", showtimeID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *ticketRepository) FreeExpiredHolds(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE tickets
		SET status = 'free', owner_id = NULL, reserved_until = NULL, version = version + 1, updated_at = $1
		WHERE status = 'reserved' AND reserved_until IS NOT NULL AND reserved_until < $1
	`

	result, err := r.db.Exec(ctx, query, now)
	if err != nil {
		r.log.Error("Failed to free expired holds", zap.Error(err))
		return 0, fmt.Errorf("free expired holds: %w", err)
	}

	return result.RowsAffected(), nil
}
