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

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error)
	FindByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Seat, error)
}

type seatRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewSeatRepository(db database.Querier, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	query := `
		INSERT INTO seats (id, row_id, number, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, seat := range seats {
		_, err := r.db.Exec(ctx, query,
			seat.ID,
			seat.RowID,
			seat.Number,
			seat.Price,
			seat.CreatedAt,
			seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to create seat",
				zap.Error(err),
				zap.String("row_id", seat.RowID.String()),
				zap.Int("number", seat.Number),
			)
			return fmt.Errorf("create seat %d in row %s: %w",
				seat.Number, seat.RowID.String(), translateDBErr(err))
		}
	}

	return nil
}

func (r *seatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Seat, error) {
	query := `
		SELECT id, row_id, number, price, created_at, updated_at
		FROM seats
		WHERE id = $1
	`

	var seat entity.Seat
	err := r.db.QueryRow(ctx, query, id).Scan(
		&seat.ID,
		&seat.RowID,
		&seat.Number,
		&seat.Price,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat by ID",
			zap.Error(err),
			zap.String("seat_id", id.String()),
		)
		return nil, fmt.Errorf("find seat by ID %s: %w", id.String(), err)
	}

	return &seat, nil
}

func (r *seatRepository) FindByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT s.id, s.row_id, s.number, s.price, s.created_at, s.updated_at
		FROM seats s
		JOIN auditorium_rows ar ON ar.id = s.row_id
		WHERE ar.auditorium_id = $1
		ORDER BY ar.label, s.number
	`

	rows, err := r.db.Query(ctx, query, auditoriumID)
	if err != nil {
		r.log.Error("Failed to find seats by auditorium ID",
			zap.Error(err),
			zap.String("auditorium_id", auditoriumID.String()),
		)
		return nil, fmt.Errorf("find seats by auditorium ID %s: %w", auditoriumID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var seat entity.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.RowID,
			&seat.Number,
			&seat.Price,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan seat row", zap.Error(err))
			return nil, fmt.Errorf("scan seat row: %w", err)
		}
		seats = append(seats, &seat)
	}

	return seats, nil
}
