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

type AuditoriumRepository interface {
	Create(ctx context.Context, auditorium *entity.Auditorium) error
	CreateRow(ctx context.Context, row *entity.Row) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Auditorium, error)
	FindAll(ctx context.Context) ([]*entity.Auditorium, error)
	FindRowsByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Row, error)
}

type auditoriumRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewAuditoriumRepository(db database.Querier, log *zap.Logger) AuditoriumRepository {
	return &auditoriumRepository{
		db:  db,
		log: log.With(zap.String("repository", "auditorium")),
	}
}

func (r *auditoriumRepository) Create(ctx context.Context, auditorium *entity.Auditorium) error {
	query := `
		INSERT INTO auditoriums (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query,
		auditorium.ID,
		auditorium.Name,
		auditorium.CreatedAt,
		auditorium.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create auditorium",
			zap.Error(err),
			zap.String("name", auditorium.Name),
		)
		return fmt.Errorf("create auditorium %q: %w", auditorium.Name, translateDBErr(err))
	}

	return nil
}

func (r *auditoriumRepository) CreateRow(ctx context.Context, row *entity.Row) error {
	query := `
		INSERT INTO auditorium_rows (id, auditorium_id, label, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		row.ID,
		row.AuditoriumID,
		row.Label,
		row.Category,
		row.CreatedAt,
		row.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create row",
			zap.Error(err),
			zap.String("auditorium_id", row.AuditoriumID.String()),
			zap.String("label", row.Label),
		)
		return fmt.Errorf("create row %s in auditorium %s: %w",
			row.Label, row.AuditoriumID.String(), translateDBErr(err))
	}

	return nil
}

func (r *auditoriumRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Auditorium, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM auditoriums
		WHERE id = $1
	`

	var auditorium entity.Auditorium
	err := r.db.QueryRow(ctx, query, id).Scan(
		&auditorium.ID,
		&auditorium.Name,
		&auditorium.CreatedAt,
		&auditorium.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find auditorium by ID",
			zap.Error(err),
			zap.String("auditorium_id", id.String()),
		)
		return nil, fmt.Errorf("find auditorium by ID %s: %w", id.String(), err)
	}

	return &auditorium, nil
}

func (r *auditoriumRepository) FindAll(ctx context.Context) ([]*entity.Auditorium, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM auditoriums
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to list auditoriums", zap.Error(err))
		return nil, fmt.Errorf("list auditoriums: %w", err)
	}
	defer rows.Close()

	var auditoriums []*entity.Auditorium
	for rows.Next() {
		var auditorium entity.Auditorium
		err := rows.Scan(
			&auditorium.ID,
			&auditorium.Name,
			&auditorium.CreatedAt,
			&auditorium.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan auditorium row", zap.Error(err))
			return nil, fmt.Errorf("scan auditorium row: %w", err)
		}
		auditoriums = append(auditoriums, &auditorium)
	}

	return auditoriums, nil
}

func (r *auditoriumRepository) FindRowsByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Row, error) {
	query := `
		SELECT id, auditorium_id, label, category, created_at, updated_at
		FROM auditorium_rows
		WHERE auditorium_id = $1
		ORDER BY label
	`

	rows, err := r.db.Query(ctx, query, auditoriumID)
	if err != nil {
		r.log.Error("Failed to find rows by auditorium ID",
			zap.Error(err),
			zap.String("auditorium_id", auditoriumID.String()),
		)
		return nil, fmt.Errorf("find rows by auditorium ID %s: %w", auditoriumID.String(), err)
	}
	defer rows.Close()

	var result []*entity.Row
	for rows.Next() {
		var row entity.Row
		err := rows.Scan(
			&row.ID,
			&row.AuditoriumID,
			&row.Label,
			&row.Category,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan auditorium row", zap.Error(err))
			return nil, fmt.Errorf("scan auditorium row: %w", err)
		}
		result = append(result, &row)
	}

	return result, nil
}
