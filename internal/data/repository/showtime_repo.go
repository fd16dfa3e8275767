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

type ShowtimeRepository interface {
	Create(ctx context.Context, showtime *entity.Showtime) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error)
	FindByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Showtime, error)
	FindByFilmID(ctx context.Context, filmID uuid.UUID) ([]*entity.Showtime, error)
	FindByDay(ctx context.Context, day time.Time) ([]*entity.Showtime, error)
	FindByAuditoriumAndDay(ctx context.Context, auditoriumID uuid.UUID, day time.Time) ([]*entity.Showtime, error)
	Update(ctx context.Context, showtime *entity.Showtime) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type showtimeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewShowtimeRepository(db database.Querier, log *zap.Logger) ShowtimeRepository {
	return &showtimeRepository{
		db:  db,
		log: log.With(zap.String("repository", "showtime")),
	}
}

const showtimeColumns = `id, film_id, auditorium_id, starts_at, status, created_at, updated_at`

func (r *showtimeRepository) scanRow(row pgx.Row) (*entity.Showtime, error) {
	var showtime entity.Showtime
	err := row.Scan(
		&showtime.ID,
		&showtime.FilmID,
		&showtime.AuditoriumID,
		&showtime.StartsAt,
		&showtime.Status,
		&showtime.CreatedAt,
		&showtime.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &showtime, nil
}

func (r *showtimeRepository) scanRows(rows pgx.Rows) ([]*entity.Showtime, error) {
	defer rows.Close()

	var showtimes []*entity.Showtime
	for rows.Next() {
		showtime, err := r.scanRow(rows)
		if err != nil {
			r.log.Error("Failed to scan showtime row", zap.Error(err))
			return nil, fmt.Errorf("scan showtime row: %w", err)
		}
		showtimes = append(showtimes, showtime)
	}

	return showtimes, nil
}

func (r *showtimeRepository) Create(ctx context.Context, showtime *entity.Showtime) error {
	query := `
		INSERT INTO showtimes (id, film_id, auditorium_id, starts_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		showtime.ID,
		showtime.FilmID,
		showtime.AuditoriumID,
		showtime.StartsAt,
		showtime.Status,
		showtime.CreatedAt,
		showtime.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create showtime",
			zap.Error(err),
			zap.String("film_id", showtime.FilmID.String()),
			zap.String("auditorium_id", showtime.AuditoriumID.String()),
			zap.Time("starts_at", showtime.StartsAt),
		)
		return fmt.Errorf("create showtime for film %s auditorium %s: %w",
			showtime.FilmID.String(), showtime.AuditoriumID.String(), translateDBErr(err))
	}

	return nil
}

func (r *showtimeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = $1`

	showtime, err := r.scanRow(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showtime by ID",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return nil, fmt.Errorf("find showtime by ID %s: %w", id.String(), err)
	}

	return showtime, nil
}

func (r *showtimeRepository) FindByAuditoriumID(ctx context.Context, auditoriumID uuid.UUID) ([]*entity.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE auditorium_id = $1 ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, auditoriumID)
	if err != nil {
		r.log.Error("Failed to find showtimes by auditorium ID",
			zap.Error(err),
			zap.String("auditorium_id", auditoriumID.String()),
		)
		return nil, fmt.Errorf("find showtimes by auditorium ID %s: %w", auditoriumID.String(), err)
	}

	return r.scanRows(rows)
}

func (r *showtimeRepository) FindByFilmID(ctx context.Context, filmID uuid.UUID) ([]*entity.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE film_id = $1 ORDER BY starts_at`

	rows, err := r.db.Query(ctx, query, filmID)
	if err != nil {
		r.log.Error("Failed to find showtimes by film ID",
			zap.Error(err),
			zap.String("film_id", filmID.String()),
		)
		return nil, fmt.Errorf("find showtimes by film ID %s: %w", filmID.String(), err)
	}

	return r.scanRows(rows)
}

func (r *showtimeRepository) FindByDay(ctx context.Context, day time.Time) ([]*entity.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE starts_at >= $1 AND starts_at < $2 ORDER BY starts_at`

	dayStart := day.Truncate(24 * time.Hour)
	rows, err := r.db.Query(ctx, query, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		r.log.Error("Failed to find showtimes by day",
			zap.Error(err),
			zap.Time("day", day),
		)
		return nil, fmt.Errorf("find showtimes by day %s: %w", day.Format("2006-01-02"), err)
	}

	return r.scanRows(rows)
}

func (r *showtimeRepository) FindByAuditoriumAndDay(ctx context.Context, auditoriumID uuid.UUID, day time.Time) ([]*entity.Showtime, error) {
	query := `
		SELECT ` + showtimeColumns + `
		FROM showtimes
		WHERE auditorium_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at
	`

	dayStart := day.Truncate(24 * time.Hour)
	rows, err := r.db.Query(ctx, query, auditoriumID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		r.log.Error("Failed to find showtimes by auditorium and day",
			zap.Error(err),
			zap.String("auditorium_id", auditoriumID.String()),
			zap.Time("day", day),
		)
		return nil, fmt.Errorf("find showtimes by auditorium %s day %s: %w",
			auditoriumID.String(), day.Format("2006-01-02"), err)
	}

	return r.scanRows(rows)
}

func (r *showtimeRepository) Update(ctx context.Context, showtime *entity.Showtime) error {
	query := `
		UPDATE showtimes
		SET film_id = $2, auditorium_id = $3, starts_at = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		showtime.ID,
		showtime.FilmID,
		showtime.AuditoriumID,
		showtime.StartsAt,
		showtime.Status,
		showtime.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update showtime",
			zap.Error(err),
			zap.String("showtime_id", showtime.ID.String()),
		)
		return fmt.Errorf("update showtime %s: %w", showtime.ID.String(), translateDBErr(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update showtime %s: %w", showtime.ID.String(), ErrNotFound)
	}

	return nil
}

func (r *showtimeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM showtimes WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to delete showtime",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return fmt.Errorf("delete showtime %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete showtime %s: %w", id.String(), ErrNotFound)
	}

	r.log.Info("Showtime deleted", zap.String("showtime_id", id.String()))
	return nil
}
