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

type FilmRepository interface {
	Create(ctx context.Context, film *entity.Film) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error)
	FindByTitle(ctx context.Context, title string) (*entity.Film, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Film, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, film *entity.Film) error
}

type filmRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewFilmRepository(db database.Querier, log *zap.Logger) FilmRepository {
	return &filmRepository{
		db:  db,
		log: log.With(zap.String("repository", "film")),
	}
}

func (r *filmRepository) Create(ctx context.Context, film *entity.Film) error {
	query := `
		INSERT INTO films (id, title, description, runtime, release_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		film.ID,
		film.Title,
		film.Description,
		film.Runtime,
		film.ReleaseDate,
		film.CreatedAt,
		film.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create film",
			zap.Error(err),
			zap.String("title", film.Title),
		)
		return fmt.Errorf("create film %q: %w", film.Title, translateDBErr(err))
	}

	return nil
}

func (r *filmRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Film, error) {
	query := `
		SELECT id, title, description, runtime, release_date, created_at, updated_at
		FROM films
		WHERE id = $1
	`

	var film entity.Film
	err := r.db.QueryRow(ctx, query, id).Scan(
		&film.ID,
		&film.Title,
		&film.Description,
		&film.Runtime,
		&film.ReleaseDate,
		&film.CreatedAt,
		&film.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find film by ID",
			zap.Error(err),
			zap.String("film_id", id.String()),
		)
		return nil, fmt.Errorf("find film by ID %s: %w", id.String(), err)
	}

	return &film, nil
}

func (r *filmRepository) FindByTitle(ctx context.Context, title string) (*entity.Film, error) {
	query := `
		SELECT id, title, description, runtime, release_date, created_at, updated_at
		FROM films
		WHERE title = $1
	`

	var film entity.Film
	err := r.db.QueryRow(ctx, query, title).Scan(
		&film.ID,
		&film.Title,
		&film.Description,
		&film.Runtime,
		&film.ReleaseDate,
		&film.CreatedAt,
		&film.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find film by title",
			zap.Error(err),
			zap.String("title", title),
		)
		return nil, fmt.Errorf("find film by title %q: %w", title, err)
	}

	return &film, nil
}

func (r *filmRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Film, error) {
	query := `
		SELECT id, title, description, runtime, release_date, created_at, updated_at
		FROM films
		ORDER BY title
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list films", zap.Error(err))
		return nil, fmt.Errorf("list films: %w", err)
	}
	defer rows.Close()

	var films []*entity.Film
	for rows.Next() {
		var film entity.Film
		err := rows.Scan(
			&film.ID,
			&film.Title,
			&film.Description,
			&film.Runtime,
			&film.ReleaseDate,
			&film.CreatedAt,
			&film.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan film row", zap.Error(err))
			return nil, fmt.Errorf("scan film row: %w", err)
		}
		films = append(films, &film)
	}

	return films, nil
}

func (r *filmRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM films`

	var count int64
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		r.log.Error("Failed to count films", zap.Error(err))
		return 0, fmt.Errorf("count films: %w", err)
	}

	return count, nil
}

func (r *filmRepository) Update(ctx context.Context, film *entity.Film) error {
	query := `
		UPDATE films
		SET title = $2, description = $3, runtime = $4, release_date = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		film.ID,
		film.Title,
		film.Description,
		film.Runtime,
		film.ReleaseDate,
		film.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update film",
			zap.Error(err),
			zap.String("film_id", film.ID.String()),
		)
		return fmt.Errorf("update film %s: %w", film.ID.String(), translateDBErr(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update film %s: %w", film.ID.String(), ErrNotFound)
	}

	return nil
}
