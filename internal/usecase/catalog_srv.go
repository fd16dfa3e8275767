package usecase

import (
	"context"
	"errors"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/dto/response"
	"cinema-ops/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	CreateFilm(ctx context.Context, req *request.CreateFilmRequest) (*response.FilmResponse, error)
	GetFilms(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FilmResponse], error)
	GetFilmByID(ctx context.Context, filmID string) (*response.FilmResponse, error)
	// CreateAuditorium builds the room and its seats in one transaction;
	// seat prices are fixed from the row category at creation.
	CreateAuditorium(ctx context.Context, req *request.CreateAuditoriumRequest) (*response.AuditoriumResponse, error)
	GetAuditoriums(ctx context.Context) ([]response.AuditoriumResponse, error)
	GetAuditoriumByID(ctx context.Context, auditoriumID string) (*response.AuditoriumResponse, error)
}

type catalogService struct {
	repo    *repository.Repository
	uow     repository.UnitOfWork
	pricing utils.PricingConfig
	log     *zap.Logger
}

func NewCatalogService(repo *repository.Repository, uow repository.UnitOfWork, config *utils.Config, log *zap.Logger) CatalogService {
	return &catalogService{
		repo:    repo,
		uow:     uow,
		pricing: config.Pricing,
		log:     log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) CreateFilm(ctx context.Context, req *request.CreateFilmRequest) (*response.FilmResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create film validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	now := time.Now()
	film := &entity.Film{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Title:       req.Title,
		Description: req.Description,
		Runtime:     req.Runtime,
	}
	if req.ReleaseDate != nil {
		date, err := time.Parse("2006-01-02", *req.ReleaseDate)
		if err != nil {
			return nil, parseErrorf("invalid release date %s: %w", *req.ReleaseDate, err)
		}
		film.ReleaseDate = &date
	}

	if err := s.repo.Film.Create(ctx, film); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, &ValidationError{Fields: map[string]string{"title": "already exists"}}
		}
		return nil, err
	}

	s.log.Info("Film created",
		zap.String("film_id", film.ID.String()),
		zap.String("title", film.Title),
	)

	resp := response.FilmToResponse(film)
	return &resp, nil
}

func (s *catalogService) GetFilms(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.FilmResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}

	films, err := s.repo.Film.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Film.Count(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]response.FilmResponse, len(films))
	for i, film := range films {
		responses[i] = response.FilmToResponse(film)
	}

	return response.NewPaginatedResponse(responses, req.Page, req.Limit(), total), nil
}

func (s *catalogService) GetFilmByID(ctx context.Context, filmID string) (*response.FilmResponse, error) {
	id, err := uuid.Parse(filmID)
	if err != nil {
		return nil, parseErrorf("invalid film ID format %s: %w", filmID, err)
	}

	film, err := s.repo.Film.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if film == nil {
		return nil, &NotFoundError{Resource: "film", ID: filmID}
	}

	resp := response.FilmToResponse(film)
	return &resp, nil
}

func (s *catalogService) CreateAuditorium(ctx context.Context, req *request.CreateAuditoriumRequest) (*response.AuditoriumResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create auditorium validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	now := time.Now()
	auditorium := &entity.Auditorium{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name: req.Name,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		if err := tx.Auditorium.Create(ctx, auditorium); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return &ValidationError{Fields: map[string]string{"name": "already exists"}}
			}
			return err
		}

		for _, spec := range req.Rows {
			row := entity.Row{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				AuditoriumID: auditorium.ID,
				Label:        spec.Label,
				Category:     entity.PriceCategory(spec.Category),
			}
			if err := tx.Auditorium.CreateRow(ctx, &row); err != nil {
				return err
			}

			price := priceForCategory(row.Category, s.pricing)
			seats := make([]*entity.Seat, spec.Seats)
			for i := range seats {
				seats[i] = &entity.Seat{
					Base: entity.Base{
						ID:        uuid.New(),
						CreatedAt: now,
						UpdatedAt: now,
					},
					RowID:  row.ID,
					Number: i + 1,
					Price:  price,
				}
			}
			if err := tx.Seat.CreateBatch(ctx, seats); err != nil {
				return err
			}

			for _, seat := range seats {
				row.Seats = append(row.Seats, *seat)
			}
			auditorium.Rows = append(auditorium.Rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Auditorium created",
		zap.String("auditorium_id", auditorium.ID.String()),
		zap.String("name", auditorium.Name),
		zap.Int("rows", len(auditorium.Rows)),
	)

	return response.AuditoriumToResponse(auditorium), nil
}

func (s *catalogService) GetAuditoriums(ctx context.Context) ([]response.AuditoriumResponse, error) {
	auditoriums, err := s.repo.Auditorium.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]response.AuditoriumResponse, len(auditoriums))
	for i, auditorium := range auditoriums {
		responses[i] = *response.AuditoriumToResponse(auditorium)
	}
	return responses, nil
}

func (s *catalogService) GetAuditoriumByID(ctx context.Context, auditoriumID string) (*response.AuditoriumResponse, error) {
	id, err := uuid.Parse(auditoriumID)
	if err != nil {
		return nil, parseErrorf("invalid auditorium ID format %s: %w", auditoriumID, err)
	}

	auditorium, err := s.repo.Auditorium.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if auditorium == nil {
		return nil, &NotFoundError{Resource: "auditorium", ID: auditoriumID}
	}

	rows, err := s.repo.Auditorium.FindRowsByAuditoriumID(ctx, id)
	if err != nil {
		return nil, err
	}

	seats, err := s.repo.Seat.FindByAuditoriumID(ctx, id)
	if err != nil {
		return nil, err
	}

	seatsByRow := make(map[uuid.UUID][]entity.Seat, len(rows))
	for _, seat := range seats {
		seatsByRow[seat.RowID] = append(seatsByRow[seat.RowID], *seat)
	}
	for _, row := range rows {
		row.Seats = seatsByRow[row.ID]
		auditorium.Rows = append(auditorium.Rows, *row)
	}

	return response.AuditoriumToResponse(auditorium), nil
}
