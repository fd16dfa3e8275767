package usecase

import (
	"context"
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

type SchedulerService interface {
	CreateShowtime(ctx context.Context, req *request.CreateShowtimeRequest) (*response.ShowtimeResponse, error)
	// UpdateShowtime returns both the pre-update and post-update snapshot
	// for audit/undo at the caller.
	UpdateShowtime(ctx context.Context, showtimeID string, req *request.UpdateShowtimeRequest) (*response.ShowtimeUpdateResponse, error)
	DeleteShowtime(ctx context.Context, showtimeID string) error

	GetShowtimeByID(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error)
	GetShowtimesByDay(ctx context.Context, day string) ([]response.ShowtimeResponse, error)
	GetShowtimesByAuditorium(ctx context.Context, auditoriumID string, day *string) ([]response.ShowtimeResponse, error)
	GetShowtimesByFilm(ctx context.Context, filmID string) ([]response.ShowtimeResponse, error)
}

type schedulerService struct {
	repo  *repository.Repository
	uow   repository.UnitOfWork
	relay RelayKicker
	log   *zap.Logger
}

func NewSchedulerService(repo *repository.Repository, uow repository.UnitOfWork, relay RelayKicker, log *zap.Logger) SchedulerService {
	return &schedulerService{
		repo:  repo,
		uow:   uow,
		relay: relay,
		log:   log.With(zap.String("service", "scheduler")),
	}
}

func (s *schedulerService) CreateShowtime(ctx context.Context, req *request.CreateShowtimeRequest) (*response.ShowtimeResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create showtime validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	filmID, err := uuid.Parse(req.FilmID)
	if err != nil {
		return nil, parseErrorf("invalid film ID format %s: %w", req.FilmID, err)
	}

	auditoriumID, err := uuid.Parse(req.AuditoriumID)
	if err != nil {
		return nil, parseErrorf("invalid auditorium ID format %s: %w", req.AuditoriumID, err)
	}

	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return nil, parseErrorf("invalid starts_at %q, expected RFC 3339: %w", req.StartsAt, err)
	}

	var (
		showtime *entity.Showtime
		film     *entity.Film
		resp     *response.ShowtimeResponse
	)

	// The interval check below is check-then-act and therefore racy under
	// concurrent creates for the same auditorium; serializable isolation
	// makes the store abort one of the racers, and the unit of work
	// retries the loser against fresh state.
	err = s.uow.DoSerializable(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		film, err = tx.Film.FindByID(ctx, filmID)
		if err != nil {
			return fmt.Errorf("load film: %w", err)
		}
		if film == nil {
			return &NotFoundError{Resource: "film", ID: req.FilmID}
		}

		auditorium, err := tx.Auditorium.FindByID(ctx, auditoriumID)
		if err != nil {
			return fmt.Errorf("load auditorium: %w", err)
		}
		if auditorium == nil {
			return &NotFoundError{Resource: "auditorium", ID: req.AuditoriumID}
		}

		endsAt := startsAt.Add(film.Duration())
		if err := s.checkOverlap(ctx, tx, auditoriumID, uuid.Nil, startsAt, endsAt); err != nil {
			return err
		}

		seats, err := tx.Seat.FindByAuditoriumID(ctx, auditoriumID)
		if err != nil {
			return fmt.Errorf("load seats: %w", err)
		}

		now := time.Now()
		showtime = &entity.Showtime{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			FilmID:       filmID,
			AuditoriumID: auditoriumID,
			StartsAt:     startsAt,
			Status:       entity.ShowtimeStatusPlanned,
		}
		if err := tx.Showtime.Create(ctx, showtime); err != nil {
			return err
		}

		// One free ticket per seat, priced from the seat, in the same
		// transaction as the showtime itself.
		tickets := make([]*entity.Ticket, len(seats))
		for i, seat := range seats {
			tickets[i] = &entity.Ticket{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				ShowtimeID: showtime.ID,
				SeatID:     seat.ID,
				Status:     entity.TicketStatusFree,
				Price:      seat.Price,
				Version:    1,
			}
		}
		if err := tx.Ticket.CreateBatch(ctx, tickets); err != nil {
			return err
		}

		outboxEvent, err := event.NewOutboxEvent(event.TypeShowCreated, event.ShowCreated{
			ShowtimeID:   showtime.ID,
			FilmID:       filmID,
			FilmTitle:    film.Title,
			AuditoriumID: auditoriumID,
			StartsAt:     startsAt,
			EndsAt:       endsAt,
			SeatCount:    len(seats),
		})
		if err != nil {
			return err
		}
		if err := tx.Outbox.Add(ctx, outboxEvent); err != nil {
			return err
		}

		after(func(ctx context.Context) { s.relay.Kick() })
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Showtime created",
		zap.String("showtime_id", showtime.ID.String()),
		zap.String("film_id", req.FilmID),
		zap.String("auditorium_id", req.AuditoriumID),
		zap.Time("starts_at", startsAt),
	)

	result := response.ShowtimeToResponse(showtime, film)
	resp = &result
	return resp, nil
}

func (s *schedulerService) UpdateShowtime(ctx context.Context, showtimeID string, req *request.UpdateShowtimeRequest) (*response.ShowtimeUpdateResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update showtime validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, parseErrorf("invalid showtime ID format %s: %w", showtimeID, err)
	}

	var result response.ShowtimeUpdateResponse

	err = s.uow.DoSerializable(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		showtime, err := tx.Showtime.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load showtime: %w", err)
		}
		if showtime == nil {
			return &NotFoundError{Resource: "showtime", ID: showtimeID}
		}

		currentFilm, err := tx.Film.FindByID(ctx, showtime.FilmID)
		if err != nil {
			return fmt.Errorf("load film: %w", err)
		}
		result.Before = response.ShowtimeToResponse(showtime, currentFilm)

		// Unspecified fields keep their current values.
		newFilm := currentFilm
		if req.FilmID != nil {
			filmID, err := uuid.Parse(*req.FilmID)
			if err != nil {
				return parseErrorf("invalid film ID format %s: %w", *req.FilmID, err)
			}
			newFilm, err = tx.Film.FindByID(ctx, filmID)
			if err != nil {
				return fmt.Errorf("load film: %w", err)
			}
			if newFilm == nil {
				return &NotFoundError{Resource: "film", ID: *req.FilmID}
			}
			showtime.FilmID = filmID
		}

		if req.StartsAt != nil {
			startsAt, err := time.Parse(time.RFC3339, *req.StartsAt)
			if err != nil {
				return parseErrorf("invalid starts_at %q, expected RFC 3339: %w", *req.StartsAt, err)
			}
			showtime.StartsAt = startsAt
		}

		endsAt := showtime.StartsAt.Add(newFilm.Duration())
		if err := s.checkOverlap(ctx, tx, showtime.AuditoriumID, showtime.ID, showtime.StartsAt, endsAt); err != nil {
			return err
		}

		showtime.UpdatedAt = time.Now()
		if err := tx.Showtime.Update(ctx, showtime); err != nil {
			return err
		}

		result.After = response.ShowtimeToResponse(showtime, newFilm)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Showtime updated", zap.String("showtime_id", showtimeID))
	return &result, nil
}

func (s *schedulerService) DeleteShowtime(ctx context.Context, showtimeID string) error {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return parseErrorf("invalid showtime ID format %s: %w", showtimeID, err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		showtime, err := tx.Showtime.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load showtime: %w", err)
		}
		if showtime == nil {
			return &NotFoundError{Resource: "showtime", ID: showtimeID}
		}

		// Tickets live and die with their showtime.
		deleted, err := tx.Ticket.DeleteByShowtimeID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Showtime.Delete(ctx, id); err != nil {
			return err
		}

		s.log.Info("Showtime deleted",
			zap.String("showtime_id", showtimeID),
			zap.Int64("tickets_deleted", deleted),
		)
		return nil
	})

	return err
}

// checkOverlap rejects a [startsAt, endsAt) interval that intersects any
// other showtime in the auditorium. excludeID skips the showtime being
// updated. Existing ends are derived from each showtime's own film.
func (s *schedulerService) checkOverlap(ctx context.Context, tx *repository.Repository, auditoriumID, excludeID uuid.UUID, startsAt, endsAt time.Time) error {
	existing, err := tx.Showtime.FindByAuditoriumID(ctx, auditoriumID)
	if err != nil {
		return fmt.Errorf("load auditorium showtimes: %w", err)
	}

	films := make(map[uuid.UUID]*entity.Film)
	for _, other := range existing {
		if other.ID == excludeID {
			continue
		}

		film, ok := films[other.FilmID]
		if !ok {
			film, err = tx.Film.FindByID(ctx, other.FilmID)
			if err != nil {
				return fmt.Errorf("load film for overlap check: %w", err)
			}
			films[other.FilmID] = film
		}

		otherEnd := other.StartsAt.Add(film.Duration())
		if entity.IntervalsOverlap(startsAt, endsAt, other.StartsAt, otherEnd) {
			return &OverlapError{ConflictingID: other.ID}
		}
	}

	return nil
}

// ==================== QUERIES ====================

func (s *schedulerService) GetShowtimeByID(ctx context.Context, showtimeID string) (*response.ShowtimeResponse, error) {
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

	film, err := s.repo.Film.FindByID(ctx, showtime.FilmID)
	if err != nil {
		return nil, err
	}

	resp := response.ShowtimeToResponse(showtime, film)
	return &resp, nil
}

func (s *schedulerService) GetShowtimesByDay(ctx context.Context, day string) ([]response.ShowtimeResponse, error) {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil, parseErrorf("invalid day %q, expected YYYY-MM-DD: %w", day, err)
	}

	showtimes, err := s.repo.Showtime.FindByDay(ctx, date)
	if err != nil {
		return nil, err
	}

	return s.toResponses(ctx, showtimes)
}

func (s *schedulerService) GetShowtimesByAuditorium(ctx context.Context, auditoriumID string, day *string) ([]response.ShowtimeResponse, error) {
	id, err := uuid.Parse(auditoriumID)
	if err != nil {
		return nil, parseErrorf("invalid auditorium ID format %s: %w", auditoriumID, err)
	}

	var showtimes []*entity.Showtime
	if day != nil {
		date, err := time.Parse("2006-01-02", *day)
		if err != nil {
			return nil, parseErrorf("invalid day %q, expected YYYY-MM-DD: %w", *day, err)
		}
		showtimes, err = s.repo.Showtime.FindByAuditoriumAndDay(ctx, id, date)
		if err != nil {
			return nil, err
		}
	} else {
		showtimes, err = s.repo.Showtime.FindByAuditoriumID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return s.toResponses(ctx, showtimes)
}

func (s *schedulerService) GetShowtimesByFilm(ctx context.Context, filmID string) ([]response.ShowtimeResponse, error) {
	id, err := uuid.Parse(filmID)
	if err != nil {
		return nil, parseErrorf("invalid film ID format %s: %w", filmID, err)
	}

	showtimes, err := s.repo.Showtime.FindByFilmID(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.toResponses(ctx, showtimes)
}

func (s *schedulerService) toResponses(ctx context.Context, showtimes []*entity.Showtime) ([]response.ShowtimeResponse, error) {
	films := make(map[uuid.UUID]*entity.Film)

	responses := make([]response.ShowtimeResponse, len(showtimes))
	for i, showtime := range showtimes {
		film, ok := films[showtime.FilmID]
		if !ok {
			var err error
			film, err = s.repo.Film.FindByID(ctx, showtime.FilmID)
			if err != nil {
				return nil, err
			}
			films[showtime.FilmID] = film
		}
		responses[i] = response.ShowtimeToResponse(showtime, film)
	}

	return responses, nil
}
