package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/dto/response"
	"cinema-ops/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogFilm is one entry from the external film catalog.
type CatalogFilm struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Runtime     int     `json:"runtime"`
	ReleaseDate *string `json:"release_date,omitempty"`
}

// FilmSource supplies the film list the daily refresh syncs against.
type FilmSource interface {
	FetchFilms(ctx context.Context) ([]CatalogFilm, error)
}

type httpFilmSource struct {
	url    string
	client *http.Client
}

func NewHTTPFilmSource(url string) FilmSource {
	return &httpFilmSource{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *httpFilmSource) FetchFilms(ctx context.Context) ([]CatalogFilm, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch film catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("film catalog returned status %d", resp.StatusCode)
	}

	var films []CatalogFilm
	if err := json.NewDecoder(resp.Body).Decode(&films); err != nil {
		return nil, fmt.Errorf("failed to decode film catalog: %w", err)
	}
	return films, nil
}

// ShowtimeSeeder is the slice of the scheduler the refresher needs. Seeding
// through it keeps overlap checks and ticket materialization in one place.
type ShowtimeSeeder interface {
	CreateShowtime(ctx context.Context, req *request.CreateShowtimeRequest) (*response.ShowtimeResponse, error)
}

// seedHours are the start times (local) for seeded next-day showtimes.
var seedHours = []int{12, 15, 18, 21}

// Refresher runs the daily catalog sync. Phase 1 refreshes the film table
// from the external source and commits. Phase 2 seeds next-day showtimes in
// its own transactions. A phase-1 failure skips phase 2 for that cycle; a
// phase-2 failure never undoes phase 1.
type Refresher struct {
	repo      *repository.Repository
	uow       repository.UnitOfWork
	scheduler ShowtimeSeeder
	source    FilmSource
	interval  time.Duration
	log       *zap.Logger
}

func NewRefresher(
	repo *repository.Repository,
	uow repository.UnitOfWork,
	scheduler ShowtimeSeeder,
	source FilmSource,
	interval time.Duration,
	log *zap.Logger,
) *Refresher {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Refresher{
		repo:      repo,
		uow:       uow,
		scheduler: scheduler,
		source:    source,
		interval:  interval,
		log:       log.With(zap.String("worker", "refresher")),
	}
}

func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("Refresher started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Refresher stopped")
			return
		case <-ticker.C:
			r.Cycle(ctx)
		}
	}
}

// Cycle runs one refresh + seed pass.
func (r *Refresher) Cycle(ctx context.Context) {
	if err := r.RefreshFilms(ctx); err != nil {
		r.log.Error("Film refresh failed, skipping showtime seeding", zap.Error(err))
		return
	}
	if err := r.SeedShowtimes(ctx); err != nil {
		r.log.Error("Showtime seeding failed", zap.Error(err))
	}
}

// RefreshFilms upserts the external catalog into the film table. Matching
// is by title; existing films keep their identity so scheduled showtimes
// are unaffected.
func (r *Refresher) RefreshFilms(ctx context.Context) error {
	films, err := r.source.FetchFilms(ctx)
	if err != nil {
		return err
	}

	var created, updated int
	err = r.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		now := time.Now()
		for _, item := range films {
			if item.Title == "" {
				continue
			}

			var releaseDate *time.Time
			if item.ReleaseDate != nil {
				date, err := time.Parse("2006-01-02", *item.ReleaseDate)
				if err == nil {
					releaseDate = &date
				}
			}

			existing, err := tx.Film.FindByTitle(ctx, item.Title)
			if err != nil {
				return err
			}

			if existing == nil {
				film := &entity.Film{
					Base: entity.Base{
						ID:        uuid.New(),
						CreatedAt: now,
						UpdatedAt: now,
					},
					Title:       item.Title,
					Description: item.Description,
					Runtime:     item.Runtime,
					ReleaseDate: releaseDate,
				}
				if err := tx.Film.Create(ctx, film); err != nil {
					return err
				}
				created++
				continue
			}

			if filmChanged(existing, item, releaseDate) {
				existing.Description = item.Description
				existing.Runtime = item.Runtime
				existing.ReleaseDate = releaseDate
				existing.UpdatedAt = now
				if err := tx.Film.Update(ctx, existing); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("Film catalog refreshed",
		zap.Int("fetched", len(films)),
		zap.Int("created", created),
		zap.Int("updated", updated),
	)
	return nil
}

func filmChanged(existing *entity.Film, item CatalogFilm, releaseDate *time.Time) bool {
	if existing.Runtime != item.Runtime {
		return true
	}
	if (existing.Description == nil) != (item.Description == nil) {
		return true
	}
	if existing.Description != nil && item.Description != nil && *existing.Description != *item.Description {
		return true
	}
	if (existing.ReleaseDate == nil) != (releaseDate == nil) {
		return true
	}
	if existing.ReleaseDate != nil && releaseDate != nil && !existing.ReleaseDate.Equal(*releaseDate) {
		return true
	}
	return false
}

// SeedShowtimes fills tomorrow's empty auditoriums with a default program,
// films assigned round-robin across the standard slots. Auditoriums that
// already have showtimes tomorrow are left alone.
func (r *Refresher) SeedShowtimes(ctx context.Context) error {
	films, err := r.repo.Film.FindAll(ctx, 100, 0)
	if err != nil {
		return err
	}
	if len(films) == 0 {
		r.log.Info("No films available, skipping showtime seeding")
		return nil
	}

	auditoriums, err := r.repo.Auditorium.FindAll(ctx)
	if err != nil {
		return err
	}

	tomorrow := time.Now().AddDate(0, 0, 1)
	day := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location())

	var seeded int
	filmIdx := 0
	for _, auditorium := range auditoriums {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		existing, err := r.repo.Showtime.FindByAuditoriumAndDay(ctx, auditorium.ID, day)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}

		for _, hour := range seedHours {
			film := films[filmIdx%len(films)]
			filmIdx++

			startsAt := day.Add(time.Duration(hour) * time.Hour)
			_, err := r.scheduler.CreateShowtime(ctx, &request.CreateShowtimeRequest{
				FilmID:       film.ID.String(),
				AuditoriumID: auditorium.ID.String(),
				StartsAt:     startsAt.Format(time.RFC3339),
			})
			if err != nil {
				// A long film can spill into the next slot; skip it.
				var overlap *usecase.OverlapError
				if errors.As(err, &overlap) {
					r.log.Warn("Seeded showtime overlaps, skipping slot",
						zap.String("auditorium_id", auditorium.ID.String()),
						zap.Time("starts_at", startsAt),
					)
					continue
				}
				return err
			}
			seeded++
		}
	}

	r.log.Info("Next-day showtimes seeded",
		zap.Time("day", day),
		zap.Int("count", seeded),
	)
	return nil
}
