package entity

import (
	"time"

	"github.com/google/uuid"
)

type ShowtimeStatus string

const (
	ShowtimeStatusPlanned ShowtimeStatus = "planned"
	ShowtimeStatusRunning ShowtimeStatus = "running"
	ShowtimeStatusEnded   ShowtimeStatus = "ended"
)

type Showtime struct {
	Base
	FilmID       uuid.UUID      `db:"film_id"`
	AuditoriumID uuid.UUID      `db:"auditorium_id"`
	StartsAt     time.Time      `db:"starts_at"`
	Status       ShowtimeStatus `db:"status"`
}

// EndsAt derives the screening end from the film runtime. The end is never
// stored; it is recomputed per operation.
func (s *Showtime) EndsAt(film *Film) time.Time {
	return s.StartsAt.Add(film.Duration())
}

// IntervalsOverlap is the half-open [start,end) overlap test. Touching
// intervals (one ends exactly when the other starts) do not overlap.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
