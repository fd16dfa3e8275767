package response

import (
	"time"

	"cinema-ops/internal/data/entity"
)

type ShowtimeResponse struct {
	ID           string    `json:"id"`
	FilmID       string    `json:"film_id"`
	FilmTitle    string    `json:"film_title,omitempty"`
	AuditoriumID string    `json:"auditorium_id"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"` // derived from the film runtime
	Status       string    `json:"status"`
	TicketCount  int       `json:"ticket_count,omitempty"`
}

// ShowtimeUpdateResponse carries both snapshots so the caller can audit
// or undo the change.
type ShowtimeUpdateResponse struct {
	Before ShowtimeResponse `json:"before"`
	After  ShowtimeResponse `json:"after"`
}

func ShowtimeToResponse(showtime *entity.Showtime, film *entity.Film) ShowtimeResponse {
	resp := ShowtimeResponse{
		ID:           showtime.ID.String(),
		FilmID:       showtime.FilmID.String(),
		AuditoriumID: showtime.AuditoriumID.String(),
		StartsAt:     showtime.StartsAt,
		Status:       string(showtime.Status),
	}
	if film != nil {
		resp.FilmTitle = film.Title
		resp.EndsAt = showtime.EndsAt(film)
	}
	return resp
}
