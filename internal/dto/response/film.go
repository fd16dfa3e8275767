package response

import (
	"time"

	"cinema-ops/internal/data/entity"
)

type FilmResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	RuntimeMinutes int     `json:"runtime_minutes"`
	ReleaseDate    *string `json:"release_date,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func FilmToResponse(film *entity.Film) FilmResponse {
	resp := FilmResponse{
		ID:             film.ID.String(),
		Title:          film.Title,
		Description:    film.Description,
		RuntimeMinutes: entity.NormalizeRuntime(film.Runtime),
		CreatedAt:      film.CreatedAt,
	}
	if film.ReleaseDate != nil {
		date := film.ReleaseDate.Format("2006-01-02")
		resp.ReleaseDate = &date
	}
	return resp
}
