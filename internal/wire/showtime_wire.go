package wire

import (
	"cinema-ops/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireShowtime(r chi.Router, handler *adaptor.ShowtimeHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/showtimes", handler.GetShowtimes)
	r.Get("/api/showtimes/{id}", handler.GetShowtimeByID)
	r.Get("/api/auditoriums/{id}/showtimes", handler.GetShowtimesByAuditorium)
	r.Get("/api/films/{id}/showtimes", handler.GetShowtimesByFilm)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/showtimes", func(r chi.Router) {
		r.Post("/", handler.CreateShowtime)
		r.Put("/{id}", handler.UpdateShowtime)
		r.Delete("/{id}", handler.DeleteShowtime)
	})
}
