package wire

import (
	"cinema-ops/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, handler *adaptor.CatalogHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/films", handler.GetFilms)
	r.Get("/api/films/{id}", handler.GetFilmByID)
	r.Get("/api/auditoriums", handler.GetAuditoriums)
	r.Get("/api/auditoriums/{id}", handler.GetAuditoriumByID)

	// ==================== ADMIN ROUTES ====================
	r.Post("/api/admin/films", handler.CreateFilm)
	r.Post("/api/admin/auditoriums", handler.CreateAuditorium)
}
