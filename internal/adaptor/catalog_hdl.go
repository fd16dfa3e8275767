package adaptor

import (
	"encoding/json"
	"net/http"

	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/usecase"
	"cinema-ops/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// CreateFilm handles POST /api/admin/films
func (h *CatalogHandler) CreateFilm(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFilmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	film, err := h.service.CreateFilm(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create film")
		return
	}

	utils.ResponseCreated(w, "Film created successfully", film)
}

// GetFilms handles GET /api/films?page=1&per_page=20
func (h *CatalogHandler) GetFilms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 20),
	}

	films, err := h.service.GetFilms(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "get films")
		return
	}

	utils.ResponseSuccess(w, "Films retrieved successfully", films)
}

// GetFilmByID handles GET /api/films/{id}
func (h *CatalogHandler) GetFilmByID(w http.ResponseWriter, r *http.Request) {
	filmID := chi.URLParam(r, "id")
	if filmID == "" {
		utils.ResponseBadRequest(w, "Film ID is required", nil)
		return
	}

	film, err := h.service.GetFilmByID(r.Context(), filmID)
	if err != nil {
		handleServiceError(w, h.log, err, "get film by ID")
		return
	}

	utils.ResponseSuccess(w, "Film retrieved successfully", film)
}

// CreateAuditorium handles POST /api/admin/auditoriums
func (h *CatalogHandler) CreateAuditorium(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAuditoriumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	auditorium, err := h.service.CreateAuditorium(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create auditorium")
		return
	}

	utils.ResponseCreated(w, "Auditorium created successfully", auditorium)
}

// GetAuditoriums handles GET /api/auditoriums
func (h *CatalogHandler) GetAuditoriums(w http.ResponseWriter, r *http.Request) {
	auditoriums, err := h.service.GetAuditoriums(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get auditoriums")
		return
	}

	utils.ResponseSuccess(w, "Auditoriums retrieved successfully", auditoriums)
}

// GetAuditoriumByID handles GET /api/auditoriums/{id}
func (h *CatalogHandler) GetAuditoriumByID(w http.ResponseWriter, r *http.Request) {
	auditoriumID := chi.URLParam(r, "id")
	if auditoriumID == "" {
		utils.ResponseBadRequest(w, "Auditorium ID is required", nil)
		return
	}

	auditorium, err := h.service.GetAuditoriumByID(r.Context(), auditoriumID)
	if err != nil {
		handleServiceError(w, h.log, err, "get auditorium by ID")
		return
	}

	utils.ResponseSuccess(w, "Auditorium retrieved successfully", auditorium)
}
