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

type ShowtimeHandler struct {
	service usecase.SchedulerService
	log     *zap.Logger
}

func NewShowtimeHandler(service usecase.SchedulerService, log *zap.Logger) *ShowtimeHandler {
	return &ShowtimeHandler{
		service: service,
		log:     log.With(zap.String("handler", "showtime")),
	}
}

// CreateShowtime handles POST /api/admin/showtimes
func (h *ShowtimeHandler) CreateShowtime(w http.ResponseWriter, r *http.Request) {
	var req request.CreateShowtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	showtime, err := h.service.CreateShowtime(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create showtime")
		return
	}

	utils.ResponseCreated(w, "Showtime created successfully", showtime)
}

// UpdateShowtime handles PUT /api/admin/showtimes/{id}
func (h *ShowtimeHandler) UpdateShowtime(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	var req request.UpdateShowtimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.UpdateShowtime(r.Context(), showtimeID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update showtime")
		return
	}

	utils.ResponseSuccess(w, "Showtime updated successfully", result)
}

// DeleteShowtime handles DELETE /api/admin/showtimes/{id}
func (h *ShowtimeHandler) DeleteShowtime(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	if err := h.service.DeleteShowtime(r.Context(), showtimeID); err != nil {
		handleServiceError(w, h.log, err, "delete showtime")
		return
	}

	utils.ResponseSuccess(w, "Showtime deleted successfully", nil)
}

// GetShowtimeByID handles GET /api/showtimes/{id}
func (h *ShowtimeHandler) GetShowtimeByID(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	showtime, err := h.service.GetShowtimeByID(r.Context(), showtimeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get showtime by ID")
		return
	}

	utils.ResponseSuccess(w, "Showtime retrieved successfully", showtime)
}

// GetShowtimes handles GET /api/showtimes?day=YYYY-MM-DD
func (h *ShowtimeHandler) GetShowtimes(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		utils.ResponseBadRequest(w, "Query parameter 'day' is required (YYYY-MM-DD)", nil)
		return
	}

	showtimes, err := h.service.GetShowtimesByDay(r.Context(), day)
	if err != nil {
		handleServiceError(w, h.log, err, "get showtimes by day")
		return
	}

	utils.ResponseSuccess(w, "Showtimes retrieved successfully", showtimes)
}

// GetShowtimesByAuditorium handles GET /api/auditoriums/{id}/showtimes?day=YYYY-MM-DD
func (h *ShowtimeHandler) GetShowtimesByAuditorium(w http.ResponseWriter, r *http.Request) {
	auditoriumID := chi.URLParam(r, "id")
	if auditoriumID == "" {
		utils.ResponseBadRequest(w, "Auditorium ID is required", nil)
		return
	}

	var day *string
	if value := r.URL.Query().Get("day"); value != "" {
		day = &value
	}

	showtimes, err := h.service.GetShowtimesByAuditorium(r.Context(), auditoriumID, day)
	if err != nil {
		handleServiceError(w, h.log, err, "get showtimes by auditorium")
		return
	}

	utils.ResponseSuccess(w, "Showtimes retrieved successfully", showtimes)
}

// GetShowtimesByFilm handles GET /api/films/{id}/showtimes
func (h *ShowtimeHandler) GetShowtimesByFilm(w http.ResponseWriter, r *http.Request) {
	filmID := chi.URLParam(r, "id")
	if filmID == "" {
		utils.ResponseBadRequest(w, "Film ID is required", nil)
		return
	}

	showtimes, err := h.service.GetShowtimesByFilm(r.Context(), filmID)
	if err != nil {
		handleServiceError(w, h.log, err, "get showtimes by film")
		return
	}

	utils.ResponseSuccess(w, "Showtimes retrieved successfully", showtimes)
}
