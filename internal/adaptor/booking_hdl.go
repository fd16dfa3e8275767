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

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// Pay handles POST /api/bookings/{id}/pay
func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	var req request.PayBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	booking, err := h.service.Pay(r.Context(), bookingID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "pay booking")
		return
	}

	utils.ResponseSuccess(w, "Payment accepted", booking)
}

// GetBookingByID handles GET /api/bookings/{id}
func (h *BookingHandler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	booking, err := h.service.GetBookingByID(r.Context(), bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get booking by ID")
		return
	}

	utils.ResponseSuccess(w, "Booking retrieved successfully", booking)
}

// GetBookingsByShowtime handles GET /api/showtimes/{id}/bookings
func (h *BookingHandler) GetBookingsByShowtime(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	bookings, err := h.service.GetBookingsByShowtimeID(r.Context(), showtimeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get bookings by showtime")
		return
	}

	utils.ResponseSuccess(w, "Bookings retrieved successfully", bookings)
}
