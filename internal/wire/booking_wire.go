package wire

import (
	"cinema-ops/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, handler *adaptor.BookingHandler) {
	r.Post("/api/bookings/{id}/pay", handler.Pay)
	r.Get("/api/bookings/{id}", handler.GetBookingByID)
	r.Get("/api/showtimes/{id}/bookings", handler.GetBookingsByShowtime)
}
