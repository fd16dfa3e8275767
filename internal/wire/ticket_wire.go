package wire

import (
	"cinema-ops/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireTicket(r chi.Router, handler *adaptor.TicketHandler) {
	r.Post("/api/showtimes/{id}/tickets/buy", handler.BuyTickets)
	r.Post("/api/showtimes/{id}/tickets/reserve", handler.ReserveTickets)
	r.Get("/api/showtimes/{id}/free-seats", handler.GetFreeSeatCount)
	r.Post("/api/tickets/cancel", handler.CancelTickets)

	// ==================== ADMIN ROUTES ====================
	r.Put("/api/admin/tickets/{id}/status", handler.UpdateTicketStatus)
}
