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

type TicketHandler struct {
	service usecase.TicketService
	log     *zap.Logger
}

func NewTicketHandler(service usecase.TicketService, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		log:     log.With(zap.String("handler", "ticket")),
	}
}

// BuyTickets handles POST /api/showtimes/{id}/tickets/buy
func (h *TicketHandler) BuyTickets(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	var req request.BuyTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	purchase, err := h.service.BuyTickets(r.Context(), showtimeID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "buy tickets")
		return
	}

	utils.ResponseCreated(w, "Tickets purchased successfully", purchase)
}

// ReserveTickets handles POST /api/showtimes/{id}/tickets/reserve
func (h *TicketHandler) ReserveTickets(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	var req request.ReserveTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reservation, err := h.service.ReserveTickets(r.Context(), showtimeID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "reserve tickets")
		return
	}

	utils.ResponseCreated(w, "Tickets reserved successfully", reservation)
}

// CancelTickets handles POST /api/tickets/cancel
func (h *TicketHandler) CancelTickets(w http.ResponseWriter, r *http.Request) {
	var req request.CancelTicketsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CancelTickets(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel tickets")
		return
	}

	utils.ResponseSuccess(w, "Tickets cancelled successfully", result)
}

// GetFreeSeatCount handles GET /api/showtimes/{id}/free-seats
func (h *TicketHandler) GetFreeSeatCount(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	count, err := h.service.GetFreeSeatCount(r.Context(), showtimeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get free seat count")
		return
	}

	utils.ResponseSuccess(w, "Free seat count retrieved successfully", count)
}

// UpdateTicketStatus handles PUT /api/admin/tickets/{id}/status
func (h *TicketHandler) UpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "id")
	if ticketID == "" {
		utils.ResponseBadRequest(w, "Ticket ID is required", nil)
		return
	}

	var req request.UpdateTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	ticket, err := h.service.UpdateTicketStatus(r.Context(), ticketID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update ticket status")
		return
	}

	utils.ResponseSuccess(w, "Ticket status updated successfully", ticket)
}
