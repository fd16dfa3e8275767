package adaptor

import (
	"errors"
	"net/http"

	"cinema-ops/internal/usecase"
	"cinema-ops/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Catalog  *CatalogHandler
	Showtime *ShowtimeHandler
	Ticket   *TicketHandler
	Booking  *BookingHandler
	Customer *CustomerHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Catalog:  NewCatalogHandler(service.Catalog, log),
		Showtime: NewShowtimeHandler(service.Scheduler, log),
		Ticket:   NewTicketHandler(service.Ticket, log),
		Booking:  NewBookingHandler(service.Booking, log),
		Customer: NewCustomerHandler(service.Customer, log),
	}
}

// handleServiceError maps service errors to HTTP status codes. Conflicts
// (409) cover anything a client can resolve by retrying with fresh state.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var (
		notFound   *usecase.NotFoundError
		overlap    *usecase.OverlapError
		seat       *usecase.SeatConflictError
		transition *usecase.TransitionError
		validation *usecase.ValidationError
		parse      *usecase.ParseError
	)

	switch {
	case errors.As(err, &notFound):
		utils.ResponseNotFound(w, notFound.Error())
	case errors.As(err, &overlap):
		utils.ResponseConflict(w, overlap.Error(), nil)
	case errors.As(err, &seat):
		utils.ResponseConflict(w, seat.Error(), nil)
	case errors.Is(err, usecase.ErrAlreadyPaid):
		utils.ResponseConflict(w, "Booking is already paid", nil)
	case errors.Is(err, usecase.ErrConcurrency):
		utils.ResponseConflict(w, "Resource was modified concurrently, please retry", nil)
	case errors.As(err, &transition):
		utils.ResponseBadRequest(w, transition.Error(), nil)
	case errors.Is(err, usecase.ErrInvalidAmount):
		utils.ResponseBadRequest(w, "Payment amount must be positive", nil)
	case errors.As(err, &validation):
		utils.ResponseBadRequest(w, "Validation failed", validation.Fields)
	case errors.As(err, &parse):
		utils.ResponseBadRequest(w, parse.Error(), nil)
	default:
		log.Error("Service error", zap.String("operation", operation), zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
