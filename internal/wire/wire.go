package wire

import (
	"net/http"

	"cinema-ops/internal/adaptor"
	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/usecase"
	"cinema-ops/pkg/middleware"
	"cinema-ops/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

func Wiring(repo *repository.Repository, uow repository.UnitOfWork, relay usecase.RelayKicker, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, uow, relay, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireCatalog(r, handler.Catalog)
	wireShowtime(r, handler.Showtime)
	wireTicket(r, handler.Ticket)
	wireBooking(r, handler.Booking)
	wireCustomer(r, handler.Customer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
