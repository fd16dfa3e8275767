package usecase

import (
	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/data/repository"
	"cinema-ops/pkg/utils"

	"go.uber.org/zap"
)

// RelayKicker nudges the outbox relay after a commit so events reach the
// broker without waiting for the next tick.
type RelayKicker interface {
	Kick()
}

type Service struct {
	Catalog   CatalogService
	Scheduler SchedulerService
	Ticket    TicketService
	Booking   BookingService
	Customer  CustomerService
}

func NewService(repo *repository.Repository, uow repository.UnitOfWork, relay RelayKicker, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Catalog:   NewCatalogService(repo, uow, config, log),
		Scheduler: NewSchedulerService(repo, uow, relay, log),
		Ticket:    NewTicketService(repo, uow, relay, config, log),
		Booking:   NewBookingService(repo, uow, relay, log),
		Customer:  NewCustomerService(repo, uow, relay, log),
	}
}

// priceForCategory resolves the configured price for a row category.
// Seats keep this price forever once created.
func priceForCategory(category entity.PriceCategory, pricing utils.PricingConfig) float64 {
	switch category {
	case entity.PriceCategoryPremium:
		return pricing.Premium
	case entity.PriceCategoryLuxury:
		return pricing.Luxury
	default:
		return pricing.Standard
	}
}
