package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinema-ops/internal/data/entity"
	"cinema-ops/internal/data/repository"
	"cinema-ops/internal/dto/request"
	"cinema-ops/internal/dto/response"
	"cinema-ops/internal/event"
	"cinema-ops/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type CustomerService interface {
	Register(ctx context.Context, req *request.RegisterCustomerRequest) (*response.CustomerResponse, error)
	GetCustomerByID(ctx context.Context, customerID string) (*response.CustomerResponse, error)
}

type customerService struct {
	repo  *repository.Repository
	uow   repository.UnitOfWork
	relay RelayKicker
	log   *zap.Logger
}

func NewCustomerService(repo *repository.Repository, uow repository.UnitOfWork, relay RelayKicker, log *zap.Logger) CustomerService {
	return &customerService{
		repo:  repo,
		uow:   uow,
		relay: relay,
		log:   log.With(zap.String("service", "customer")),
	}
}

func (s *customerService) Register(ctx context.Context, req *request.RegisterCustomerRequest) (*response.CustomerResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register customer validation failed", zap.Any("errors", errs))
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	customer := &entity.Customer{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx *repository.Repository, after func(repository.AfterCommit)) error {
		if err := tx.Customer.Create(ctx, customer); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return &ValidationError{Fields: map[string]string{"email": "already registered"}}
			}
			return err
		}

		outboxEvent, err := event.NewOutboxEvent(event.TypeCustomerRegistered, event.CustomerRegistered{
			CustomerID: customer.ID,
			Name:       customer.Name,
			Email:      customer.Email,
		})
		if err != nil {
			return err
		}
		if err := tx.Outbox.Add(ctx, outboxEvent); err != nil {
			return err
		}

		after(func(ctx context.Context) { s.relay.Kick() })
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Customer registered",
		zap.String("customer_id", customer.ID.String()),
		zap.String("email", customer.Email),
	)

	resp := response.CustomerToResponse(customer)
	return &resp, nil
}

func (s *customerService) GetCustomerByID(ctx context.Context, customerID string) (*response.CustomerResponse, error) {
	id, err := uuid.Parse(customerID)
	if err != nil {
		return nil, parseErrorf("invalid customer ID format %s: %w", customerID, err)
	}

	customer, err := s.repo.Customer.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, &NotFoundError{Resource: "customer", ID: customerID}
	}

	resp := response.CustomerToResponse(customer)
	return &resp, nil
}
