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

type CustomerHandler struct {
	service usecase.CustomerService
	log     *zap.Logger
}

func NewCustomerHandler(service usecase.CustomerService, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		log:     log.With(zap.String("handler", "customer")),
	}
}

// Register handles POST /api/customers
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	customer, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register customer")
		return
	}

	utils.ResponseCreated(w, "Customer registered successfully", customer)
}

// GetCustomerByID handles GET /api/customers/{id}
func (h *CustomerHandler) GetCustomerByID(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		utils.ResponseBadRequest(w, "Customer ID is required", nil)
		return
	}

	customer, err := h.service.GetCustomerByID(r.Context(), customerID)
	if err != nil {
		handleServiceError(w, h.log, err, "get customer by ID")
		return
	}

	utils.ResponseSuccess(w, "Customer retrieved successfully", customer)
}
