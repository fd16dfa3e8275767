package wire

import (
	"cinema-ops/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCustomer(r chi.Router, handler *adaptor.CustomerHandler) {
	r.Post("/api/customers", handler.Register)
	r.Get("/api/customers/{id}", handler.GetCustomerByID)
}
