// Package providers provides provider profiles and their public reviews.
package providers

import (
	apphttp "kazi_backend/internal/http"
	"kazi_backend/internal/providers/handler"
	"kazi_backend/internal/providers/service"
	"kazi_backend/platform/validator"
)

// Module represents the providers domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the providers module.
func NewModule(svc *service.Service, val *validator.Validator) *Module {
	return &Module{handler: handler.New(svc, val), service: svc}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "providers"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/providers"), ctx.Limit())
}

var _ apphttp.Module = (*Module)(nil)
