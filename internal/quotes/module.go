// Package quotes provides the quote submission and settlement module.
package quotes

import (
	apphttp "kazi_backend/internal/http"
	"kazi_backend/internal/quotes/handler"
	"kazi_backend/internal/quotes/service"
	"kazi_backend/platform/validator"
)

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(svc *service.Service, lifecycle handler.Lifecycle, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(lifecycle, svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterJobRoutes(ctx.Protected.Group("/jobs/:id/quotes"), ctx.Limit())
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotes"), ctx.Limit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
