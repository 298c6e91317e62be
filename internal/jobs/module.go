// Package jobs provides the job posting and lifecycle module.
package jobs

import (
	apphttp "kazi_backend/internal/http"
	"kazi_backend/internal/jobs/handler"
	"kazi_backend/internal/jobs/service"
	"kazi_backend/platform/validator"
)

// Module represents the jobs domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the jobs handler. Mutations go through lifecycle so that
// side effects fire after each commit.
func NewModule(svc *service.Service, lifecycle handler.Lifecycle, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(lifecycle, svc, val),
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "jobs"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	jobs := ctx.Protected.Group("/jobs")
	m.handler.RegisterRoutes(jobs, ctx.Limit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
