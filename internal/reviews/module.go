// Package reviews provides the post-completion review module.
package reviews

import (
	apphttp "kazi_backend/internal/http"
	"kazi_backend/internal/reviews/handler"
	"kazi_backend/platform/validator"
)

// Module represents the reviews domain module
type Module struct {
	handler *handler.Handler
}

// NewModule creates the reviews module.
func NewModule(submitter handler.Submitter, val *validator.Validator) *Module {
	return &Module{handler: handler.New(submitter, val)}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "reviews"
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/jobs/:id"), ctx.Limit())
}

var _ apphttp.Module = (*Module)(nil)
