package handler

import (
	"net/http"

	"kazi_backend/internal/providers/service"
	"kazi_backend/internal/providers/transport"
	"kazi_backend/platform/httpkit"
	"kazi_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for provider profiles.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new providers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the provider routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutate gin.HandlerFunc) {
	rg.POST("/me", mutate, httpkit.RequireRole(httpkit.RoleProvider), h.RegisterSelf)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/reviews", h.ListReviews)
}

// RegisterSelf creates the caller's profile, or returns the existing one.
func (h *Handler) RegisterSelf(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.RegisterProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	profile, created, err := h.svc.Register(c.Request.Context(), identity.UserID(), req.DisplayName, req.Email)
	if httpkit.HandleError(c, err) {
		return
	}

	if created {
		httpkit.Created(c, transport.ToProviderResponse(profile))
		return
	}
	httpkit.OK(c, transport.ToProviderResponse(profile))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseProviderID(c)
	if !ok {
		return
	}

	profile, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToProviderResponse(profile))
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := parseProviderID(c)
	if !ok {
		return
	}

	reviews, err := h.svc.ListReviews(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToReviewListResponse(reviews))
}

func parseProviderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid provider id", nil)
		return uuid.Nil, false
	}
	return id, true
}
