package handler

import (
	"context"
	"net/http"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/orchestrator"
	"kazi_backend/internal/reviews/service"
	"kazi_backend/internal/reviews/transport"
	"kazi_backend/platform/httpkit"
	"kazi_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Submitter records reviews.
type Submitter interface {
	SubmitReview(ctx context.Context, p orchestrator.ReviewParams) (service.Result, error)
}

// Handler handles HTTP requests for reviews.
type Handler struct {
	submitter Submitter
	val       *validator.Validator
}

// New creates a new reviews handler.
func New(submitter Submitter, val *validator.Validator) *Handler {
	return &Handler{submitter: submitter, val: val}
}

// RegisterRoutes registers the review route on a /jobs/:id group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutate gin.HandlerFunc) {
	rg.POST("/review", mutate, httpkit.RequireRole(httpkit.RoleClient), h.Submit)
}

func (h *Handler) Submit(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid job id", nil)
		return
	}

	var req transport.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	params := orchestrator.ReviewParams{
		JobID:    jobID,
		ClientID: identity.UserID(),
		Ratings: domain.SubRatings{
			Quality:         req.QualityRating,
			Timeliness:      req.TimelinessRating,
			Professionalism: req.ProfessionalismRating,
		},
		Comment: req.Comment,
	}
	if req.ProviderID != nil {
		params.ProviderID = *req.ProviderID
	}

	res, err := h.submitter.SubmitReview(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.SubmitReviewResponse{
		Review:            transport.ToReviewResponse(res.Review),
		ProviderAggregate: transport.ToAggregateResponse(res.Aggregate),
	})
}
