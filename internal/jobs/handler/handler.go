package handler

import (
	"context"
	"net/http"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/jobs/transport"
	"kazi_backend/platform/httpkit"
	"kazi_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidJobID     = "invalid job id"
)

// Lifecycle is the mutation surface for jobs.
type Lifecycle interface {
	PostJob(ctx context.Context, p domain.NewJobParams) (domain.Job, error)
	StartJob(ctx context.Context, jobID, actingProviderID uuid.UUID) (domain.Job, error)
	MarkComplete(ctx context.Context, jobID, actingClientID uuid.UUID) (domain.Job, error)
	CancelJob(ctx context.Context, jobID, actingClientID uuid.UUID) (domain.Job, error)
	RaiseDispute(ctx context.Context, jobID, actingUserID uuid.UUID, reason string) (domain.Job, error)
	ReopenJob(ctx context.Context, jobID, actingClientID uuid.UUID) (domain.Job, error)
}

// Reader loads jobs.
type Reader interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Job, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Job, error)
}

// Handler handles HTTP requests for jobs.
type Handler struct {
	lifecycle Lifecycle
	reader    Reader
	val       *validator.Validator
}

// New creates a new jobs handler.
func New(lifecycle Lifecycle, reader Reader, val *validator.Validator) *Handler {
	return &Handler{lifecycle: lifecycle, reader: reader, val: val}
}

// RegisterRoutes registers the job routes. mutate wraps state-changing routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutate gin.HandlerFunc) {
	clientOnly := httpkit.RequireRole(httpkit.RoleClient)

	rg.GET("", h.ListMine)
	rg.GET("/:id", h.GetByID)
	rg.POST("", mutate, clientOnly, h.Create)
	rg.POST("/:id/start", mutate, httpkit.RequireRole(httpkit.RoleProvider), h.Start)
	rg.POST("/:id/complete", mutate, clientOnly, h.Complete)
	rg.POST("/:id/cancel", mutate, clientOnly, h.Cancel)
	rg.POST("/:id/reopen", mutate, clientOnly, h.Reopen)
	rg.POST("/:id/dispute", mutate, h.Dispute)
}

func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	job, err := h.lifecycle.PostJob(c.Request.Context(), domain.NewJobParams{
		ClientID:    identity.UserID(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		BudgetCents: req.BudgetCents,
		Currency:    req.Currency,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToJobResponse(job))
}

func (h *Handler) ListMine(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	jobs, err := h.reader.ListByClient(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToJobListResponse(jobs))
}

// GetByID returns a job to its participants, and to providers while it is
// still taking quotes.
func (h *Handler) GetByID(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	job, err := h.reader.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	visible := job.IsParticipant(identity.UserID()) ||
		(job.TakesQuotes() && identity.HasRole(httpkit.RoleProvider))
	if !visible {
		httpkit.HandleError(c, domain.ErrUnauthorized)
		return
	}

	httpkit.OK(c, transport.ToJobResponse(job))
}

func (h *Handler) Start(c *gin.Context) {
	h.transition(c, h.lifecycle.StartJob)
}

func (h *Handler) Complete(c *gin.Context) {
	h.transition(c, h.lifecycle.MarkComplete)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.lifecycle.CancelJob)
}

func (h *Handler) Reopen(c *gin.Context) {
	h.transition(c, h.lifecycle.ReopenJob)
}

func (h *Handler) Dispute(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	var req transport.DisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	job, err := h.lifecycle.RaiseDispute(c.Request.Context(), id, identity.UserID(), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToJobResponse(job))
}

type transitionFunc func(ctx context.Context, jobID, actingUserID uuid.UUID) (domain.Job, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseJobID(c)
	if !ok {
		return
	}

	job, err := fn(c.Request.Context(), id, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToJobResponse(job))
}

func parseJobID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidJobID, nil)
		return uuid.Nil, false
	}
	return id, true
}
