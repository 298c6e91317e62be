package handler

import (
	"context"
	"net/http"

	"kazi_backend/internal/domain"
	"kazi_backend/internal/orchestrator"
	"kazi_backend/internal/quotes/service"
	"kazi_backend/internal/quotes/transport"
	"kazi_backend/platform/httpkit"
	"kazi_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Lifecycle is the mutation surface for quotes.
type Lifecycle interface {
	SubmitQuote(ctx context.Context, p service.SubmitParams) (domain.Quote, error)
	AcceptQuote(ctx context.Context, jobID, quoteID, actingClientID uuid.UUID) (orchestrator.AcceptResult, error)
	RejectQuote(ctx context.Context, quoteID, actingClientID uuid.UUID) (domain.Quote, error)
}

// Reader lists the quotes a viewer may see.
type Reader interface {
	ListForJob(ctx context.Context, jobID, viewerID uuid.UUID) ([]domain.Quote, error)
}

// Handler handles HTTP requests for quotes
type Handler struct {
	lifecycle Lifecycle
	reader    Reader
	val       *validator.Validator
}

// New creates a new quotes handler
func New(lifecycle Lifecycle, reader Reader, val *validator.Validator) *Handler {
	return &Handler{lifecycle: lifecycle, reader: reader, val: val}
}

// RegisterJobRoutes registers the routes nested under /jobs/:id/quotes.
func (h *Handler) RegisterJobRoutes(rg *gin.RouterGroup, mutate gin.HandlerFunc) {
	rg.GET("", h.ListForJob)
	rg.POST("", mutate, httpkit.RequireRole(httpkit.RoleProvider), h.Submit)
	rg.POST("/:quoteId/accept", mutate, httpkit.RequireRole(httpkit.RoleClient), h.Accept)
}

// RegisterRoutes registers the routes under /quotes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mutate gin.HandlerFunc) {
	rg.POST("/:id/reject", mutate, httpkit.RequireRole(httpkit.RoleClient), h.Reject)
}

func (h *Handler) Submit(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	params := service.SubmitParams{
		JobID:       jobID,
		ProviderID:  identity.UserID(),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Message:     req.Message,
	}
	if req.ClientID != nil {
		params.ClientID = *req.ClientID
	}

	quote, err := h.lifecycle.SubmitQuote(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.ToQuoteResponse(quote))
}

func (h *Handler) ListForJob(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}

	quotes, err := h.reader.ListForJob(c.Request.Context(), jobID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToQuoteListResponse(quotes))
}

func (h *Handler) Accept(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	jobID, ok := parseID(c, "id")
	if !ok {
		return
	}
	quoteID, ok := parseID(c, "quoteId")
	if !ok {
		return
	}

	res, err := h.lifecycle.AcceptQuote(c.Request.Context(), jobID, quoteID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.AcceptQuoteResponse{
		Quote:     transport.ToQuoteResponse(res.Quote),
		JobID:     res.Job.ID,
		JobStatus: string(res.Job.Status),
		ChatID:    res.ChatID,
	}
	if res.Job.AssignedProviderID != nil {
		resp.AssignedProviderID = *res.Job.AssignedProviderID
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Reject(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	quoteID, ok := parseID(c, "id")
	if !ok {
		return
	}

	quote, err := h.lifecycle.RejectQuote(c.Request.Context(), quoteID, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+param, nil)
		return uuid.Nil, false
	}
	return id, true
}
