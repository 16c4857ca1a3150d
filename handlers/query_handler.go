package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/models"
	"github.com/upb/hybrid-rag/services"
	"github.com/upb/hybrid-rag/utils"
)

// MaxQueryLength bounds the accepted question size in characters.
// Keep in sync with the max tag on QueryRequest.Query.
const MaxQueryLength = 4000

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Query string `json:"query" validate:"required,notblank,max=4000"`
}

// QueryService runs one hybrid query
type QueryService interface {
	RunQuery(ctx context.Context, queryText string) *models.QueryOutcome
}

// QueryLogReader reads the query audit trail
type QueryLogReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error)
	ListRecent(ctx context.Context, limit int) ([]*models.QueryLog, error)
}

// QueryHandler handles hybrid query HTTP requests
type QueryHandler struct {
	service QueryService
	logs    QueryLogReader // nil when the audit trail is disabled
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(service QueryService, logs QueryLogReader, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logs:    logs,
		logger:  logger,
	}
}

// HandleQuery handles POST /api/v1/query.
// Knowledge base and model failures degrade the answer instead of failing the request.
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	outcome := h.service.RunQuery(ctx, req.Query)

	h.logger.Debug("query answered",
		zap.String("request_id", requestID),
		zap.String("query_id", outcome.QueryID.String()),
		zap.Bool("degraded", outcome.IsDegraded()))

	if err := utils.WriteOK(w, outcome); err != nil {
		h.logger.Error("failed to write query response", zap.Error(err))
	}
}

// HandleListQueries handles GET /api/v1/queries?limit=N
func (h *QueryHandler) HandleListQueries(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		HandleServiceError(w, services.ErrAuditDisabled, h.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = utils.WriteBadRequest(w, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	logs, err := h.logs.ListRecent(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, logs); err != nil {
		h.logger.Error("failed to write query log response", zap.Error(err))
	}
}

// HandleGetQuery handles GET /api/v1/queries/{id}
func (h *QueryHandler) HandleGetQuery(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		HandleServiceError(w, services.ErrAuditDisabled, h.logger)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "id must be a valid UUID", nil)
		return
	}

	log, err := h.logs.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, log); err != nil {
		h.logger.Error("failed to write query log response", zap.Error(err))
	}
}
