package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sundar-blr76/report-smith-sub001/pkg/apperrors"
	"github.com/sundar-blr76/report-smith-sub001/pkg/logging"
	"github.com/sundar-blr76/report-smith-sub001/pkg/models"
)

// Analyzer runs one analysis request end to end. Implemented by
// services.Orchestrator; an interface here keeps handler tests free of
// live collaborators.
type Analyzer interface {
	Analyze(ctx context.Context, query string, sc *models.SchemaContext) (*models.QueryPlan, error)
}

// AnalyzeRequest is the POST /api/analyze body. SchemaContext is
// optional: when omitted, the server's configured schema is used.
type AnalyzeRequest struct {
	Query         string                `json:"query"`
	SchemaContext *models.SchemaContext `json:"schema_context,omitempty"`
}

// AnalyzeHandler exposes the query analysis pipeline over HTTP.
type AnalyzeHandler struct {
	analyzer Analyzer
	schema   *models.SchemaContext
	logger   *zap.Logger
}

// NewAnalyzeHandler creates the handler. The schema context may be nil
// when every request is expected to carry its own.
func NewAnalyzeHandler(analyzer Analyzer, schema *models.SchemaContext, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, schema: schema, logger: logger}
}

// RegisterRoutes registers the analyze handler's routes on the given mux.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/analyze", h.Analyze)
}

// Analyze handles POST /api/analyze requests.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Query == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	schema := req.SchemaContext
	if schema == nil {
		schema = h.schema
	}
	if schema == nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request",
			"no schema context: supply one in the request or configure the server with a schema")
		return
	}

	plan, err := h.analyzer.Analyze(r.Context(), req.Query, schema)
	if err != nil {
		h.writeAnalysisError(w, req.Query, err)
		return
	}

	// The full iteration history is an audit artifact; only return it when
	// asked, the accepted snapshot under plan.Analysis covers normal use.
	if r.URL.Query().Get("verbose") != "1" && plan.History != nil {
		trimmed := *plan
		trimmed.History = nil
		plan = &trimmed
	}

	if err := WriteJSON(w, http.StatusOK, plan); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

// writeAnalysisError maps the analysis error taxonomy onto HTTP codes.
// Resolution failures are the caller's to fix (unprocessable), a broken
// schema catalog is a bad request, and anything unrecognized is internal.
func (h *AnalyzeHandler) writeAnalysisError(w http.ResponseWriter, query string, err error) {
	h.logger.Warn("analysis failed",
		zap.String("query", logging.SanitizeQuery(query)),
		zap.Error(err))

	switch {
	case errors.Is(err, apperrors.ErrMalformedSchema):
		_ = ErrorResponse(w, http.StatusBadRequest, "malformed_schema", err.Error())
	case errors.Is(err, apperrors.ErrNoEntitiesResolved):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "no_entities_resolved", err.Error())
	case errors.Is(err, apperrors.ErrDisconnectedSchema):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "disconnected_schema", err.Error())
	case errors.Is(err, apperrors.ErrPlanAssembly):
		_ = ErrorResponse(w, http.StatusUnprocessableEntity, "plan_assembly_failed", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		_ = ErrorResponse(w, http.StatusRequestTimeout, "request_cancelled", err.Error())
	default:
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "analysis failed")
	}
}
