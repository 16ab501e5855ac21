package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
	"github.com/cercalo-ai/cercalo-engine/pkg/query"
	"github.com/cercalo-ai/cercalo-engine/pkg/schema"
)

// QueryRequest is the POST /api/query body.
type QueryRequest struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	UserID   string `json:"user_id"`
}

// QueryResponse is the caller-facing result shape. Failures come back as
// success=false with an error message; an exception never crosses this
// boundary.
type QueryResponse struct {
	Success         bool         `json:"success"`
	Results         []models.Row `json:"results"`
	Count           int          `json:"count"`
	FilterOrPattern string       `json:"filter_or_pattern,omitempty"`
	QueryRef        string       `json:"query_ref"`
	Error           string       `json:"error,omitempty"`
}

// FieldInfo describes one field in the inspector response.
type FieldInfo struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Label     string `json:"label"`
	Queryable bool   `json:"queryable"`
}

// QueryHandler exposes the query engine and the catalog read endpoints.
type QueryHandler struct {
	orchestrator *query.Orchestrator
	catalog      *schema.Catalog
	logger       *zap.Logger
}

// NewQueryHandler creates a query handler.
func NewQueryHandler(orchestrator *query.Orchestrator, catalog *schema.Catalog, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		orchestrator: orchestrator,
		catalog:      catalog,
		logger:       logger,
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/query", h.Query)
	mux.HandleFunc("/api/entities", h.Entities)
	mux.HandleFunc("/api/entities/fields", h.Fields)
}

// Query handles POST /api/query.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}

	exec := h.orchestrator.Run(r.Context(), req.UserID, req.Text, req.Category)

	resp := QueryResponse{
		Success:         exec.Status == models.StatusSuccess,
		Results:         exec.Results,
		Count:           exec.ResultCount,
		FilterOrPattern: exec.FilterOrPattern,
		QueryRef:        exec.ID.String(),
	}
	if resp.Results == nil {
		resp.Results = []models.Row{}
	}
	if exec.Status == models.StatusError {
		resp.Error = userFacingError(exec.ErrorKind, exec.ErrorDetail)
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// Entities handles GET /api/entities: the list of entities and the
// categories that resolve to them.
func (h *QueryHandler) Entities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	entities := h.catalog.Entities()
	out := make([]map[string]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, map[string]string{
			"name":  e.Name,
			"label": e.Label,
		})
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"entities":   out,
		"categories": h.catalog.Categories(),
	}); err != nil {
		h.logger.Error("Failed to encode entities response", zap.Error(err))
	}
}

// Fields handles GET /api/entities/fields?entity=NAME: the field
// inspector, split into queryable and derived (non-queryable) fields.
func (h *QueryHandler) Fields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	name := r.URL.Query().Get("entity")
	if name == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_entity", "entity query parameter is required")
		return
	}

	resolved, err := h.catalog.Resolve(name)
	if err != nil {
		_ = ErrorResponse(w, http.StatusNotFound, "unknown_entity", err.Error())
		return
	}
	desc, err := h.catalog.Describe(resolved)
	if err != nil {
		_ = ErrorResponse(w, http.StatusNotFound, "unknown_entity", err.Error())
		return
	}

	var queryable, derived []FieldInfo
	for _, f := range desc.Fields {
		info := FieldInfo{
			Name:      f.Name,
			Type:      string(f.Type),
			Label:     f.Label,
			Queryable: f.Queryable,
		}
		if f.Queryable {
			queryable = append(queryable, info)
		} else {
			derived = append(derived, info)
		}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"entity":    desc.Name,
		"label":     desc.Label,
		"queryable": queryable,
		"derived":   derived,
	}); err != nil {
		h.logger.Error("Failed to encode fields response", zap.Error(err))
	}
}

// userFacingError maps an error kind to a stable caller-facing message.
// Raw details stay in the execution record; the API shows the class of
// failure plus a short detail.
func userFacingError(kind models.ErrorKind, detail string) string {
	switch kind {
	case models.ErrorKindSchemaMismatch:
		return "query could not be resolved against current data model"
	case models.ErrorKindRateLimited:
		return "too many requests, please wait a moment and try again"
	case models.ErrorKindTranslationUnavailable:
		return "translation service is unavailable"
	case models.ErrorKindUnparseableFilter:
		return "could not understand the query, try rephrasing it"
	default:
		return detail
	}
}
