package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/seo"
)

// SEODescriptionRequest is the POST /api/seo/description body.
type SEODescriptionRequest struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// SEOMetaTagsRequest is the POST /api/seo/meta-tags body.
type SEOMetaTagsRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// SEOTranslateRequest is the POST /api/seo/translate body.
type SEOTranslateRequest struct {
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// SEOHandler exposes the SEO copy-generation service.
type SEOHandler struct {
	service *seo.Service
	logger  *zap.Logger
}

// NewSEOHandler creates an SEO handler.
func NewSEOHandler(service *seo.Service, logger *zap.Logger) *SEOHandler {
	return &SEOHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the SEO handler's routes on the given mux.
func (h *SEOHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/seo/description", h.Description)
	mux.HandleFunc("/api/seo/meta-tags", h.MetaTags)
	mux.HandleFunc("/api/seo/translate", h.Translate)
}

// Description handles POST /api/seo/description.
func (h *SEOHandler) Description(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req SEODescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}

	text, err := h.service.GenerateDescription(r.Context(), req.UserID, seo.ProductInfo{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"description": text}); err != nil {
		h.logger.Error("Failed to encode description response", zap.Error(err))
	}
}

// MetaTags handles POST /api/seo/meta-tags.
func (h *SEOHandler) MetaTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req SEOMetaTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_name", "name is required")
		return
	}

	tags, err := h.service.GenerateMetaTags(r.Context(), req.UserID, seo.ProductInfo{
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, tags); err != nil {
		h.logger.Error("Failed to encode meta tags response", zap.Error(err))
	}
}

// Translate handles POST /api/seo/translate.
func (h *SEOHandler) Translate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req SEOTranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_text", "text is required")
		return
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_target_language", "target_language is required")
		return
	}

	out, err := h.service.Translate(r.Context(), req.UserID, req.Text, req.TargetLanguage)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"translation": out}); err != nil {
		h.logger.Error("Failed to encode translation response", zap.Error(err))
	}
}

// writeServiceError maps a model-boundary failure to a transport status.
// Rate limits come back as 429 so callers can back off; everything else
// is an upstream failure.
func (h *SEOHandler) writeServiceError(w http.ResponseWriter, err error) {
	h.logger.Warn("SEO generation failed", zap.Error(err))

	if llm.GetErrorType(err) == llm.ErrorTypeRateLimit {
		_ = ErrorResponse(w, http.StatusTooManyRequests, "rate_limited",
			"too many requests, please wait a moment and try again")
		return
	}
	_ = ErrorResponse(w, http.StatusBadGateway, "generation_failed", "content generation is unavailable")
}
