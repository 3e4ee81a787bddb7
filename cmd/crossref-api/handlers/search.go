// Package handlers provides HTTP handlers for the cross-reference API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spherical-ai/spherical/libs/crossref-engine/cmd/crossref-api/middleware"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

// maxBodyBytes bounds request bodies; a full batch of maximum-length queries
// fits comfortably.
const maxBodyBytes = 1 << 20

// SearchHandler handles search, config and catalog stats requests.
type SearchHandler struct {
	logger  *observability.Logger
	service *api.Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(logger *observability.Logger, service *api.Service) *SearchHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &SearchHandler{
		logger:  logger,
		service: service,
	}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req client.SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.search(w, r, req.Query)
}

// SearchQuery handles GET /api/v1/search?q=.
func (h *SearchHandler) SearchQuery(w http.ResponseWriter, r *http.Request) {
	h.search(w, r, r.URL.Query().Get("q"))
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request, query string) {
	ctx := r.Context()
	resp, err := h.service.Search(ctx, middleware.OperatorFromContext(ctx), query)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// SearchBatch handles POST /api/v1/search/batch.
func (h *SearchHandler) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req client.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	resp, err := h.service.SearchBatch(ctx, middleware.OperatorFromContext(ctx), req.Queries)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetConfig handles GET /api/v1/config.
func (h *SearchHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Config())
}

// UpdateConfig handles PATCH /api/v1/config.
func (h *SearchHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req client.ConfigUpdate
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	cfg, err := h.service.Configure(ctx, middleware.OperatorFromContext(ctx), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

// Stats handles GET /api/v1/catalog/stats.
func (h *SearchHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.Stats())
}

func (h *SearchHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func (h *SearchHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case api.IsInvalidInput(err):
		h.writeError(w, http.StatusBadRequest, "invalid request", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "request timed out", err.Error())
	default:
		h.logger.WithContext(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func (h *SearchHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (h *SearchHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	h.writeJSON(w, status, client.ErrorResponse{
		Error:   message,
		Message: message,
		Detail:  detail,
	})
}
