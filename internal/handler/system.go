package handler

import (
	"net/http"

	"github.com/sproutapp/sprout/internal/openapi"
	"github.com/sproutapp/sprout/internal/store"
)

// SystemHandler serves operational endpoints: health and the OpenAPI
// document.
type SystemHandler struct {
	store   *store.Store
	version string
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(st *store.Store, version string) *SystemHandler {
	return &SystemHandler{store: st, version: version}
}

// Health handles GET /health. Reports 200 when the process and its
// storage are reachable, 503 when the store ping fails.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	storageCheck := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		storageCheck = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":  status,
		"version": h.version,
		"checks": map[string]string{
			"storage": storageCheck,
		},
	})
}

// OpenAPI handles GET /openapi.json. The document describes the fixed
// HTTP surface; the tool catalogue is discoverable over MCP itself.
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	doc := openapi.GenerateSpec(scheme + "://" + r.Host)
	writeJSON(w, http.StatusOK, doc)
}
