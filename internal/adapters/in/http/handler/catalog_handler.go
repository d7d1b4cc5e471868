// internal/adapters/in/http/handler/catalog_handler.go
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"b7pizza/internal/application/catalog"
	productdom "b7pizza/internal/domain/product"
)

// CatalogHandler serves the shared product catalog.
type CatalogHandler struct {
	loader *catalog.Loader
	log    *zap.Logger
}

func NewCatalogHandler(loader *catalog.Loader, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{loader: loader, log: log.Named("catalog_handler")}
}

type catalogResponse struct {
	Products []productdom.Product `json:"products"`
}

// List handles GET /api/catalog. The first call loads from the backend.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{Products: h.loader.Cache().Products()})
}

// Get handles GET /api/catalog/{id}.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeErr(w, http.StatusBadRequest, "id is required")
		return
	}
	if !h.ensureLoaded(w, r) {
		return
	}
	p, ok := h.loader.Cache().FindByID(id)
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	if h.loader == nil {
		writeErr(w, http.StatusInternalServerError, "catalog is not configured")
		return false
	}
	if err := h.loader.EnsureLoaded(r.Context()); err != nil {
		h.log.Warn("catalog unavailable", zap.Error(err))
		writeErr(w, http.StatusBadGateway, "catalog_unavailable")
		return false
	}
	return true
}
