package handlers

import (
	"net/http"

	"github.com/zatekoja/clinicaltriage/internal/application/services"
)

// CatalogHandler serves the screening question catalog
type CatalogHandler struct {
	catalogService *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories handles GET /categorias
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalogService.Categories())
}

// ListQuestions handles GET /preguntas/{categoria}; unknown categories get []
func (h *CatalogHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalogService.Questions(r.PathValue("categoria")))
}
