package services

import (
	"github.com/zatekoja/clinicaltriage/internal/domain/entities"
)

// CatalogService exposes the screening questions to the intake form
type CatalogService struct {
	catalog entities.Catalog
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog entities.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// Categories returns the category names in catalog order
func (s *CatalogService) Categories() []string {
	return s.catalog.Categories()
}

// Questions returns a category's questions; unknown categories yield an empty list
func (s *CatalogService) Questions(category string) []entities.Question {
	return s.catalog.Questions(category)
}
