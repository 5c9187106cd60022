package services

import (
	"context"
	"fmt"
	"math"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/internal/transform"
)

var _ transform.Enricher = (*SchoolEnricher)(nil)

// SchoolEnricher turns a school id cell into the school's name and
// division label
type SchoolEnricher struct {
	resolver repository.IdentityResolver
}

// NewSchoolEnricher creates an enricher backed by resolver
func NewSchoolEnricher(resolver repository.IdentityResolver) *SchoolEnricher {
	return &SchoolEnricher{resolver: resolver}
}

// Columns returns the injected headers
func (e *SchoolEnricher) Columns() []string {
	return []string{"School", "Division"}
}

// Resolve looks up the school with the given id
func (e *SchoolEnricher) Resolve(ctx context.Context, value interface{}) ([]string, error) {
	id, ok := models.ToFloat(value)
	if !ok || id != math.Trunc(id) {
		return nil, fmt.Errorf("invalid school id %v", value)
	}

	school, err := e.resolver.ResolveSchoolByID(ctx, int64(id))
	if err != nil {
		return nil, err
	}
	return []string{school.Name, school.DivisionLabel()}, nil
}
