package services

import (
	"context"
	"fmt"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// SchoolService serves the school directory
type SchoolService struct {
	resolver repository.IdentityResolver
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewSchoolService creates a new school service
func NewSchoolService(resolver repository.IdentityResolver, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SchoolService {
	return &SchoolService{
		resolver: resolver,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// ListSchools returns every known school ordered by name
func (s *SchoolService) ListSchools(ctx context.Context) ([]*models.School, error) {
	schools, err := s.resolver.ListSchools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, nil
}
