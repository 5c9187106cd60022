package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ncaa-baseball/internal/config"
	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/internal/transform"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// TeamReport is a school's batting and pitching tables for one season
type TeamReport struct {
	SchoolID int64                   `json:"school_id"`
	School   string                  `json:"school"`
	Season   int                     `json:"season"`
	Division string                  `json:"division"`
	Batting  *transform.DisplayTable `json:"batting"`
	Pitching *transform.DisplayTable `json:"pitching"`
}

// TeamService builds team season reports
type TeamService struct {
	resolver    repository.IdentityResolver
	source      repository.StatsSource
	transformer *transform.Transformer
	seasons     config.SeasonConfig
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewTeamService creates a new team service. source may be the repository
// itself or a cache in front of it.
func NewTeamService(resolver repository.IdentityResolver, source repository.StatsSource, transformer *transform.Transformer, seasons config.SeasonConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *TeamService {
	return &TeamService{
		resolver:    resolver,
		source:      source,
		transformer: transformer,
		seasons:     seasons,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// Seasons returns the selectable season range
func (s *TeamService) Seasons() config.SeasonConfig {
	return s.seasons
}

// GetTeamStats returns the batting table sorted by wRC and the pitching
// table sorted by FIP for the school's season.
func (s *TeamService) GetTeamStats(ctx context.Context, schoolName string, season int) (*TeamReport, error) {
	start := time.Now()

	schoolName = strings.TrimSpace(schoolName)
	if schoolName == "" {
		return nil, &models.ValidationError{Field: "school", Message: "school name is required"}
	}
	if !s.seasons.Contains(season) {
		return nil, &models.ValidationError{
			Field:   "year",
			Value:   fmt.Sprint(season),
			Message: fmt.Sprintf("year must be between %d and %d", s.seasons.First, s.seasons.Last),
		}
	}

	school, err := s.resolver.ResolveSchool(ctx, schoolName)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &models.ValidationError{Field: "school", Value: schoolName, Message: "Invalid School Name"}
		}
		return nil, fmt.Errorf("failed to resolve school: %w", err)
	}

	log := s.logger.WithFields(logging.Fields{
		"school_id": school.ID,
		"school":    school.Name,
		"season":    season,
	})

	batting, err := s.table(ctx, school.ID, season, models.Batting, TeamBattingSpec(), TeamBattingSortKey, true)
	if err != nil {
		log.Error(ctx, "[TEAM_STATS_ERROR] Failed to build batting table", logging.Fields{}, err)
		return nil, err
	}

	pitching, err := s.table(ctx, school.ID, season, models.Pitching, TeamPitchingSpec(), TeamPitchingSortKey, false)
	if err != nil {
		log.Error(ctx, "[TEAM_STATS_ERROR] Failed to build pitching table", logging.Fields{}, err)
		return nil, err
	}

	log.Info(ctx, "[TEAM_STATS] Team report built", logging.Fields{
		"batting_rows":  batting.Len(),
		"pitching_rows": pitching.Len(),
		"duration_ms":   time.Since(start).Milliseconds(),
	})

	return &TeamReport{
		SchoolID: school.ID,
		School:   school.Name,
		Season:   season,
		Division: school.DivisionLabel(),
		Batting:  batting,
		Pitching: pitching,
	}, nil
}

func (s *TeamService) table(ctx context.Context, schoolID int64, season int, kind models.StatKind, spec transform.ColumnSpec, sortKey string, descending bool) (*transform.DisplayTable, error) {
	rows, err := s.source.FetchTeamStats(ctx, schoolID, season, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s stats: %w", kind, err)
	}

	table, err := s.transformer.Transform(ctx, rows, spec, sortKey, descending)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s table: %w", kind, err)
	}
	return table, nil
}
