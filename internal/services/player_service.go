package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/internal/transform"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// PlayerReport is a player's career tables, one row per season. Pitching
// is nil for players who never pitched.
type PlayerReport struct {
	PlayerID int64                   `json:"player_id"`
	Player   string                  `json:"player"`
	School   string                  `json:"school"`
	Batting  *transform.DisplayTable `json:"batting"`
	Pitching *transform.DisplayTable `json:"pitching,omitempty"`
}

// PlayerService builds player career reports
type PlayerService struct {
	resolver    repository.IdentityResolver
	source      repository.StatsSource
	transformer *transform.Transformer
	schools     *SchoolEnricher
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewPlayerService creates a new player service
func NewPlayerService(resolver repository.IdentityResolver, source repository.StatsSource, transformer *transform.Transformer, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PlayerService {
	return &PlayerService{
		resolver:    resolver,
		source:      source,
		transformer: transformer,
		schools:     NewSchoolEnricher(resolver),
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// GetPlayerCareer returns the player's seasons in order with the school and
// division of each season.
func (s *PlayerService) GetPlayerCareer(ctx context.Context, playerName, schoolName string) (*PlayerReport, error) {
	start := time.Now()

	playerName = strings.TrimSpace(playerName)
	schoolName = strings.TrimSpace(schoolName)
	if playerName == "" {
		return nil, &models.ValidationError{Field: "name", Message: "player name is required"}
	}
	if schoolName == "" {
		return nil, &models.ValidationError{Field: "school", Message: "school name is required"}
	}

	player, err := s.resolver.ResolvePlayer(ctx, playerName, schoolName)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &models.ValidationError{Field: "name", Value: playerName, Message: "Invalid Player Name"}
		}
		return nil, fmt.Errorf("failed to resolve player: %w", err)
	}

	log := s.logger.WithFields(logging.Fields{
		"player_id": player.ID,
		"player":    player.Name,
	})

	battingRows, err := s.source.FetchPlayerCareerStats(ctx, player.ID, models.Batting)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batting stats: %w", err)
	}
	batting, err := s.transformer.Transform(ctx, battingRows, PlayerBattingSpec(s.schools), CareerSortKey, false)
	if err != nil {
		log.Error(ctx, "[PLAYER_STATS_ERROR] Failed to build batting table", logging.Fields{}, err)
		return nil, fmt.Errorf("failed to build batting table: %w", err)
	}

	pitchingRows, err := s.source.FetchPlayerCareerStats(ctx, player.ID, models.Pitching)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pitching stats: %w", err)
	}
	var pitching *transform.DisplayTable
	if len(pitchingRows) > 0 {
		pitching, err = s.transformer.Transform(ctx, pitchingRows, PlayerPitchingSpec(s.schools), CareerSortKey, false)
		if err != nil {
			log.Error(ctx, "[PLAYER_STATS_ERROR] Failed to build pitching table", logging.Fields{}, err)
			return nil, fmt.Errorf("failed to build pitching table: %w", err)
		}
	}

	if school, err := s.resolver.ResolveSchoolByID(ctx, player.SchoolID); err == nil {
		schoolName = school.Name
	}

	log.Info(ctx, "[PLAYER_STATS] Player report built", logging.Fields{
		"batting_seasons":  batting.Len(),
		"pitching_seasons": len(pitchingRows),
		"unresolved":       batting.Unresolved,
		"duration_ms":      time.Since(start).Milliseconds(),
	})

	return &PlayerReport{
		PlayerID: player.ID,
		Player:   player.Name,
		School:   schoolName,
		Batting:  batting,
		Pitching: pitching,
	}, nil
}
