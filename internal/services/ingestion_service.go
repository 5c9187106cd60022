package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// Export layout read by the ingester
const (
	SchoolsFile = "schools.json"
	PlayersFile = "players.json"
	StatsGlob   = "stats/*.jsonl"
)

// maxLineSize bounds one stat line; a full batting row is well under 64KB
const maxLineSize = 1 << 20

// IngestionService loads precomputed season exports into the store
type IngestionService struct {
	repo    repository.StatsRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	SchoolsLoaded     int
	PlayersLoaded     int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.StatsRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// schoolRecord is one entry of schools.json
type schoolRecord struct {
	ID       int64  `json:"school_id"`
	Name     string `json:"name"`
	Division int    `json:"division"`
}

// playerRecord is one entry of players.json
type playerRecord struct {
	ID       int64  `json:"player_id"`
	Name     string `json:"name"`
	SchoolID int64  `json:"school_id"`
}

// statRecord is one line of a stats/*.jsonl file
type statRecord struct {
	SchoolID int64             `json:"school_id"`
	Season   int               `json:"season"`
	Kind     string            `json:"kind"`
	PlayerID int64             `json:"player_id"`
	Stats    models.RawStatRow `json:"stats"`
}

// IngestDirectory loads the school directory, the players, and every stat
// file of an export directory. The directory files are optional when the
// store already holds them; at least one stat file is required.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()
	if batchSize < 1 {
		batchSize = 1
	}

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, StatsGlob))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no stat files found in %s", filepath.Join(dataDir, filepath.Dir(StatsGlob)))
	}
	sort.Strings(files)
	result.TotalFiles = len(files)

	schools, err := s.loadSchools(ctx, filepath.Join(dataDir, SchoolsFile))
	if err != nil {
		return nil, err
	}
	result.SchoolsLoaded = schools

	players, err := s.loadPlayers(ctx, filepath.Join(dataDir, PlayersFile))
	if err != nil {
		return nil, err
	}
	result.PlayersLoaded = players

	s.logger.Info(ctx, "[INGEST_FILES] Found stat files", logging.Fields{
		"file_count": len(files),
		"schools":    schools,
		"players":    players,
		"stage":      "FILE_DISCOVERY",
	})

	for _, filePath := range files {
		fileResult, err := s.ingestFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// loadSchools upserts schools.json; a missing file loads nothing
func (s *IngestionService) loadSchools(ctx context.Context, path string) (int, error) {
	var records []schoolRecord
	if err := readJSONFile(path, &records); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	for i, rec := range records {
		if rec.ID <= 0 || strings.TrimSpace(rec.Name) == "" {
			return 0, fmt.Errorf("%s: entry %d: school_id and name are required", SchoolsFile, i)
		}
		school := &models.School{ID: rec.ID, Name: strings.TrimSpace(rec.Name), Division: rec.Division}
		if err := s.repo.UpsertSchool(ctx, school); err != nil {
			return 0, fmt.Errorf("failed to store school %d: %w", rec.ID, err)
		}
	}
	return len(records), nil
}

// loadPlayers upserts players.json; a missing file loads nothing
func (s *IngestionService) loadPlayers(ctx context.Context, path string) (int, error) {
	var records []playerRecord
	if err := readJSONFile(path, &records); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	for i, rec := range records {
		if rec.ID <= 0 || rec.SchoolID <= 0 || strings.TrimSpace(rec.Name) == "" {
			return 0, fmt.Errorf("%s: entry %d: player_id, name and school_id are required", PlayersFile, i)
		}
		player := &models.Player{ID: rec.ID, Name: strings.TrimSpace(rec.Name), SchoolID: rec.SchoolID}
		if err := s.repo.UpsertPlayer(ctx, player); err != nil {
			return 0, fmt.Errorf("failed to store player %d: %w", rec.ID, err)
		}
	}
	return len(records), nil
}

func readJSONFile(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// ingestFile ingests a single stat file
func (s *IngestionService) ingestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := &FileIngestionResult{}
	batch := make([]*models.StatLine, 0, batchSize)

	flush := func() error {
		if err := s.repo.InsertStatLinesBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		s.metrics.IngestionRecordsTotal.Add(float64(len(batch)))
		result.SuccessfulRecords += len(batch)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		result.TotalRecords++

		line, err := parseStatLine(text)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			s.logger.Warn(ctx, "[INGEST_LINE_SKIPPED] Unparsable stat line", logging.Fields{
				"file_path": filePath,
				"line":      lineNo,
				"error":     err.Error(),
			})
			continue
		}

		batch = append(batch, line)

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// parseStatLine decodes and validates one stat line
func parseStatLine(text string) (*models.StatLine, error) {
	var rec statRecord
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}

	kind, err := models.ParseStatKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	if rec.SchoolID <= 0 {
		return nil, &models.ValidationError{Field: "school_id", Message: "school_id is required"}
	}
	if rec.Season <= 0 {
		return nil, &models.ValidationError{Field: "season", Message: "season is required"}
	}
	if rec.PlayerID <= 0 {
		return nil, &models.ValidationError{Field: "player_id", Message: "player_id is required"}
	}
	if len(rec.Stats) == 0 {
		return nil, &models.ValidationError{Field: "stats", Message: "stats are required"}
	}

	return &models.StatLine{
		SchoolID: rec.SchoolID,
		Season:   rec.Season,
		Kind:     kind,
		PlayerID: rec.PlayerID,
		Stats:    rec.Stats,
	}, nil
}
