package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/pkg/database"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// StatsSource fetches precomputed season statistics. Rows come back in
// stored order; presentation order is up to the caller.
type StatsSource interface {
	FetchTeamStats(ctx context.Context, schoolID int64, season int, kind models.StatKind) ([]models.RawStatRow, error)
	FetchPlayerCareerStats(ctx context.Context, playerID int64, kind models.StatKind) ([]models.RawStatRow, error)
}

// IdentityResolver maps user-facing names and ids to directory entries.
// A miss is reported as *NotFoundError.
type IdentityResolver interface {
	ResolveSchool(ctx context.Context, name string) (*models.School, error)
	ResolveSchoolByID(ctx context.Context, schoolID int64) (*models.School, error)
	ResolvePlayer(ctx context.Context, name, schoolName string) (*models.Player, error)
	ListSchools(ctx context.Context) ([]*models.School, error)
}

// StatsRepository provides data access for schools, players and stat lines
type StatsRepository interface {
	StatsSource
	IdentityResolver

	// Ingestion operations
	UpsertSchool(ctx context.Context, school *models.School) error
	UpsertPlayer(ctx context.Context, player *models.Player) error
	InsertStatLinesBatch(ctx context.Context, lines []*models.StatLine) error

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// statsRepository implements StatsRepository
type statsRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) StatsRepository {
	return &statsRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// NormalizeName folds a name for lookup: transliterated to ASCII, lower
// case, inner whitespace collapsed ("  José  Pérez " -> "jose perez").
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(name))), " ")
}

type statLineRecord struct {
	ID       int64         `db:"id"`
	SchoolID int64         `db:"school_id"`
	Season   int           `db:"season"`
	Kind     string        `db:"kind"`
	PlayerID int64         `db:"player_id"`
	Stats    []byte        `db:"stats"`
}

func (r *statLineRecord) toStatLine() (*models.StatLine, error) {
	line := &models.StatLine{
		ID:       r.ID,
		SchoolID: r.SchoolID,
		Season:   r.Season,
		Kind:     models.StatKind(r.Kind),
		PlayerID: r.PlayerID,
	}
	if err := json.Unmarshal(r.Stats, &line.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats of line %d: %w", r.ID, err)
	}
	return line, nil
}

// FetchTeamStats returns one row per player line of a school-season
func (r *statsRepository) FetchTeamStats(ctx context.Context, schoolID int64, season int, kind models.StatKind) ([]models.RawStatRow, error) {
	query := `
		SELECT id, school_id, season, kind, player_id, stats
		FROM stat_lines
		WHERE school_id = ? AND season = ? AND kind = ?
		ORDER BY id
	`

	var records []statLineRecord
	if err := r.db.SelectContext(ctx, "fetch_team_stats", &records, query, schoolID, season, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to fetch team stats: %w", err)
	}

	return r.toRows(ctx, records)
}

// FetchPlayerCareerStats returns one row per season the player has lines for
func (r *statsRepository) FetchPlayerCareerStats(ctx context.Context, playerID int64, kind models.StatKind) ([]models.RawStatRow, error) {
	query := `
		SELECT id, school_id, season, kind, player_id, stats
		FROM stat_lines
		WHERE player_id = ? AND kind = ?
		ORDER BY season, id
	`

	var records []statLineRecord
	if err := r.db.SelectContext(ctx, "fetch_player_stats", &records, query, playerID, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to fetch player stats: %w", err)
	}

	return r.toRows(ctx, records)
}

func (r *statsRepository) toRows(ctx context.Context, records []statLineRecord) ([]models.RawStatRow, error) {
	rows := make([]models.RawStatRow, 0, len(records))
	for i := range records {
		line, err := records[i].toStatLine()
		if err != nil {
			r.metrics.RecordDBError("decode_error")
			r.logger.Error(ctx, "[REPO_DECODE_ERROR] Stored stat line is not valid JSON", logging.Fields{
				"line_id": records[i].ID,
			}, err)
			return nil, err
		}
		rows = append(rows, line.Row())
	}
	return rows, nil
}

// ResolveSchool finds a school by name, ignoring case and accents
func (r *statsRepository) ResolveSchool(ctx context.Context, name string) (*models.School, error) {
	query := `
		SELECT school_id, name, normalized_name, division
		FROM schools
		WHERE normalized_name = ?
		ORDER BY school_id
		LIMIT 1
	`

	var school models.School
	err := r.db.GetContext(ctx, "resolve_school", &school, query, NormalizeName(name))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "school", ID: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve school: %w", err)
	}

	return &school, nil
}

// ResolveSchoolByID returns a school by its id
func (r *statsRepository) ResolveSchoolByID(ctx context.Context, schoolID int64) (*models.School, error) {
	query := `
		SELECT school_id, name, normalized_name, division
		FROM schools
		WHERE school_id = ?
	`

	var school models.School
	err := r.db.GetContext(ctx, "resolve_school_by_id", &school, query, schoolID)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "school", ID: strconv.FormatInt(schoolID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve school %d: %w", schoolID, err)
	}

	return &school, nil
}

// ResolvePlayer finds a player by name on a school's roster
func (r *statsRepository) ResolvePlayer(ctx context.Context, name, schoolName string) (*models.Player, error) {
	query := `
		SELECT p.player_id, p.name, p.normalized_name, p.school_id
		FROM players p
		JOIN schools s ON s.school_id = p.school_id
		WHERE p.normalized_name = ? AND s.normalized_name = ?
		ORDER BY p.player_id
		LIMIT 1
	`

	var player models.Player
	err := r.db.GetContext(ctx, "resolve_player", &player, query, NormalizeName(name), NormalizeName(schoolName))
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "player", ID: fmt.Sprintf("%s (%s)", name, schoolName)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player: %w", err)
	}

	return &player, nil
}

// ListSchools returns the school directory ordered by name
func (r *statsRepository) ListSchools(ctx context.Context) ([]*models.School, error) {
	query := `
		SELECT school_id, name, normalized_name, division
		FROM schools
		ORDER BY name, school_id
	`

	var schools []*models.School
	if err := r.db.SelectContext(ctx, "list_schools", &schools, query); err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}

	return schools, nil
}

// UpsertSchool creates or renames a school
func (r *statsRepository) UpsertSchool(ctx context.Context, school *models.School) error {
	query := `
		INSERT INTO schools (school_id, name, normalized_name, division)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (school_id) DO UPDATE SET
			name = EXCLUDED.name,
			normalized_name = EXCLUDED.normalized_name,
			division = EXCLUDED.division
	`

	school.NormalizedName = NormalizeName(school.Name)
	_, err := r.db.ExecContext(ctx, "upsert_school", query,
		school.ID,
		school.Name,
		school.NormalizedName,
		school.Division,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert school: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_SCHOOL] School stored", logging.Fields{
		"school_id": school.ID,
		"name":      school.Name,
	})

	return nil
}

// UpsertPlayer creates or updates a player
func (r *statsRepository) UpsertPlayer(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (player_id, name, normalized_name, school_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			normalized_name = EXCLUDED.normalized_name,
			school_id = EXCLUDED.school_id
	`

	player.NormalizedName = NormalizeName(player.Name)
	_, err := r.db.ExecContext(ctx, "upsert_player", query,
		player.ID,
		player.Name,
		player.NormalizedName,
		player.SchoolID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}

	return nil
}

// InsertStatLinesBatch stores lines in a single transaction. A line that
// already exists for the same school, season, kind and player is replaced.
func (r *statsRepository) InsertStatLinesBatch(ctx context.Context, lines []*models.StatLine) error {
	if len(lines) == 0 {
		return nil
	}

	for _, line := range lines {
		if line.PlayerID <= 0 {
			return &models.ValidationError{
				Field:   "player_id",
				Value:   fmt.Sprint(line.PlayerID),
				Message: fmt.Sprintf("stat line for school %d season %d has no player", line.SchoolID, line.Season),
			}
		}
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(lines)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(lines),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(`
		INSERT INTO stat_lines (school_id, season, kind, player_id, stats)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (school_id, season, kind, player_id) DO UPDATE SET
			stats = EXCLUDED.stats
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, line := range lines {
		stats, err := json.Marshal(line.Stats)
		if err != nil {
			return fmt.Errorf("failed to encode stats for school %d season %d: %w", line.SchoolID, line.Season, err)
		}

		if _, err := stmt.ExecContext(ctx,
			line.SchoolID,
			line.Season,
			string(line.Kind),
			line.PlayerID,
			string(stats),
		); err != nil {
			r.metrics.RecordDBError("batch_insert_error")
			return fmt.Errorf("failed to insert stat line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck verifies database connectivity
func (r *statsRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsTransient returns false as a missing row stays missing
func (e *NotFoundError) IsTransient() bool {
	return false
}
