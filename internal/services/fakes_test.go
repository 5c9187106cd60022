package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/repository"
	"ncaa-baseball/internal/transform"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// fakeRepository is an in-memory StatsRepository keyed the way the SQL
// store is
type fakeRepository struct {
	schools  map[int64]*models.School
	players  []*models.Player
	team     map[string][]models.RawStatRow
	career   map[string][]models.RawStatRow
	fetchErr error
	lines    []*models.StatLine

	// fetches counts stat fetches of either kind
	fetches int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		schools: map[int64]*models.School{},
		team:    map[string][]models.RawStatRow{},
		career:  map[string][]models.RawStatRow{},
	}
}

func teamKey(schoolID int64, season int, kind models.StatKind) string {
	return fmt.Sprintf("%d/%d/%s", schoolID, season, kind)
}

func careerKey(playerID int64, kind models.StatKind) string {
	return fmt.Sprintf("%d/%s", playerID, kind)
}

func (f *fakeRepository) FetchTeamStats(_ context.Context, schoolID int64, season int, kind models.StatKind) ([]models.RawStatRow, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.team[teamKey(schoolID, season, kind)], nil
}

func (f *fakeRepository) FetchPlayerCareerStats(_ context.Context, playerID int64, kind models.StatKind) ([]models.RawStatRow, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.career[careerKey(playerID, kind)], nil
}

func (f *fakeRepository) ResolveSchool(_ context.Context, name string) (*models.School, error) {
	for _, s := range f.schools {
		if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "school", ID: name}
}

func (f *fakeRepository) ResolveSchoolByID(_ context.Context, id int64) (*models.School, error) {
	if s, ok := f.schools[id]; ok {
		return s, nil
	}
	return nil, &repository.NotFoundError{Resource: "school", ID: fmt.Sprint(id)}
}

func (f *fakeRepository) ResolvePlayer(ctx context.Context, name, schoolName string) (*models.Player, error) {
	school, err := f.ResolveSchool(ctx, schoolName)
	if err != nil {
		return nil, &repository.NotFoundError{Resource: "player", ID: name}
	}
	for _, p := range f.players {
		if strings.EqualFold(p.Name, name) && p.SchoolID == school.ID {
			return p, nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "player", ID: name}
}

func (f *fakeRepository) ListSchools(_ context.Context) ([]*models.School, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]*models.School, 0, len(f.schools))
	for _, s := range f.schools {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepository) UpsertSchool(_ context.Context, s *models.School) error {
	f.schools[s.ID] = s
	return nil
}

func (f *fakeRepository) UpsertPlayer(_ context.Context, p *models.Player) error {
	f.players = append(f.players, p)
	return nil
}

func (f *fakeRepository) InsertStatLinesBatch(_ context.Context, lines []*models.StatLine) error {
	if f.fetchErr != nil {
		return f.fetchErr
	}
	f.lines = append(f.lines, lines...)
	return nil
}

func (f *fakeRepository) HealthCheck(_ context.Context) error {
	return f.fetchErr
}

var errStoreDown = errors.New("store down")

func testDeps() (*logging.StructuredLogger, *metrics.Collector, *transform.Transformer) {
	logger := logging.NewNopLogger()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	return logger, collector, transform.NewTransformer(logger, collector)
}

func battingLine(name, yr string, wrc float64) models.RawStatRow {
	return models.RawStatRow{
		"name": name, "Yr": yr, "GP": 50.0, "PA": 200.0, "HR": 8.0, "SB": 4.0,
		"BB/PA": 0.1, "K/PA": 0.2, "ISO": 0.18, "BABIP": 0.31, "BA": 0.3,
		"OBP": 0.38, "SLG": 0.48, "wOBA": 0.37, "wRC": wrc,
	}
}

func pitchingLine(name string, fip float64) models.RawStatRow {
	return models.RawStatRow{
		"name": name, "Yr": "Jr", "GP": 15.0, "GS": 15.0, "IP": 90.1,
		"K/PA": 0.28, "BB/PA": 0.07, "HR-A": 5.0, "IP-adj": 90.333,
		"BABIP-against": 0.29, "ERA": 2.85, "FIP": fip,
	}
}

func careerBattingLine(season, schoolID float64) models.RawStatRow {
	row := battingLine("Dansby Swanson", "So", 40)
	delete(row, "name")
	delete(row, "Yr")
	row["season"] = season
	row["school_id"] = schoolID
	return row
}
