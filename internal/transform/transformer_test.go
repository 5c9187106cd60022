package transform

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

func newTestTransformer(t *testing.T) (*Transformer, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	return NewTransformer(logging.NewNopLogger(), collector), collector
}

// fakeSchools resolves school ids from a fixed map and counts lookups
type fakeSchools struct {
	names map[float64][2]string
	calls int
}

func (f *fakeSchools) Columns() []string { return []string{"School", "Division"} }

func (f *fakeSchools) Resolve(_ context.Context, value interface{}) ([]string, error) {
	f.calls++
	id, ok := models.ToFloat(value)
	if !ok {
		return nil, fmt.Errorf("bad id %v", value)
	}
	entry, ok := f.names[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return []string{entry[0], entry[1]}, nil
}

func battingRows() []models.RawStatRow {
	return []models.RawStatRow{
		{"name": "Able", "Yr": "Fr", "GP": 10, "BB/PA": 0.1, "BA": 0.25, "wRC": 10.0},
		{"name": "Baker", "Yr": "So", "GP": 50, "BB/PA": 0.256, "BA": 0.345, "wRC": 50.0},
		{"name": "Cole", "Yr": "Jr", "GP": 30, "BB/PA": 0.3005, "BA": 1.023, "wRC": 30.0},
	}
}

func battingSpec() ColumnSpec {
	return ColumnSpec{
		Name: "test_batting",
		Columns: []Column{
			{Code: "name", DisplayName: "Name"},
			{Code: "Yr"},
			{Code: "GP", DisplayName: "G"},
			{Code: "BB/PA", DisplayName: "BB%", Format: Percentage},
			{Code: "BA", DisplayName: "AVG", Format: Rate},
		},
	}
}

func TestTransform_SortsDescendingAndFormats(t *testing.T) {
	tr, collector := newTestTransformer(t)

	table, err := tr.Transform(context.Background(), battingRows(), battingSpec(), "wRC", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Yr", "G", "BB%", "AVG"}, table.Columns)
	assert.Equal(t, [][]string{
		{"Baker", "So", "50", "25.6%", ".345"},
		{"Cole", "Jr", "30", "30.1%", "1.023"},
		{"Able", "Fr", "10", "10.0%", ".250"},
	}, table.Rows)
	assert.Zero(t, table.Unresolved)

	assert.Equal(t, float64(3), testutil.ToFloat64(collector.TransformRowsTotal.WithLabelValues("test_batting")))
}

func TestTransform_SortKeyNeedNotBeDisplayed(t *testing.T) {
	tr, _ := newTestTransformer(t)

	table, err := tr.Transform(context.Background(), battingRows(), battingSpec(), "wRC", true)
	require.NoError(t, err)
	assert.Equal(t, -1, table.ColumnIndex("wRC"))
}

func TestTransform_SortsAscending(t *testing.T) {
	tr, _ := newTestTransformer(t)
	rows := []models.RawStatRow{
		{"name": "A", "FIP": 3.5},
		{"name": "B", "FIP": 2.1},
		{"name": "C", "FIP": 4.0},
	}
	spec := ColumnSpec{Name: "fip", Columns: []Column{{Code: "name"}, {Code: "FIP", Format: Fixed(1)}}}

	table, err := tr.Transform(context.Background(), rows, spec, "FIP", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"2.1", "3.5", "4.0"}, table.Column("FIP"))
	assert.Equal(t, []string{"B", "A", "C"}, table.Column("name"))
}

func TestTransform_StableOnTies(t *testing.T) {
	tr, _ := newTestTransformer(t)
	rows := []models.RawStatRow{
		{"name": "first", "wRC": 5.0},
		{"name": "top", "wRC": 9.0},
		{"name": "second", "wRC": 5.0},
		{"name": "third", "wRC": 5.0},
	}
	spec := ColumnSpec{Name: "ties", Columns: []Column{{Code: "name"}}}

	table, err := tr.Transform(context.Background(), rows, spec, "wRC", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"top", "first", "second", "third"}, table.Column("name"))
}

func TestTransform_MissingColumn(t *testing.T) {
	tr, collector := newTestTransformer(t)
	spec := battingSpec()
	spec.Columns = append(spec.Columns, Column{Code: "XYZ"})

	table, err := tr.Transform(context.Background(), battingRows(), spec, "wRC", true)
	require.Error(t, err)
	assert.Nil(t, table, "no partial table on missing columns")

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"XYZ"}, missing.Codes)
	assert.Contains(t, err.Error(), "XYZ")
	assert.True(t, IsTableUnavailable(err))
	assert.False(t, missing.IsTransient())
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.MissingColumnsTotal.WithLabelValues("test_batting")))
}

func TestTransform_MissingInOneRowAndSortKey(t *testing.T) {
	tr, _ := newTestTransformer(t)
	rows := battingRows()
	delete(rows[1], "BA")

	_, err := tr.Transform(context.Background(), rows, battingSpec(), "OPS", true)

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"BA", "OPS"}, missing.Codes)
}

func TestTransform_DerivedMetric(t *testing.T) {
	tr, _ := newTestTransformer(t)
	rows := []models.RawStatRow{
		{"name": "Ace", "HR-A": 9.0, "IP-adj": 18.0, "FIP": 3.1},
		{"name": "Mop", "HR-A": 1.0, "IP-adj": 0.0, "FIP": 9.9},
	}
	spec := ColumnSpec{
		Name: "derived",
		Columns: []Column{
			{Code: "name"},
			{Code: "HR/9", Format: Fixed(2)},
		},
		Derived: []DerivedMetric{{
			Code:   "HR/9",
			Inputs: []string{"HR-A", "IP-adj"},
			Compute: func(in []float64) float64 {
				return in[0] / in[1] * 9
			},
		}},
	}

	table, err := tr.Transform(context.Background(), rows, spec, "FIP", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"4.50", NotAvailable}, table.Column("HR/9"))

	assert.False(t, rows[0].Has("HR/9"), "input rows must not be modified")
}

func TestTransform_DerivedInputMissing(t *testing.T) {
	tr, _ := newTestTransformer(t)
	rows := []models.RawStatRow{{"name": "Ace", "HR-A": 9.0, "FIP": 3.1}}
	spec := ColumnSpec{
		Name:    "derived",
		Columns: []Column{{Code: "HR/9"}},
		Derived: []DerivedMetric{{Code: "HR/9", Inputs: []string{"HR-A", "IP-adj"}, Compute: func(in []float64) float64 { return 0 }}},
	}

	_, err := tr.Transform(context.Background(), rows, spec, "FIP", false)
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"IP-adj"}, missing.Codes)
}

func TestTransform_NonNumericSortKey(t *testing.T) {
	tr, _ := newTestTransformer(t)
	rows := battingRows()
	rows[2]["wRC"] = "n/a"

	_, err := tr.Transform(context.Background(), rows, battingSpec(), "wRC", true)

	var invalid *InvalidValueError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "wRC", invalid.Code)
	assert.Equal(t, 2, invalid.Row)
	assert.True(t, IsTableUnavailable(err))
}

func TestTransform_IdentityEnrichment(t *testing.T) {
	tr, collector := newTestTransformer(t)
	schools := &fakeSchools{names: map[float64][2]string{
		697: {"Vanderbilt", "Division I"},
	}}
	rows := []models.RawStatRow{
		{"season": 2022, "school_id": 697, "GP": 40},
		{"season": 2020, "school_id": 999, "GP": 12},
		{"season": 2021, "school_id": 697, "GP": 55},
	}
	spec := ColumnSpec{
		Name: "career",
		Columns: []Column{
			{Code: "season", DisplayName: "Season"},
			{Code: "school_id", Enrich: schools},
			{Code: "GP", DisplayName: "G"},
		},
	}

	table, err := tr.Transform(context.Background(), rows, spec, "season", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Season", "School", "Division", "G"}, table.Columns)
	assert.Equal(t, [][]string{
		{"2020", UnresolvedMarker, UnresolvedMarker, "12"},
		{"2021", "Vanderbilt", "Division I", "55"},
		{"2022", "Vanderbilt", "Division I", "40"},
	}, table.Rows)
	assert.Equal(t, 1, table.Unresolved)
	assert.Equal(t, 2, schools.calls, "lookups are memoized per distinct value")
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.UnresolvedLookupsTotal.WithLabelValues("school_id")))
}

func TestTransform_RowCountAndHeadersProperty(t *testing.T) {
	tr, _ := newTestTransformer(t)
	spec := battingSpec()

	for n := 0; n <= 25; n++ {
		rows := make([]models.RawStatRow, n)
		for i := range rows {
			rows[i] = models.RawStatRow{
				"name": fmt.Sprintf("p%d", i), "Yr": "Sr", "GP": i,
				"BB/PA": float64(i%7) / 10, "BA": float64(i%5) / 10, "wRC": float64((i * 37) % 11),
			}
		}

		table, err := tr.Transform(context.Background(), rows, spec, "wRC", true)
		require.NoError(t, err)
		assert.Equal(t, n, table.Len())
		assert.Equal(t, spec.Headers(), table.Columns)
		for _, row := range table.Rows {
			assert.Len(t, row, len(table.Columns))
		}
	}
}

func TestTransform_Deterministic(t *testing.T) {
	tr, _ := newTestTransformer(t)
	schools := &fakeSchools{names: map[float64][2]string{697: {"Vanderbilt", "Division I"}}}
	spec := battingSpec()
	spec.Columns = append(spec.Columns, Column{Code: "school_id", Enrich: schools})

	rows := battingRows()
	for _, r := range rows {
		r["school_id"] = 697
	}

	first, err := tr.Transform(context.Background(), rows, spec, "wRC", true)
	require.NoError(t, err)
	second, err := tr.Transform(context.Background(), rows, spec, "wRC", true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Able", rows[0]["name"], "input order untouched")
}
