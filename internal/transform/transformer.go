package transform

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/pkg/logging"
	"ncaa-baseball/pkg/metrics"
)

// UnresolvedMarker fills the cells of an identity lookup that failed
const UnresolvedMarker = "Unknown"

// DisplayTable is a renamed, formatted and sorted stat table
type DisplayTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`

	// Unresolved counts rows whose identity lookup failed
	Unresolved int `json:"unresolved,omitempty"`
}

// Len returns the number of rows
func (t *DisplayTable) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a display column, or -1
func (t *DisplayTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every cell of a display column in row order
func (t *DisplayTable) Column(name string) []string {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Transformer turns raw stat rows into display tables
type Transformer struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewTransformer creates a transformer that logs and records metrics
func NewTransformer(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Transformer {
	return &Transformer{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Transform validates rows against spec, computes derived metrics, sorts by
// sortKey, then projects, renames and formats the columns. Every input row
// yields exactly one output row. A missing statistic aborts the whole call
// with *MissingColumnError; a failed identity lookup only marks its row.
func (t *Transformer) Transform(ctx context.Context, rows []models.RawStatRow, spec ColumnSpec, sortKey string, sortDescending bool) (*DisplayTable, error) {
	start := time.Now()

	if missing := missingCodes(rows, spec.requiredCodes(sortKey)); len(missing) > 0 {
		err := &MissingColumnError{Table: spec.Name, Codes: missing}
		t.metrics.RecordMissingColumns(spec.Name)
		t.logger.Error(ctx, "[TRANSFORM_MISSING_COLUMNS] Raw rows do not match column spec", logging.Fields{
			"table":   spec.Name,
			"missing": missing,
			"rows":    len(rows),
		}, err)
		return nil, err
	}

	working, err := applyDerived(rows, spec)
	if err != nil {
		return nil, err
	}

	if err := sortRows(working, spec.Name, sortKey, sortDescending); err != nil {
		return nil, err
	}

	table := &DisplayTable{
		Columns: spec.Headers(),
		Rows:    make([][]string, len(working)),
	}

	lookups := make(map[int]map[string]lookupResult)
	for i, row := range working {
		cells := make([]string, 0, len(table.Columns))
		unresolved := false
		for ci, col := range spec.Columns {
			if col.Enrich == nil {
				cells = append(cells, formatCell(row[col.Code], col.Format))
				continue
			}
			values, ok := t.enrich(ctx, lookups, ci, col, row[col.Code])
			if !ok {
				unresolved = true
			}
			cells = append(cells, values...)
		}
		if unresolved {
			table.Unresolved++
		}
		table.Rows[i] = cells
	}

	t.metrics.RecordTransform(spec.Name, len(table.Rows), time.Since(start))
	t.logger.Debug(ctx, "[TRANSFORM_COMPLETE] Stat table built", logging.Fields{
		"table":       spec.Name,
		"rows":        len(table.Rows),
		"columns":     len(table.Columns),
		"sort_key":    sortKey,
		"descending":  sortDescending,
		"unresolved":  table.Unresolved,
		"duration_us": time.Since(start).Microseconds(),
	})

	return table, nil
}

type lookupResult struct {
	values []string
	ok     bool
}

// enrich resolves one identity cell, reusing earlier answers for the same
// value within this call.
func (t *Transformer) enrich(ctx context.Context, lookups map[int]map[string]lookupResult, colIdx int, col Column, value interface{}) ([]string, bool) {
	memo, ok := lookups[colIdx]
	if !ok {
		memo = make(map[string]lookupResult)
		lookups[colIdx] = memo
	}

	key := fmt.Sprint(value)
	if res, ok := memo[key]; ok {
		return res.values, res.ok
	}

	names := col.Enrich.Columns()
	values, err := col.Enrich.Resolve(ctx, value)
	if err == nil && len(values) != len(names) {
		err = fmt.Errorf("enricher returned %d values for %d columns", len(values), len(names))
	}

	res := lookupResult{values: values, ok: err == nil}
	if err != nil {
		res.values = make([]string, len(names))
		for i := range res.values {
			res.values[i] = UnresolvedMarker
		}
		t.metrics.RecordUnresolvedLookup(col.Code)
		t.logger.Warn(ctx, "[TRANSFORM_LOOKUP_UNRESOLVED] Identity lookup failed, row kept with placeholder", logging.Fields{
			"column": col.Code,
			"value":  key,
			"error":  err.Error(),
		})
	}

	memo[key] = res
	return res.values, res.ok
}

// missingCodes returns, sorted, every code absent from at least one row
func missingCodes(rows []models.RawStatRow, required []string) []string {
	var missing []string
	for _, code := range required {
		for _, row := range rows {
			if !row.Has(code) {
				missing = append(missing, code)
				break
			}
		}
	}
	sort.Strings(missing)
	return missing
}

// applyDerived copies the rows and attaches every derived metric
func applyDerived(rows []models.RawStatRow, spec ColumnSpec) ([]models.RawStatRow, error) {
	out := make([]models.RawStatRow, len(rows))
	for i, row := range rows {
		if len(spec.Derived) == 0 {
			out[i] = row
			continue
		}

		derivedRow := row.Clone()
		for _, d := range spec.Derived {
			inputs := make([]float64, len(d.Inputs))
			for j, code := range d.Inputs {
				v, ok := derivedRow.Number(code)
				if !ok {
					return nil, &InvalidValueError{Table: spec.Name, Code: code, Row: i, Value: derivedRow[code]}
				}
				inputs[j] = v
			}
			derivedRow[d.Code] = d.Compute(inputs)
		}
		out[i] = derivedRow
	}
	return out, nil
}

// sortRows orders rows by the numeric value of sortKey. The sort is stable
// so ties keep source order; NaN keys go last in either direction.
func sortRows(rows []models.RawStatRow, table, sortKey string, descending bool) error {
	if sortKey == "" {
		return nil
	}

	keys := make([]float64, len(rows))
	for i, row := range rows {
		v, ok := row.Number(sortKey)
		if !ok {
			return &InvalidValueError{Table: table, Code: sortKey, Row: i, Value: row[sortKey]}
		}
		keys[i] = v
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if math.IsNaN(ka) || math.IsNaN(kb) {
			return !math.IsNaN(ka) && math.IsNaN(kb)
		}
		if descending {
			return ka > kb
		}
		return ka < kb
	})

	sorted := make([]models.RawStatRow, len(rows))
	for i, idx := range order {
		sorted[i] = rows[idx]
	}
	copy(rows, sorted)
	return nil
}

// formatCell renders a raw value: numbers through the formatter, strings
// unchanged, nil as NotAvailable.
func formatCell(value interface{}, format Formatter) string {
	if value == nil {
		return NotAvailable
	}
	if s, ok := value.(string); ok {
		return s
	}
	v, ok := models.ToFloat(value)
	if !ok {
		return fmt.Sprint(value)
	}
	if format == nil {
		format = Identity
	}
	return format(v)
}
