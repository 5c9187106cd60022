package transform

import "context"

// Column selects one statistic code from the raw rows and describes how it
// is shown. DisplayName defaults to Code, Format to Identity.
type Column struct {
	Code        string
	DisplayName string
	Format      Formatter

	// Enrich replaces the cell with the enricher's columns (a school id
	// becomes School and Division). Format is ignored when Enrich is set.
	Enrich Enricher
}

// Name returns the display name of a plain column
func (c Column) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Code
}

// outputNames returns the header cells the column produces
func (c Column) outputNames() []string {
	if c.Enrich != nil {
		return c.Enrich.Columns()
	}
	return []string{c.Name()}
}

// DerivedMetric is a numeric column computed from other raw columns before
// any formatting happens. Compute receives the input values in Inputs order.
type DerivedMetric struct {
	Code    string
	Inputs  []string
	Compute func(inputs []float64) float64
}

// Enricher resolves a raw identity value into display cells through an
// external lookup. Resolve must return one value per entry of Columns.
type Enricher interface {
	Columns() []string
	Resolve(ctx context.Context, value interface{}) ([]string, error)
}

// ColumnSpec is the ordered column list of one display table
type ColumnSpec struct {
	// Name labels logs and metrics ("team_batting")
	Name    string
	Columns []Column
	Derived []DerivedMetric
}

// Headers returns the display table header, enrichment columns included
func (s ColumnSpec) Headers() []string {
	headers := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		headers = append(headers, c.outputNames()...)
	}
	return headers
}

func (s ColumnSpec) derived(code string) bool {
	for _, d := range s.Derived {
		if d.Code == code {
			return true
		}
	}
	return false
}

// requiredCodes lists the raw codes every row must carry to build the table
func (s ColumnSpec) requiredCodes(sortKey string) []string {
	seen := make(map[string]bool)
	var codes []string
	add := func(code string) {
		if code == "" || seen[code] || s.derived(code) {
			return
		}
		seen[code] = true
		codes = append(codes, code)
	}

	for _, c := range s.Columns {
		add(c.Code)
	}
	add(sortKey)
	for _, d := range s.Derived {
		for _, in := range d.Inputs {
			add(in)
		}
	}
	return codes
}
