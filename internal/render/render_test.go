package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/transform"
)

func sampleTable() *transform.DisplayTable {
	return &transform.DisplayTable{
		Columns: []string{"Name", "AVG", "wRC"},
		Rows: [][]string{
			{"Baker", ".345", "48.5"},
			{"Cole, Jr.", "1.023", "30"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":          JSON,
		"json":      JSON,
		" TEXT ":    Text,
		"markdown":  Markdown,
		"csv":       CSV,
		"html":      HTML,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	var validation *models.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "format", validation.Field)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", JSON.ContentType())
	assert.Equal(t, "text/csv; charset=utf-8", CSV.ContentType())
	assert.Equal(t, "text/html; charset=utf-8", HTML.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", Markdown.ContentType())
}

func TestTable_Text(t *testing.T) {
	out, err := Table(sampleTable(), Text, "Batting")
	require.NoError(t, err)

	assert.Contains(t, out, "Batting")
	assert.Contains(t, out, "wRC", "headers keep their case")
	assert.Contains(t, out, "Baker")
	assert.Contains(t, out, "1.023")
}

func TestTable_Markdown(t *testing.T) {
	out, err := Table(sampleTable(), Markdown, "")
	require.NoError(t, err)

	assert.Contains(t, out, "| Name | AVG | wRC |")
	assert.Contains(t, out, "| Baker | .345 | 48.5 |")
}

func TestTable_CSV(t *testing.T) {
	out, err := Table(sampleTable(), CSV, "")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,AVG,wRC", lines[0])
	assert.Equal(t, "Baker,.345,48.5", lines[1])
	assert.Equal(t, `"Cole, Jr.",1.023,30`, lines[2])
}

func TestTable_HTML(t *testing.T) {
	out, err := Table(sampleTable(), HTML, "")
	require.NoError(t, err)

	assert.Contains(t, out, "<table")
	assert.Contains(t, out, "Baker")
}

func TestTable_JSONRejected(t *testing.T) {
	_, err := Table(sampleTable(), JSON, "")
	assert.Error(t, err)
}

func TestSections(t *testing.T) {
	var b strings.Builder
	err := Sections(&b, Markdown,
		Section{Title: "Batting", Table: sampleTable()},
		Section{Title: "Pitching"},
		Section{Title: "Again", Table: sampleTable()},
	)
	require.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "### Batting")
	assert.NotContains(t, out, "Pitching", "nil tables are skipped")
	assert.Contains(t, out, "### Again")
	assert.Equal(t, 2, strings.Count(out, "| Name | AVG | wRC |"))
}

func TestSections_HTMLTitleEscaped(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Sections(&b, HTML, Section{Title: "A&M", Table: sampleTable()}))
	assert.Contains(t, b.String(), "<h3>A&amp;M</h3>")
}
