package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ncaa-baseball/internal/models"
	"ncaa-baseball/internal/transform"
)

// Format is an output format for display tables
type Format string

const (
	JSON     Format = "json"
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	HTML     Format = "html"
)

// ParseFormat validates a format name; the empty string means JSON
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, Text, Markdown, CSV, HTML:
		return f, nil
	}
	return "", &models.ValidationError{
		Field:   "format",
		Value:   s,
		Message: "format must be one of json, text, markdown, csv, html",
	}
}

// ContentType returns the HTTP content type of a rendered format
func (f Format) ContentType() string {
	switch f {
	case Text, Markdown:
		return "text/plain; charset=utf-8"
	case CSV:
		return "text/csv; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Section is a titled table of a report
type Section struct {
	Title string
	Table *transform.DisplayTable
}

// Table renders one display table in a non-JSON format
func Table(dt *transform.DisplayTable, f Format, title string) (string, error) {
	t := table.NewWriter()

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	if title != "" && f == Text {
		t.SetTitle(title)
	}

	header := make(table.Row, len(dt.Columns))
	for i, c := range dt.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range dt.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}

	switch f {
	case Text:
		return t.Render(), nil
	case Markdown:
		return t.RenderMarkdown(), nil
	case CSV:
		return t.RenderCSV(), nil
	case HTML:
		return t.RenderHTML(), nil
	default:
		return "", fmt.Errorf("format %q does not render as a table", f)
	}
}

// Sections writes every non-nil section in order, separated by a blank
// line. Text and markdown get the title as a heading line.
func Sections(w io.Writer, f Format, sections ...Section) error {
	first := true
	for _, s := range sections {
		if s.Table == nil {
			continue
		}

		out, err := Table(s.Table, f, s.Title)
		if err != nil {
			return err
		}

		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false

		switch f {
		case Markdown:
			if s.Title != "" {
				out = "### " + s.Title + "\n\n" + out
			}
		case HTML:
			if s.Title != "" {
				out = "<h3>" + html.EscapeString(s.Title) + "</h3>\n" + out
			}
		}

		if _, err := io.WriteString(w, out+"\n"); err != nil {
			return err
		}
	}
	return nil
}
