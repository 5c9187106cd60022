package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncaa-baseball/internal/render"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-school", "Vanderbilt", "-year", "2014"})
	require.NoError(t, err)
	assert.Equal(t, "Vanderbilt", opts.school)
	assert.Equal(t, 2014, opts.year)
	assert.Equal(t, render.Text, opts.format)

	opts, err = parseOptions([]string{"-school", "LSU", "-player", "Alex Bregman", "-format", "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "Alex Bregman", opts.player)
	assert.Equal(t, render.Markdown, opts.format)
}

func TestParseOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no school", []string{"-year", "2014"}},
		{"neither year nor player", []string{"-school", "LSU"}},
		{"bad format", []string{"-school", "LSU", "-year", "2014", "-format", "pdf"}},
		{"bad year", []string{"-school", "LSU", "-year", "fourteen"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseOptions(tt.args)
			assert.Error(t, err)
		})
	}
}
