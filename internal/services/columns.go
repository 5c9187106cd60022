package services

import "ncaa-baseball/internal/transform"

// Sort keys of the four tables
const (
	TeamBattingSortKey  = "wRC"
	TeamPitchingSortKey = "FIP"
	CareerSortKey       = "season"
)

// homeRunsPerNine is HR/9 computed from home runs allowed and adjusted innings
var homeRunsPerNine = transform.DerivedMetric{
	Code:   "HR/9",
	Inputs: []string{"HR-A", "IP-adj"},
	Compute: func(in []float64) float64 {
		return in[0] / in[1] * 9
	},
}

// TeamBattingSpec lists a team's hitters, best run creators first
func TeamBattingSpec() transform.ColumnSpec {
	return transform.ColumnSpec{
		Name: "team_batting",
		Columns: []transform.Column{
			{Code: "name", DisplayName: "Name"},
			{Code: "Yr"},
			{Code: "GP", DisplayName: "G"},
			{Code: "PA"},
			{Code: "HR"},
			{Code: "SB"},
			{Code: "BB/PA", DisplayName: "BB%", Format: transform.Percentage},
			{Code: "K/PA", DisplayName: "K%", Format: transform.Percentage},
			{Code: "ISO", Format: transform.Rate},
			{Code: "BABIP", Format: transform.Rate},
			{Code: "BA", DisplayName: "AVG", Format: transform.Rate},
			{Code: "OBP", Format: transform.Rate},
			{Code: "SLG", Format: transform.Rate},
			{Code: "wOBA", Format: transform.Rate},
			{Code: "wRC"},
		},
	}
}

// TeamPitchingSpec lists a team's pitchers, lowest FIP first
func TeamPitchingSpec() transform.ColumnSpec {
	return transform.ColumnSpec{
		Name: "team_pitching",
		Columns: []transform.Column{
			{Code: "name", DisplayName: "Name"},
			{Code: "Yr"},
			{Code: "GP", DisplayName: "G"},
			{Code: "GS"},
			{Code: "IP"},
			{Code: "K/PA", DisplayName: "K%", Format: transform.Percentage},
			{Code: "BB/PA", DisplayName: "BB%", Format: transform.Percentage},
			{Code: "HR/9", Format: transform.Fixed(2)},
			{Code: "BABIP-against", DisplayName: "BABIP", Format: transform.Rate},
			{Code: "ERA"},
			{Code: "FIP"},
		},
		Derived: []transform.DerivedMetric{homeRunsPerNine},
	}
}

// PlayerBattingSpec lists a hitter's seasons in order, with the school of
// each season resolved through schools.
func PlayerBattingSpec(schools transform.Enricher) transform.ColumnSpec {
	return transform.ColumnSpec{
		Name: "player_batting",
		Columns: []transform.Column{
			{Code: "season", DisplayName: "Season"},
			{Code: "school_id", Enrich: schools},
			{Code: "GP", DisplayName: "G"},
			{Code: "PA"},
			{Code: "HR"},
			{Code: "SB"},
			{Code: "BB/PA", DisplayName: "BB%", Format: transform.Percentage},
			{Code: "K/PA", DisplayName: "K%", Format: transform.Percentage},
			{Code: "ISO", Format: transform.Rate},
			{Code: "BABIP", Format: transform.Rate},
			{Code: "BA", DisplayName: "AVG", Format: transform.Rate},
			{Code: "OBP", Format: transform.Rate},
			{Code: "SLG", Format: transform.Rate},
			{Code: "wOBA", Format: transform.Rate},
			{Code: "wRC"},
		},
	}
}

// PlayerPitchingSpec lists a pitcher's seasons in order
func PlayerPitchingSpec(schools transform.Enricher) transform.ColumnSpec {
	return transform.ColumnSpec{
		Name: "player_pitching",
		Columns: []transform.Column{
			{Code: "season", DisplayName: "Season"},
			{Code: "school_id", Enrich: schools},
			{Code: "GP", DisplayName: "G"},
			{Code: "GS"},
			{Code: "IP"},
			{Code: "K/PA", DisplayName: "K%", Format: transform.Percentage},
			{Code: "BB/PA", DisplayName: "BB%", Format: transform.Percentage},
			{Code: "HR/9", Format: transform.Fixed(2)},
			{Code: "BABIP-against", DisplayName: "BABIP", Format: transform.Rate},
			{Code: "ERA"},
			{Code: "FIP"},
		},
		Derived: []transform.DerivedMetric{homeRunsPerNine},
	}
}
