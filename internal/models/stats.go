package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// StatKind selects the batting or pitching view of a season
type StatKind string

const (
	Batting  StatKind = "batting"
	Pitching StatKind = "pitching"
)

// ParseStatKind validates a kind read from input files or query strings
func ParseStatKind(s string) (StatKind, error) {
	switch StatKind(strings.ToLower(strings.TrimSpace(s))) {
	case Batting:
		return Batting, nil
	case Pitching:
		return Pitching, nil
	}
	return "", &ValidationError{
		Field:   "kind",
		Value:   s,
		Message: "invalid stat kind, expected batting or pitching",
	}
}

// School is one entry of the school directory
type School struct {
	ID             int64     `json:"school_id" db:"school_id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"-" db:"normalized_name"`
	Division       int       `json:"division" db:"division"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
}

// DivisionLabel renders the division tier as shown to users ("Division II")
func (s *School) DivisionLabel() string {
	return DivisionLabel(s.Division)
}

// DivisionLabel renders a division tier with roman numerals. Tiers outside
// 1..3 are rendered with their number.
func DivisionLabel(tier int) string {
	if tier < 1 || tier > 3 {
		return fmt.Sprintf("Division %d", tier)
	}
	return "Division " + strings.Repeat("I", tier)
}

// Player identifies one player on one school's roster
type Player struct {
	ID             int64     `json:"player_id" db:"player_id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"-" db:"normalized_name"`
	SchoolID       int64     `json:"school_id" db:"school_id"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
}

// RawStatRow is one entity-season as produced by the statistics source,
// keyed by statistic code ("wRC", "BB/PA", "name", ...). Values are numbers
// or strings. Rows are never mutated once fetched.
type RawStatRow map[string]interface{}

// Has reports whether the row carries the code, even with a nil value
func (r RawStatRow) Has(code string) bool {
	_, ok := r[code]
	return ok
}

// Number returns the numeric value under code. Numeric strings are
// accepted since some exports quote every field.
func (r RawStatRow) Number(code string) (float64, bool) {
	return ToFloat(r[code])
}

// Clone returns a shallow copy that can be extended without touching r
func (r RawStatRow) Clone() RawStatRow {
	out := make(RawStatRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat converts the numeric representations a RawStatRow may hold
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// StatLine is a stored row of precomputed statistics. A team-season is the
// set of lines sharing (SchoolID, Season, Kind); a player's career is the
// set of lines sharing (PlayerID, Kind). Every line belongs to a player, so
// (SchoolID, Season, Kind, PlayerID) identifies it.
type StatLine struct {
	ID       int64      `json:"id" db:"id"`
	SchoolID int64      `json:"school_id" db:"school_id"`
	Season   int        `json:"season" db:"season"`
	Kind     StatKind   `json:"kind" db:"kind"`
	PlayerID int64      `json:"player_id" db:"player_id"`
	Stats    RawStatRow `json:"stats" db:"-"`
}

// Row returns the stat line as a RawStatRow, filling the identity codes
// the season exports always carry.
func (l *StatLine) Row() RawStatRow {
	row := l.Stats.Clone()
	if !row.Has("season") {
		row["season"] = float64(l.Season)
	}
	if !row.Has("school_id") {
		row["school_id"] = float64(l.SchoolID)
	}
	return row
}

// ValidationError represents rejected user or file input
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
