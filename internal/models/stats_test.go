package models

import (
	"encoding/json"
	"testing"
)

func TestRawStatRow_Number(t *testing.T) {
	row := RawStatRow{
		"wRC":   float64(12.5),
		"GP":    30,
		"HR":    int64(7),
		"OBP":   json.Number("0.401"),
		"IP":    " 45.1 ",
		"name":  "Smith, John",
		"empty": nil,
	}

	tests := []struct {
		name   string
		code   string
		want   float64
		wantOK bool
	}{
		{"float64", "wRC", 12.5, true},
		{"int", "GP", 30, true},
		{"int64", "HR", 7, true},
		{"json number", "OBP", 0.401, true},
		{"numeric string", "IP", 45.1, true},
		{"text", "name", 0, false},
		{"nil value", "empty", 0, false},
		{"absent code", "XYZ", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := row.Number(tt.code)
			if ok != tt.wantOK {
				t.Fatalf("Number(%q) ok = %v, want %v", tt.code, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Number(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestRawStatRow_HasAndClone(t *testing.T) {
	row := RawStatRow{"wRC": 10.0, "note": nil}

	if !row.Has("note") {
		t.Error("Has should be true for a code with a nil value")
	}
	if row.Has("FIP") {
		t.Error("Has should be false for an absent code")
	}

	clone := row.Clone()
	clone["HR/9"] = 4.5
	if row.Has("HR/9") {
		t.Error("Clone must not share storage with the original row")
	}
}

func TestStatLine_Row(t *testing.T) {
	line := &StatLine{
		SchoolID: 697,
		Season:   2022,
		Kind:     Batting,
		Stats:    RawStatRow{"PA": 200.0},
	}

	row := line.Row()
	if v, _ := row.Number("season"); v != 2022 {
		t.Errorf("season = %v, want 2022", v)
	}
	if v, _ := row.Number("school_id"); v != 697 {
		t.Errorf("school_id = %v, want 697", v)
	}
	if line.Stats.Has("season") {
		t.Error("Row must not modify the stored stats")
	}

	line.Stats["season"] = 2019.0
	if v, _ := line.Row().Number("season"); v != 2019 {
		t.Errorf("explicit season should win, got %v", v)
	}
}

func TestDivisionLabel(t *testing.T) {
	tests := []struct {
		tier int
		want string
	}{
		{1, "Division I"},
		{2, "Division II"},
		{3, "Division III"},
		{0, "Division 0"},
	}
	for _, tt := range tests {
		if got := DivisionLabel(tt.tier); got != tt.want {
			t.Errorf("DivisionLabel(%d) = %q, want %q", tt.tier, got, tt.want)
		}
	}
}

func TestParseStatKind(t *testing.T) {
	if k, err := ParseStatKind(" Pitching "); err != nil || k != Pitching {
		t.Errorf("ParseStatKind(Pitching) = %v, %v", k, err)
	}

	_, err := ParseStatKind("fielding")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Field != "kind" || verr.IsTransient() {
		t.Errorf("unexpected validation error %+v", verr)
	}
}
