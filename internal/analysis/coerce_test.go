package analysis

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		fallback float64
		want     float64
	}{
		{"float", 12.5, 0, 12.5},
		{"int", 7, 0, 7},
		{"json number", json.Number("3.25"), 0, 3.25},
		{"period string", "15.5", 0, 15.5},
		{"comma string", "15,5", 0, 15.5},
		{"percent string", "42%", 0, 42},
		{"comma percent", " 66,7 %", 0, 66.7},
		{"leading numeric prefix", "12 soru", 0, 12},
		{"negative string", "-0,66", 0, -0.66},
		{"garbage string", "abc", 9, 9},
		{"empty string", "", 9, 9},
		{"nil", nil, 4, 4},
		{"bool", true, 4, 4},
		{"object", map[string]any{"x": 1.0}, 4, 4},
		{"NaN", math.NaN(), 3, 3},
		{"Inf", math.Inf(1), 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Number(tt.in, tt.fallback)
			if got != tt.want {
				t.Errorf("Number(%v, %v) = %v, want %v", tt.in, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestNumberIn(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"in range", 50.0, 50},
		{"below", -5.0, 0},
		{"above", 720.0, 500},
		{"string above", "650", 500},
		{"missing uses fallback", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumberIn(tt.in, 0, 0, 500); got != tt.want {
				t.Errorf("NumberIn(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	// Fallback is clamped too.
	if got := NumberIn(nil, 5, 1, 3); got != 3 {
		t.Errorf("NumberIn(nil, 5, 1, 3) = %v, want 3", got)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		fallback string
		want     string
	}{
		{"trimmed", "  Ayşe Yılmaz ", "x", "Ayşe Yılmaz"},
		{"empty string kept", "", "x", ""},
		{"integer float", 15.0, "x", "15"},
		{"fractional float", 1.5, "x", "1.5"},
		{"json number", json.Number("8"), "x", "8"},
		{"bool", false, "x", "false"},
		{"nil", nil, "x", "x"},
		{"array", []any{"a"}, "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in, tt.fallback); got != tt.want {
				t.Errorf("Text(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestListAndObject(t *testing.T) {
	if got := List([]any{1.0, "a"}); len(got) != 2 {
		t.Errorf("List(array) len = %d, want 2", len(got))
	}
	for _, v := range []any{nil, "a", 3.0, map[string]any{}} {
		got := List(v)
		if got == nil || len(got) != 0 {
			t.Errorf("List(%v) = %v, want empty non-nil slice", v, got)
		}
	}

	if Object("not an object") != nil {
		t.Error("Object(string) should be nil")
	}
	if Object(map[string]any{"a": 1.0})["a"] != 1.0 {
		t.Error("Object(map) should return the map")
	}
	if Object(nil)["anything"] != nil {
		t.Error("reading from a nil object should yield nil")
	}
}

func TestTexts(t *testing.T) {
	got := Texts([]any{" güçlü ", 3.0, nil})
	want := []string{"güçlü", "3", ""}
	if len(got) != len(want) {
		t.Fatalf("Texts len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Texts[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
