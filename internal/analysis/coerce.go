package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number coerces v to a finite float64, returning fallback when v is neither
// a number nor a numeric string. Strings may use a comma decimal separator
// and carry a percent sign ("15,5%").
func Number(v any, fallback float64) float64 {
	if n, ok := number(v); ok {
		return n
	}
	return fallback
}

// NumberIn is Number followed by clamping to [lo, hi].
func NumberIn(v any, fallback, lo, hi float64) float64 {
	return clamp(Number(v, fallback), lo, hi)
}

// NumberMin is Number with a lower bound only.
func NumberMin(v any, fallback, lo float64) float64 {
	return math.Max(Number(v, fallback), lo)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		clean := strings.ReplaceAll(n, ",", ".")
		clean = strings.ReplaceAll(clean, "%", "")
		return parseLeadingFloat(clean)
	}
	return 0, false
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseLeadingFloat parses the longest numeric prefix of s after leading
// whitespace, so "12 soru" yields 12 and "1.2.3" yields 1.2.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Text coerces v to a trimmed string. Numbers and booleans are formatted;
// nil and composite values yield fallback.
func Text(v any, fallback string) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	}
	return fallback
}

// List returns v when it is a JSON array and an empty slice otherwise.
func List(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}

// Object returns v when it is a JSON object and nil otherwise. Reading from
// the nil map yields nil for every key, which each coercion turns into its
// fallback.
func Object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Texts coerces every element of a JSON array to a string.
func Texts(v any) []string {
	list := List(v)
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, Text(item, ""))
	}
	return out
}

func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}
