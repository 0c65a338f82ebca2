// Package normalize turns untyped payloads into the canonical request.
//
// Nothing in this package returns an error: malformed input is replaced by
// documented fallbacks so that the caller always gets an answer.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Object returns v as a JSON object, or nil.
func Object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// NonEmptyObject returns v as a JSON object when it has at least one key.
func NonEmptyObject(v any) (map[string]any, bool) {
	m := Object(v)
	return m, len(m) > 0
}

// List returns v as a JSON array, or nil.
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// Text returns v as a trimmed string. Numbers are formatted; other kinds yield "".
func Text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// Number converts v to a finite float64. ok is false for missing, non-numeric or non-finite values.
func Number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	case bool:
		if x {
			f = 1
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Float converts v and clamps it to [lo, hi], returning fallback when v is unusable.
func Float(v any, fallback, lo, hi float64) float64 {
	f, ok := Number(v)
	if !ok {
		return fallback
	}
	return Clamp(f, lo, hi)
}

// OptionalFloat is like Float but reports absence as nil.
func OptionalFloat(v any, lo, hi float64) *float64 {
	f, ok := Number(v)
	if !ok {
		return nil
	}
	f = Clamp(f, lo, hi)
	return &f
}

// Clamp bounds f to [lo, hi].
func Clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}

// Bool interprets booleans, "true"/"yes"/"1" strings and non-zero numbers.
func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			return true
		}
	case float64:
		return x != 0
	}
	return false
}

// first returns the first present value among keys in m.
func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// firstOf returns the first present value among keys across several objects.
func firstOf(objs []map[string]any, keys ...string) any {
	for _, m := range objs {
		if v := first(m, keys...); v != nil {
			return v
		}
	}
	return nil
}
