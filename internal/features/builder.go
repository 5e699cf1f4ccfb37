package features

import (
	"strconv"
	"strings"
)

// Build maps src onto the canonical feature list, producing exactly one value
// per name in canonical order. Missing, empty, or unparseable fields become
// 0.0; partial inputs are tolerated by design, never an error.
func Build(cols []string, src FieldSource) []float64 {
	vec := make([]float64, len(cols))
	for i, col := range cols {
		vec[i] = fieldValue(src, col)
	}
	return vec
}

// BuildMap is Build keyed by feature name, for responses that echo the
// canonical mapping back to the caller.
func BuildMap(cols []string, src FieldSource) map[string]float64 {
	m := make(map[string]float64, len(cols))
	for _, col := range cols {
		m[col] = fieldValue(src, col)
	}
	return m
}

func fieldValue(src FieldSource, name string) float64 {
	raw, ok := src.Field(name)
	if !ok || raw == "" {
		return 0.0
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	// Second attempt: surrounding whitespace is common in CSV exports.
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return f
	}
	return 0.0
}
