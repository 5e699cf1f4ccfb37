// Package features builds canonical feature vectors from raw input records
// and applies the fitted standardization used by the active model generation.
package features

import (
	"fmt"
	"strconv"
)

// FieldSource yields the raw value for a named field. The two shapes a
// request can arrive in (a dataset row of strings, a free-form JSON body)
// are both adapted onto this single method.
type FieldSource interface {
	// Field returns the raw value for name and whether it was present.
	Field(name string) (string, bool)
}

// RowSource adapts a CSV dataset row (header -> cell) to a FieldSource.
type RowSource map[string]string

func (r RowSource) Field(name string) (string, bool) {
	v, ok := r[name]
	return v, ok
}

// RecordSource adapts a decoded JSON object to a FieldSource. Numbers decode
// as float64, so values are rendered back to strings before parsing.
type RecordSource map[string]any

func (r RecordSource) Field(name string) (string, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return "", false
	default:
		return fmt.Sprint(t), true
	}
}
