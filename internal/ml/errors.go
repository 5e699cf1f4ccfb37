// Package ml provides the financial-distress classifier, its TreeSHAP-based
// attribution engine, and the on-disk model generation lifecycle
// (archive, retrain, restore, inspect).
package ml

import (
	"errors"
	"fmt"
)

// ErrExplainUnavailable is returned by every Explain call when the loaded
// model does not support tree attributions. Resolved once at initialization.
var ErrExplainUnavailable = errors.New("attribution engine unavailable: model does not support tree attributions")

// ErrLiveDataUnavailable is returned when the live market-data client has no
// configured upstream. Resolved once at initialization, like explainability.
var ErrLiveDataUnavailable = errors.New("live data unavailable: no quote API configured")

// InputError marks malformed or insufficient request data. Surfaced to the
// caller as a per-request failure, never retried.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return "input error: " + e.Msg }

// DataError marks a training dataset problem (missing file, missing target
// column). Fatal to the retrain call that hit it, nothing else.
type DataError struct {
	Path string
	Msg  string
}

func (e *DataError) Error() string { return fmt.Sprintf("data error (%s): %s", e.Path, e.Msg) }

// NotFoundError marks an unknown archive version or sample index.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Name }

// ExplanationError marks an internal shape inconsistency while computing
// attributions. It carries the shapes encountered so the failure can be
// diagnosed from the response alone.
type ExplanationError struct {
	Msg    string
	Shapes map[string]string
}

func (e *ExplanationError) Error() string {
	if len(e.Shapes) == 0 {
		return "explanation error: " + e.Msg
	}
	return fmt.Sprintf("explanation error: %s (shapes: %v)", e.Msg, e.Shapes)
}
