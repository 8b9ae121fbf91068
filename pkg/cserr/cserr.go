// Package cserr provides severity-aware structured errors for the
// site feasibility pipeline.
package cserr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the pipeline must react to it.
type Kind int

const (
	// KindConfiguration means the scenario configuration is structurally
	// invalid. Fails fast before any scoring executes.
	KindConfiguration Kind = iota
	// KindDataGap means a required data category is entirely absent for a
	// site. The analysis degrades to documented defaults and the result is
	// flagged partial.
	KindDataGap
	// KindComputation means an internal invariant was violated. Treated as
	// a defect and surfaced immediately, never silently corrected.
	KindComputation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindDataGap:
		return "data_gap"
	case KindComputation:
		return "computation"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrDataGap       = errors.New("data gap")
	ErrComputation   = errors.New("computation error")
)

// Error is a structured pipeline error with a machine-readable code.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s (field: %s)", e.Kind, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Code, e.Message)
}

// Is maps each Kind onto its sentinel so callers can branch with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrDataGap:
		return e.Kind == KindDataGap
	case ErrComputation:
		return e.Kind == KindComputation
	}
	return false
}

// Error codes
const (
	CodeWeightSum        = "WEIGHT_SUM_INVALID"
	CodeNegativeWeight   = "NEGATIVE_WEIGHT"
	CodeNegativeRadius   = "NEGATIVE_RADIUS"
	CodeInvalidThreshold = "INVALID_THRESHOLD"
	CodeInvalidConstant  = "INVALID_CONSTANT"
	CodeMissingCategory  = "MISSING_CATEGORY"
	CodeMissingSource    = "MISSING_SOURCE"
	CodeNegativeDistance = "NEGATIVE_DISTANCE"
	CodeScoreOutOfRange  = "SCORE_OUT_OF_RANGE"
)

// NewConfiguration builds a fail-fast configuration error.
func NewConfiguration(code, field, format string, args ...any) *Error {
	return &Error{
		Kind:    KindConfiguration,
		Code:    code,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewDataGap builds a recoverable data-gap error.
func NewDataGap(code, format string, args ...any) *Error {
	return &Error{
		Kind:    KindDataGap,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewComputation builds an invariant-violation error.
func NewComputation(code, format string, args ...any) *Error {
	return &Error{
		Kind:    KindComputation,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
