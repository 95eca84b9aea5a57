// pkg/pipeline/error.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies a stage failure for logging and for deciding
// whether a retry of the whole run is worthwhile.
type ErrorCategory string

const (
	CategoryConnection     ErrorCategory = "connection"
	CategorySchemaMismatch ErrorCategory = "schema_mismatch"
	CategoryDataQuality    ErrorCategory = "data_quality"
	CategoryCancelled      ErrorCategory = "cancelled"
	CategorySystem         ErrorCategory = "system"
)

// StageError wraps an error with the stage it occurred in.
type StageError struct {
	Stage    string
	Category ErrorCategory
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (%s): %v", e.Stage, e.Category, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err for a stage, categorizing it from its content.
func NewStageError(stage string, err error) *StageError {
	return &StageError{
		Stage:    stage,
		Category: categorizeError(err),
		Err:      err,
	}
}

// categorizeError maps an error to a category by inspecting the chain and,
// for driver errors that carry no typed sentinel, the message text.
func categorizeError(err error) ErrorCategory {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryCancelled
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "required column"),
		strings.Contains(msg, "unknown column"),
		strings.Contains(msg, "does not exist"):
		return CategorySchemaMismatch
	case strings.Contains(msg, "connection"),
		strings.Contains(msg, "dial"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "broken pipe"):
		return CategoryConnection
	case strings.Contains(msg, "verification failed"),
		strings.Contains(msg, "null"),
		strings.Contains(msg, "referential"):
		return CategoryDataQuality
	default:
		return CategorySystem
	}
}
