package engine

import (
	"errors"
	"fmt"
)

// LayerError reports a layer the solver refuses to load.
//
// The compiler filters malformed rules before they reach the engine, so a
// LayerError means a caller bypassed validation.
type LayerError struct {
	// Code identifies the error category.
	Code LayerErrorCode

	// Message is a human-readable description.
	Message string

	// RuleID identifies the offending rule, if any.
	RuleID string
}

// LayerErrorCode categorizes layer errors.
type LayerErrorCode string

const (
	// ErrCodeMalformedRule indicates a rule that failed structural checks.
	ErrCodeMalformedRule LayerErrorCode = "MALFORMED_RULE"

	// ErrCodeInvalidEdge indicates an unknown edge policy kind.
	ErrCodeInvalidEdge LayerErrorCode = "INVALID_EDGE"

	// ErrCodeNilLayer indicates a nil layer was passed to New.
	ErrCodeNilLayer LayerErrorCode = "NIL_LAYER"
)

// Error implements the error interface.
func (e *LayerError) Error() string {
	if e.RuleID != "" {
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.RuleID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLayerError reports whether err is (or wraps) a LayerError.
func IsLayerError(err error) bool {
	var le *LayerError
	return errors.As(err, &le)
}

// AsLayerError extracts a LayerError from err.
func AsLayerError(err error) (*LayerError, bool) {
	var le *LayerError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

func malformed(ruleID, format string, args ...any) *LayerError {
	return &LayerError{
		Code:    ErrCodeMalformedRule,
		Message: fmt.Sprintf(format, args...),
		RuleID:  ruleID,
	}
}
