// Package errors carries coded domain errors across the submission pipeline.
//
// Services translate infrastructure facts (see pkg/platform/sentinel) into
// these codes so callers can branch on what went wrong without string matching:
//
//	if dErrors.HasCode(err, dErrors.CodeValidationFailed) { ... }
package errors

import (
	"errors"
	"strings"
)

// Code classifies a domain error.
type Code string

const (
	// Hard failures of a submission.
	CodeValidationFailed  Code = "validation_failed"
	CodePersistenceFailed Code = "persistence_failed"

	// Recovered failures, reported as warnings.
	CodeExtractionFailed     Code = "extraction_failed"
	CodeReconciliationError  Code = "reconciliation_error"
	CodeComputationFailed    Code = "computation_failed"
	CodePlanGenerationFailed Code = "plan_generation_failed"

	// Outcome kinds for optional collaborators.
	CodeNotConfigured Code = "not_configured"
	CodeEngineFailure Code = "engine_failure"

	// General purpose codes.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is a coded error with an optional wrapped cause and detail lines.
type Error struct {
	Code    Code
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to err. A nil err still yields a coded error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetails returns a copy of e carrying the given detail lines.
func (e *Error) WithDetails(details ...string) *Error {
	cp := *e
	cp.Details = append(append([]string{}, e.Details...), details...)
	return &cp
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
