package queryplan

import (
	"errors"
	"fmt"
)

// PlanError represents a structural problem detected while compiling a
// query into an execution plan.
//
// Plan errors are static: the same IR against the same connector always
// fails the same way, so callers should never retry them.
type PlanError struct {
	// Code identifies the error category.
	Code PlanErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (relationship names, versions).
	Details map[string]string
}

// PlanErrorCode categorizes plan errors.
type PlanErrorCode string

const (
	// ErrCodeRelationshipConflict indicates two parts of a query define the
	// same relationship name differently.
	ErrCodeRelationshipConflict PlanErrorCode = "RELATIONSHIP_CONFLICT"

	// ErrCodeUnsupportedFeature indicates the target connector's protocol
	// version cannot express part of the query.
	ErrCodeUnsupportedFeature PlanErrorCode = "UNSUPPORTED_FEATURE"

	// ErrCodeInvalidFilter indicates a malformed filter expression.
	ErrCodeInvalidFilter PlanErrorCode = "INVALID_FILTER"

	// ErrCodeInvalidArgument indicates a malformed argument.
	ErrCodeInvalidArgument PlanErrorCode = "INVALID_ARGUMENT"

	// ErrCodeInvalidQuery indicates a malformed query node (missing
	// connector, missing nested query).
	ErrCodeInvalidQuery PlanErrorCode = "INVALID_QUERY"
)

// Error implements the error interface.
func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConflictError returns true if the error is a relationship conflict.
// Uses errors.As to handle wrapped errors.
func IsConflictError(err error) bool {
	return hasCode(err, ErrCodeRelationshipConflict)
}

// IsUnsupportedError returns true if the error is an unsupported feature
// error for the target protocol version.
func IsUnsupportedError(err error) bool {
	return hasCode(err, ErrCodeUnsupportedFeature)
}

// CodeOf returns the PlanErrorCode of err, or "" if err is not a PlanError.
func CodeOf(err error) PlanErrorCode {
	var pe *PlanError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func hasCode(err error, code PlanErrorCode) bool {
	return CodeOf(err) == code
}

func newConflictError(name string) *PlanError {
	return &PlanError{
		Code:    ErrCodeRelationshipConflict,
		Message: fmt.Sprintf("relationship %q is defined more than once with different definitions", name),
		Details: map[string]string{"relationship": name},
	}
}

func newUnsupportedError(feature, version string) *PlanError {
	return &PlanError{
		Code:    ErrCodeUnsupportedFeature,
		Message: fmt.Sprintf("%s is not supported by protocol %s", feature, version),
		Details: map[string]string{"feature": feature, "version": version},
	}
}

func newInvalidFilterError(format string, args ...any) *PlanError {
	return &PlanError{Code: ErrCodeInvalidFilter, Message: fmt.Sprintf(format, args...)}
}

func newInvalidArgumentError(format string, args ...any) *PlanError {
	return &PlanError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func newInvalidQueryError(format string, args ...any) *PlanError {
	return &PlanError{Code: ErrCodeInvalidQuery, Message: fmt.Sprintf(format, args...)}
}
