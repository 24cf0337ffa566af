package core

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports a malformed or missing argument.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a shorthand for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Err: errors.New(field + ": " + msg), Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports that a referenced resource does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// ConflictError reports a write that lost a race against a concurrent write.
type ConflictError struct {
	Resource string
}

func NewConflictError(resource string) *ConflictError {
	return &ConflictError{Resource: resource}
}

func (err ConflictError) Error() string {
	return err.Resource + " was modified concurrently, please retry"
}

// UpstreamError reports a failure of an external provider.
type UpstreamError struct {
	Service string
	Err     error
	Timeout bool
}

func NewUpstreamError(service string, err error) error {
	return &UpstreamError{
		Service: service,
		Err:     err,
		Timeout: errors.Is(err, context.DeadlineExceeded),
	}
}

func (err UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", err.Service, err.Err)
}

func (err UpstreamError) Unwrap() error { return err.Err }

// IsValidationError, IsNotFound, IsConflict and IsUpstream look through errors.Wrap chains.

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func IsUpstream(err error) bool {
	_, ok := errors.Cause(err).(*UpstreamError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
