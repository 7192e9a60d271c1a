// Package apperror defines the application's error kinds.
//
// Every layer below the HTTP handlers returns (or wraps) one of these so that
// a single function, handler.writeError, can translate errors into status
// codes. Lower layers wrap with fmt.Errorf("...: %w", err); errors.Is still
// finds the sentinel because AppError implements Unwrap.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream error")
	ErrRateLimited  = errors.New("rate limited")

	ErrMethodNotAllowed = errors.New("method not allowed")
)

type AppError struct {
	Err     error             // actual error
	Message string            // Human-readable error message
	Field   string            // Optional: field causing the error
	Fields  map[string]string // Optional: every invalid field -> reason
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundf builds a NotFound error with a custom message, for lookups that
// are not by id (slug, singleton rows).
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Conflictf builds a Conflict error with a custom message.
func Conflictf(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for a missing or rejected identity.
// The message is shown to the client as-is, so it must stay generic.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream wraps a failure of a third-party dependency (the AI API).
// The cause is kept for logging; the message is what the client sees.
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, cause),
		Message: message,
	}
}

// MethodNotAllowed reports a known path requested with a method it does not
// serve.
func MethodNotAllowed(method, path string) *AppError {
	return &AppError{
		Err:     ErrMethodNotAllowed,
		Message: fmt.Sprintf("method %s is not allowed on %s", method, path),
	}
}

// RateLimited marks an upstream rejection caused by rate limiting.
func RateLimited(message string) *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: message,
	}
}

// Validator collects field errors so a request can report every problem at
// once instead of stopping at the first.
//
//	v := apperror.NewValidator()
//	v.Require("name", name)
//	v.Check(level >= 0 && level <= 100, "level", "level must be between 0 and 100")
//	if err := v.Err(); err != nil { ... }
type Validator struct {
	fields map[string]string
}

func NewValidator() *Validator {
	return &Validator{fields: make(map[string]string)}
}

// Require records "<field> is required" when value is blank.
func (v *Validator) Require(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required")
		return false
	}
	return true
}

// Check records message against field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Add(field, message)
	}
}

// Add records a field error. The first error reported for a field wins.
func (v *Validator) Add(field, message string) {
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = message
	}
}

func (v *Validator) Valid() bool {
	return len(v.fields) == 0
}

// Err returns nil when no field failed, otherwise a validation AppError
// whose message names every failing field in sorted order.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}

	names := make([]string, 0, len(v.fields))
	for name := range v.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, v.fields[name])
	}

	fields := make(map[string]string, len(v.fields))
	for k, val := range v.fields {
		fields[k] = val
	}

	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(msgs, "; "),
		Field:   names[0],
		Fields:  fields,
	}
}
