package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrUserNotFound          = errors.New("user not found")
)

// ValidationError reports malformed or missing input, keyed by field so
// callers can render each message next to the right input.
type ValidationError struct {
	Fields map[string][]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

func (e *ValidationError) add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) hasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// AuthorizationError reports well-formed credentials that did not
// resolve to an active user. The message is the same for a wrong
// password and an unknown identifier, so responses never reveal whether
// an account exists.
type AuthorizationError struct {
	Code    string
	Message string
}

func newAuthorizationError() *AuthorizationError {
	return &AuthorizationError{
		Code:    "authorization",
		Message: "User not found",
	}
}

func (e *AuthorizationError) Error() string {
	return e.Message
}
