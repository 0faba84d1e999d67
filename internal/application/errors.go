package application

import (
	"errors"
	"sort"
	"strings"

	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountDisabled       = errors.New("account disabled")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrDuplicateEmail        = repo.ErrDuplicateEmail
	ErrStorageUnavailable    = errors.New("file storage not configured")
)

// NonFieldErrors is the key for messages that do not belong to one input field.
const NonFieldErrors = "non_field_errors"

// User facing messages.
const (
	MsgInvalidCredentials   = "Invalid email or password."
	MsgAccountDisabled      = "User account is disabled."
	MsgPasswordMismatch     = "Passwords don't match."
	MsgAcceptTOS            = "You must accept the Terms of Service."
	MsgBusinessNameRequired = "Business name is required for business accounts."
	MsgEmailTaken           = "user with this email already exists."
	MsgInvalidResetToken    = "Invalid or expired token."
)

// ValidationError collects input problems keyed by field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field string, msgs ...string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msgs...)
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field string, msgs ...string) *ValidationError {
	e := NewValidationError()
	e.Add(field, msgs...)
	return e
}
