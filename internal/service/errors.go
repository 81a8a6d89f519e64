package service

import (
	"errors"
	"fmt"
)

// ErrNotFound covers both "does not exist" and "exists but belongs to
// someone else". The two cases are deliberately indistinguishable so a
// caller cannot probe for other users' conversations.
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded is returned when a sender has reached their configured
// message limit.
var ErrQuotaExceeded = errors.New("message quota exceeded")

// ValidationError reports rejected input: empty body, missing or unknown
// recipient, messaging yourself.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
