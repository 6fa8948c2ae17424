package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed or empty request with no recoverable default.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrProvider signals an external API auth/quota failure. Never retried.
	ErrProvider = errors.New("provider error")
	// ErrTransient signals a timeout or network failure. Retryable with backoff.
	ErrTransient = errors.New("transient error")
	// ErrIterationBudgetExceeded signals a tool-call loop that did not converge.
	ErrIterationBudgetExceeded = errors.New("could not complete within iteration budget")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted token budget.
	ErrQuotaExceeded = errors.New("token budget exceeded")
	// ErrTurnTimeout signals a turn that exceeded its processing deadline.
	ErrTurnTimeout = errors.New("turn deadline exceeded")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a named field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ProviderError wraps ErrProvider with the provider name and upstream status.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status %d): %s", ErrProvider.Error(), e.Provider, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProvider }

// NewProviderError creates a provider error.
func NewProviderError(provider string, statusCode int, message string) error {
	return &ProviderError{Provider: provider, StatusCode: statusCode, Message: message}
}
