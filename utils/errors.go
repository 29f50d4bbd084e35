package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error taxonomy for the whole app. Handlers map these to HTTP status codes
// in one place; everything unrecognized becomes a generic 500.

type AuthenticationError struct {
	Msg string
}

func (e *AuthenticationError) Error() string { return e.Msg }

// NewAuthenticationError deliberately uses one message for unknown email,
// wrong password and inactive account (anti-enumeration).
func NewAuthenticationError() *AuthenticationError {
	return &AuthenticationError{Msg: "invalid credentials"}
}

type AuthorizationError struct {
	Permission string
}

func (e *AuthorizationError) Error() string {
	if e.Permission == "" {
		return "forbidden"
	}
	return fmt.Sprintf("role lacks permission %q", e.Permission)
}

type ValidationError struct {
	Msg    string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "validation failed"
}

func NewValidationError(field string, detail string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: detail}}
}

type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

type InsufficientBudgetError struct {
	Spent     decimal.Decimal
	Requested decimal.Decimal
	Allotted  decimal.Decimal
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("insufficient budget: spent %s + requested %s exceeds allotted %s",
		e.Spent, e.Requested, e.Allotted)
}

type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// ExternalServiceError marks a collaborator (mail, storage, pubsub) failure.
// These are logged and never abort the primary operation.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
