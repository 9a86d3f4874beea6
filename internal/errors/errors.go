// Package errors defines the service error taxonomy shared by handlers and
// middleware. Every error carries a machine-checkable code and the HTTP status
// it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an error category to API clients.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidToken       Code = "invalid_token"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeAlreadyFinalized   Code = "already_finalized"
	CodeInsufficientFunds  Code = "insufficient_funds"
	CodeUpstream           Code = "upstream_error"
	CodeRateLimited        Code = "rate_limit_exceeded"
	CodeInternal           Code = "internal_error"
)

// ServiceError is the canonical error surfaced to API clients.
type ServiceError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// WithDetails attaches a detail entry and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Validation reports malformed or missing input.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

// Unauthorized reports a missing or unusable credential.
func Unauthorized(message string) *ServiceError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// InvalidToken reports a token that failed signature or expiry checks.
func InvalidToken(err error) *ServiceError {
	return newError(CodeInvalidToken, http.StatusUnauthorized, "invalid or expired token", err)
}

// InvalidCredentials reports a failed login attempt.
func InvalidCredentials() *ServiceError {
	return newError(CodeInvalidCredentials, http.StatusUnauthorized, "invalid email or password", nil)
}

// Forbidden reports a capability the caller's role does not grant.
func Forbidden(message string) *ServiceError {
	return newError(CodeForbidden, http.StatusForbidden, message, nil)
}

// NotFound reports an absent entity.
func NotFound(message string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, message, nil)
}

// AlreadyFinalized reports an approval retried after a terminal transition.
func AlreadyFinalized(message string) *ServiceError {
	return newError(CodeAlreadyFinalized, http.StatusConflict, message, nil)
}

// InsufficientFunds reports a debit or freeze rejected by the balance guard.
func InsufficientFunds(message string) *ServiceError {
	return newError(CodeInsufficientFunds, http.StatusBadRequest, message, nil)
}

// Upstream reports a failed call to the main backend.
func Upstream(message string, err error) *ServiceError {
	return newError(CodeUpstream, http.StatusBadGateway, message, err)
}

// RateLimitExceeded reports a throttled client.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError(CodeRateLimited, http.StatusTooManyRequests, "rate limit exceeded", nil)
	return e.WithDetails("limit", limit).WithDetails("window", window)
}

// Internal reports an unexpected server-side failure.
func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// GetServiceError extracts a ServiceError from err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
