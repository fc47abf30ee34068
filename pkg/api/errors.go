package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeUnauthenticated covers requests with no or garbled credentials.
	ErrorTypeUnauthenticated ErrorType = "unauthenticated"

	// ErrorTypeUnauthorized covers a wrong password at login, before any
	// session exists.
	ErrorTypeUnauthorized ErrorType = "unauthorized"

	// ErrorTypeForbidden covers invalid or expired session tokens.
	ErrorTypeForbidden ErrorType = "forbidden"

	// ErrorTypeNotFound covers missing resources. Cross-tenant lookups are
	// deliberately reported as not found to avoid leaking resource existence.
	ErrorTypeNotFound ErrorType = "not_found"

	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeServerError    ErrorType = "server_error"
)

// APIError represents a structured API error with type, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level
// error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewUnauthenticatedError creates an APIError for requests lacking credentials.
func NewUnauthenticatedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthenticated, Message: message}
}

// NewUnauthorizedError creates an APIError for rejected login credentials.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewForbiddenError creates an APIError for invalid or expired tokens.
func NewForbiddenError(message string) *APIError {
	return &APIError{Type: ErrorTypeForbidden, Message: message}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{Type: ErrorTypeNotFound, Message: message}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{Type: ErrorTypeInvalidRequest, Param: param, Message: message}
}

// NewServerError creates an APIError for internal failures. Details stay in
// the server log; the message here is all the caller sees.
func NewServerError(message string) *APIError {
	return &APIError{Type: ErrorTypeServerError, Message: message}
}
