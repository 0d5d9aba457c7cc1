// ===============================
// FILE: internal/services/errors.go
// ===============================

package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ServiceError is the structured error every service returns. The
// HTTP layer maps StatusCode straight onto the response.
type ServiceError struct {
	Type       string                 `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Cause      error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status for the error.
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// ===============================
// ERROR TYPES
// ===============================

const (
	ErrTypeValidation    = "VALIDATION_ERROR"
	ErrTypeNotFound      = "NOT_FOUND"
	ErrTypeInvalidTarget = "INVALID_TARGET"
	ErrTypeUnauthorized  = "UNAUTHORIZED"
	ErrTypeForbidden     = "FORBIDDEN"
	ErrTypeConflict      = "CONFLICT"
	ErrTypeBusiness      = "BUSINESS_ERROR"
	ErrTypeRateLimit     = "RATE_LIMIT_EXCEEDED"
	ErrTypeInternal      = "INTERNAL_ERROR"
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// ValidationError carries per-field failures.
type ValidationError struct {
	*ServiceError
	Fields []FieldError `json:"fields,omitempty"`
}

// AuthorizationError carries the denied subject and action.
type AuthorizationError struct {
	*ServiceError
	UserID   int64  `json:"user_id,omitempty"`
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
}

// ===============================
// CONSTRUCTORS
// ===============================

// NewValidationError builds a 400 for malformed input.
func NewValidationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewFieldValidationError builds a 400 with per-field detail.
func NewFieldValidationError(message string, fields []FieldError) *ValidationError {
	return &ValidationError{
		ServiceError: &ServiceError{
			Type:       ErrTypeValidation,
			Message:    message,
			StatusCode: http.StatusBadRequest,
		},
		Fields: fields,
	}
}

// NewNotFoundError builds a 404.
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// EntityNotFoundError builds a 404 naming the entity.
func EntityNotFoundError(entityType string, id int64) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeNotFound,
		Message:    fmt.Sprintf("%s %d not found", entityType, id),
		StatusCode: http.StatusNotFound,
		Details:    map[string]interface{}{"entity": entityType, "id": id},
	}
}

// NewInvalidTargetError builds a 422 for a structurally valid request
// aimed at an entity that cannot accept it, such as replying on top of
// the wrong hierarchy level.
func NewInvalidTargetError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeInvalidTarget,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewUnauthorizedError builds a 401.
func NewUnauthorizedError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError builds a 403.
func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewAuthorizationError builds a 403 carrying the denied action.
func NewAuthorizationError(userID int64, resource, action string) *AuthorizationError {
	return &AuthorizationError{
		ServiceError: &ServiceError{
			Type:       ErrTypeForbidden,
			Message:    fmt.Sprintf("not allowed to %s this %s", action, resource),
			StatusCode: http.StatusForbidden,
		},
		UserID:   userID,
		Resource: resource,
		Action:   action,
	}
}

// NewConflictError builds a 409.
func NewConflictError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewBusinessError builds a 422 with a machine-readable code.
func NewBusinessError(message, code string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeBusiness,
		Message:    message,
		Code:       code,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewRateLimitError builds a 429.
func NewRateLimitError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewInternalError builds a 500 wrapping the cause.
func NewInternalError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       ErrTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ===============================
// HELPERS
// ===============================

// GetServiceError extracts a ServiceError from an error chain.
func GetServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.ServiceError, true
	}
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr.ServiceError, true
	}
	return nil, false
}

// IsErrorType reports whether err carries the given service error
// type.
func IsErrorType(err error, errType string) bool {
	if svcErr, ok := GetServiceError(err); ok {
		return svcErr.Type == errType
	}
	return false
}

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool {
	return IsErrorType(err, ErrTypeNotFound)
}

// IsInvalidTargetError reports whether err is an invalid-target error.
func IsInvalidTargetError(err error) bool {
	return IsErrorType(err, ErrTypeInvalidTarget)
}

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool {
	return IsErrorType(err, ErrTypeValidation)
}
