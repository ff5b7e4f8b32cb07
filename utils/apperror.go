package utils

import "net/http"

// ErrorKind identifies one branch of the error taxonomy. The HTTP boundary
// maps each kind to exactly one status code.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation_error"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindBusinessRule    ErrorKind = "business_rule_violation"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindForbidden       ErrorKind = "forbidden"
	KindExternalService ErrorKind = "external_service_error"
	KindInternal        ErrorKind = "server_error"
)

type AppError struct {
	Kind    ErrorKind   `json:"type"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewConflictError(msg string, details interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: msg, Details: details}
}

func NewBusinessRuleError(msg string) *AppError {
	return &AppError{Kind: KindBusinessRule, Message: msg}
}

func NewUnauthorizedError(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

func NewForbiddenError(msg string) *AppError {
	return &AppError{Kind: KindForbidden, Message: msg}
}

func NewExternalServiceError(msg string) *AppError {
	return &AppError{Kind: KindExternalService, Message: msg}
}

func NewInternalError(msg string) *AppError {
	return &AppError{Kind: KindInternal, Message: msg}
}

// HTTPStatus -> status code untuk setiap kind
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBusinessRule:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
