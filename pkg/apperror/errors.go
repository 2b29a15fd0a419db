package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independently of the transport.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindDuplicateClient   Kind = "duplicate_client"
	KindInvalidMergeState Kind = "invalid_merge_state"
	KindInvalidInput      Kind = "invalid_input"
	KindTransientIO       Kind = "transient_io"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	cause   error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches errors of the same kind, so errors.Is(err, ErrNotFound) works for any not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrInsufficientStock  = &AppError{Code: http.StatusConflict, Kind: KindInsufficientStock, Message: "Insufficient stock"}
	ErrDuplicateClient    = &AppError{Code: http.StatusConflict, Kind: KindDuplicateClient, Message: "Client already has an open table"}
	ErrInvalidMergeState  = &AppError{Code: http.StatusConflict, Kind: KindInvalidMergeState, Message: "Invalid merge state"}
	ErrInvalidInput       = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInvalidInput, Message: "Invalid input"}
	ErrTransientIO        = &AppError{Code: http.StatusServiceUnavailable, Kind: KindTransientIO, Message: "Store unavailable"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Resource already exists"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid name or PIN"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInvalidInput,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindInvalidInput,
		Message: message,
	}
}

// NewInvalidInputError reports a rejected amount, quantity or empty required field.
func NewInvalidInputError(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInsufficientStockError names the item and both quantities involved.
func NewInsufficientStockError(item string, available, required float64) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %q: available %s, required %s", item, formatQty(available), formatQty(required)),
	}
}

// NewDuplicateClientError reports an open table already registered for the client.
func NewDuplicateClientError(clientName string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindDuplicateClient,
		Message: fmt.Sprintf("Client %q already has an open table", clientName),
	}
}

// NewInvalidMergeStateError reports a merge or split that the table state does not allow.
func NewInvalidMergeStateError(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindInvalidMergeState,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewTransientError wraps a store failure and names the step that failed.
func NewTransientError(step string, cause error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindTransientIO,
		Message: "Store unavailable while trying to " + step,
		cause:   cause,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
	}
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalidInput
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusServiceUnavailable:
		return KindTransientIO
	default:
		return KindInternal
	}
}

func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
