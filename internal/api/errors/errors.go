// Package errors provides error handling and HTTP status code mapping.
package errors

import (
	"errors"
	"net/http"

	"github.com/remiblancher/qcert/internal/api/dto"
	"github.com/remiblancher/qcert/internal/cert"
)

// Error codes for API responses.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeValidation     = "VALIDATION_ERROR"
	CodeInvalidSAN     = "INVALID_SAN"
	CodeUnknownField   = "UNKNOWN_SUBJECT_FIELD"
	CodeNoKey          = "NO_KEY"
	CodeNotGenerated   = "NOT_GENERATED"
	CodeNotSigned      = "NOT_SIGNED"
	CodeKeyMismatch    = "KEY_MISMATCH"
	CodeInternal       = "INTERNAL_ERROR"
)

// MapError maps an internal error to an HTTP status code and APIError.
// State errors map to 409 and configuration errors to 400.
func MapError(err error) (int, *dto.APIError) {
	if err == nil {
		return http.StatusOK, nil
	}

	var details map[string]string
	var certErr *cert.Error
	if errors.As(err, &certErr) {
		details = map[string]string{"operation": certErr.Op}
		if certErr.Key != "" {
			details["field"] = certErr.Key
		}
	}

	switch {
	case errors.Is(err, cert.ErrNoKey):
		return http.StatusConflict, &dto.APIError{Code: CodeNoKey, Message: err.Error(), Details: details}
	case errors.Is(err, cert.ErrNotGenerated):
		return http.StatusConflict, &dto.APIError{Code: CodeNotGenerated, Message: err.Error(), Details: details}
	case errors.Is(err, cert.ErrNotSigned):
		return http.StatusConflict, &dto.APIError{Code: CodeNotSigned, Message: err.Error(), Details: details}
	case errors.Is(err, cert.ErrKeyMismatch):
		return http.StatusConflict, &dto.APIError{Code: CodeKeyMismatch, Message: err.Error(), Details: details}
	case errors.Is(err, cert.ErrUnknownSubjectField):
		return http.StatusBadRequest, &dto.APIError{Code: CodeUnknownField, Message: err.Error(), Details: details}
	case errors.Is(err, cert.ErrInvalidSAN):
		return http.StatusBadRequest, &dto.APIError{Code: CodeInvalidSAN, Message: err.Error(), Details: details}
	case cert.IsConfigurationError(err):
		return http.StatusBadRequest, &dto.APIError{Code: CodeValidation, Message: err.Error(), Details: details}
	}

	// Default internal error
	return http.StatusInternalServerError, &dto.APIError{
		Code:    CodeInternal,
		Message: "An internal error occurred",
		Details: details,
	}
}

// NewBadRequest creates a bad request error.
func NewBadRequest(message string) *dto.APIError {
	return &dto.APIError{
		Code:    CodeInvalidRequest,
		Message: message,
	}
}
