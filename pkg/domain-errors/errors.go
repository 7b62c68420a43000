// Package domainerrors provides coded errors shared across fabula. Every
// expected failure carries a stable wire code that handlers surface verbatim
// to clients; the HTTP status is derived from the code in one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, client-visible error code.
type Code string

const (
	// Generic codes.
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_error"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	// CodeInternal maps to the wire code "server_error". Messages attached
	// to it are for logs only and are never echoed to clients.
	CodeInternal Code = "server_error"

	// Authentication gate codes.
	CodeNoAuthHeader        Code = "no_auth_header"
	CodeEmptyToken          Code = "empty_token"
	CodeServerConfig        Code = "server_config_error"
	CodeInvalidToken        Code = "invalid_token"
	CodeTokenExpired        Code = "token_expired"
	CodeInvalidTokenPayload Code = "invalid_token_payload"
	CodeUserNotFound        Code = "user_not_found"
	CodeAuthRequired        Code = "auth_required"
	CodeAdminAccessDenied   Code = "admin_access_denied"

	// Domain codes.
	CodeNameTaken          Code = "name_taken"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeInvalidOTP         Code = "invalid_otp"
	CodeAlreadyRated       Code = "already_rated"
	CodeAlreadyCommented   Code = "already_commented"
	CodeAlreadyBookmarked  Code = "already_bookmarked"
)

// Error is a coded error. Message is safe for clients unless the code is
// internal; cause is retained for logs and errors.Is/As chains.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without an underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// Is is a convenience alias for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal so that
// unclassified failures never leak detail.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the client-safe message from err. Internal and
// configuration failures get a fixed message regardless of their cause.
func MessageOf(err error) string {
	code := CodeOf(err)
	if code == CodeInternal {
		return "internal server error"
	}
	if code == CodeServerConfig {
		return "server configuration error"
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return "internal server error"
}

// ToHTTPStatus maps a code to its HTTP response status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation, CodeInvalidOTP:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeNoAuthHeader, CodeEmptyToken, CodeInvalidToken,
		CodeTokenExpired, CodeInvalidTokenPayload, CodeUserNotFound,
		CodeAuthRequired, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden, CodeAdminAccessDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeNameTaken, CodeAlreadyRated, CodeAlreadyCommented,
		CodeAlreadyBookmarked:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
