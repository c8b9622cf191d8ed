package apierror

import (
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeMissingToken       = "MISSING_TOKEN"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIError struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status maps the kind to an HTTP status. Conflicts surface as 404 so callers
// cannot probe for the existence of records they may not act on.
func (e *APIError) Status() int {
	if e == nil {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound, KindConflict:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WithCause attaches an underlying error for logging; it is never sent to clients.
func (e *APIError) WithCause(err error) *APIError {
	clone := *e
	clone.Err = err
	return &clone
}

func New(kind Kind, code string, message string) *APIError {
	return &APIError{Kind: kind, Code: code, Message: message}
}

func Validation(message string, fields ...FieldError) *APIError {
	return &APIError{Kind: KindValidation, Code: CodeValidation, Message: message, Fields: fields}
}

func Authentication(code string, message string) *APIError {
	return New(KindAuthentication, code, message)
}

func Authorization(code string, message string) *APIError {
	return New(KindAuthorization, code, message)
}

func NotFound(message string) *APIError {
	return New(KindNotFound, CodeNotFound, message)
}

func Conflict(message string) *APIError {
	return New(KindConflict, CodeConflict, message)
}

func Internal(err error) *APIError {
	return &APIError{Kind: KindInternal, Code: CodeInternal, Message: "internal server error", Err: err}
}
