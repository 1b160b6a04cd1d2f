package errors

import "errors"

// Shared error codes understood by the HTTP layer.
const (
	CodeInvalidInput      = "invalid_input"
	CodeNotFound          = "not_found"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeStorage           = "storage_error"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidToken      = "invalid_token"
	CodeConflict          = "conflict"
	CodeOutOfStock        = "out_of_stock"
	CodeDivisionUndefined = "division_undefined"
	CodeUnsupportedPanel  = "unsupported_panel"
	CodeMediaDisabled     = "media_disabled"
	CodeMediaError        = "media_error"
	CodePaymentFailed     = "payment_failed"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the outermost AppError code, or "" when err carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
