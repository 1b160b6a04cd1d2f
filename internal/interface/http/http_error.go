package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/solarinfra/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var codeStatus = map[string]int{
	apperrors.CodeInvalidInput:      http.StatusBadRequest,
	apperrors.CodeInvalidTransition: http.StatusBadRequest,
	"invalid_request":               http.StatusBadRequest,
	apperrors.CodeUnauthorized:      http.StatusUnauthorized,
	"invalid_credentials":           http.StatusUnauthorized,
	apperrors.CodePaymentFailed:     http.StatusPaymentRequired,
	apperrors.CodeForbidden:         http.StatusForbidden,
	apperrors.CodeInvalidToken:      http.StatusForbidden,
	apperrors.CodeNotFound:          http.StatusNotFound,
	"user_not_found":                http.StatusNotFound,
	apperrors.CodeConflict:          http.StatusConflict,
	apperrors.CodeOutOfStock:        http.StatusConflict,
	"email_exists":                  http.StatusConflict,
	"account_linking_disabled":      http.StatusConflict,
	apperrors.CodeDivisionUndefined: http.StatusUnprocessableEntity,
	apperrors.CodeUnsupportedPanel:  http.StatusUnprocessableEntity,
	apperrors.CodeMediaError:        http.StatusBadGateway,
	"oauth_exchange_failed":         http.StatusBadGateway,
	apperrors.CodeMediaDisabled:     http.StatusServiceUnavailable,
	"auth_not_configured":           http.StatusServiceUnavailable,
}

// fromAppError maps a domain error to its response. Only the outer message reaches the client.
func fromAppError(err error) *HTTPError {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return asHTTPError(err)
	}
	status, ok := codeStatus[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := appErr.Message
	if status >= http.StatusInternalServerError && appErr.Code == apperrors.CodeStorage {
		message = "storage is temporarily unavailable"
	}
	return NewHTTPError(status, appErr.Code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// fail aborts with the response mapped from a domain error.
func fail(c *gin.Context, err error) {
	abortWithError(c, fromAppError(err))
}

func badRequest(c *gin.Context, err error) {
	abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
