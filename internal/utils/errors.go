// internal/utils/errors.go
package utils

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/catalog-api/internal/i18n"
)

// AppError is the error type services hand back to handlers. Status and Code
// decide the HTTP response; Key selects the translated message when Message
// is empty.
type AppError struct {
	Status     int
	Code       string
	Key        string
	Args       []interface{}
	Message    string
	Details    interface{}
	RetryAfter int
	Err        error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = i18n.T("en", e.Key, e.Args...)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) localized(lang string) string {
	if e.Message != "" {
		return e.Message
	}
	return i18n.T(lang, e.Key, e.Args...)
}

func NewValidationError(fields ...ValidationError) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Key:     i18n.KeyValidationInvalid,
		Args:    []interface{}{"input"},
		Details: fields,
	}
}

func NewBadRequestError(key string, args ...interface{}) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Key: key, Args: args}
}

func NewUnauthorizedError(key string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Key: key}
}

func NewForbiddenError() *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "FORBIDDEN", Key: i18n.KeyAdminAccessDenied}
}

func NewNotFoundError(key string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "NOT_FOUND", Key: key}
}

func NewConflictError(key string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "CONFLICT", Key: key}
}

func NewThrottledError(retryAfter int) *AppError {
	return &AppError{
		Status:     http.StatusTooManyRequests,
		Code:       "THROTTLED",
		Key:        i18n.KeyThrottled,
		Args:       []interface{}{retryAfter},
		RetryAfter: retryAfter,
	}
}

func NewTransientError(err error) *AppError {
	return &AppError{
		Status: http.StatusServiceUnavailable,
		Code:   "SERVICE_UNAVAILABLE",
		Key:    i18n.KeyServiceUnavailable,
		Err:    err,
	}
}

// IsTransient reports whether err came from an expired deadline or a lost
// connection to the store or cache.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code == "SERVICE_UNAVAILABLE" {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StoreError classifies a raw store error: transient failures become 503s,
// anything else is wrapped with the operation name.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if IsTransient(err) {
		return NewTransientError(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// HandleError writes the response for err. Unknown errors are logged and
// reported as 500 without leaking their text.
func HandleError(c *gin.Context, err error) {
	lang := GetLangFromContext(c)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled error")
		ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", i18n.T(lang, i18n.KeyInternalError), nil)
		return
	}

	if appErr.Status >= http.StatusInternalServerError {
		logrus.WithError(appErr).WithField("path", c.Request.URL.Path).Warn("Request failed")
	}
	if appErr.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}

	ErrorResponse(c, appErr.Status, appErr.Code, appErr.localized(lang), appErr.Details)
}
