package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ErrorKind classifies failures so handlers can pick a status without string matching.
type ErrorKind string

const (
	KindInvalidInput          ErrorKind = "invalid_input"
	KindConflict              ErrorKind = "conflict"
	KindNotFound              ErrorKind = "not_found"
	KindUnauthorized          ErrorKind = "unauthorized"
	KindForbidden             ErrorKind = "forbidden"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	KindInternal              ErrorKind = "internal"
)

// AppError carries a kind, a client-safe message and the underlying cause.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(kind ErrorKind, err error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func InvalidInput(format string, args ...any) *AppError {
	return newAppError(KindInvalidInput, nil, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return newAppError(KindConflict, nil, format, args...)
}

func NotFound(format string, args ...any) *AppError {
	return newAppError(KindNotFound, nil, format, args...)
}

func Unauthorized(format string, args ...any) *AppError {
	return newAppError(KindUnauthorized, nil, format, args...)
}

func Forbidden(format string, args ...any) *AppError {
	return newAppError(KindForbidden, nil, format, args...)
}

func Unavailable(err error, format string, args ...any) *AppError {
	return newAppError(KindDependencyUnavailable, err, format, args...)
}

// KindOf returns the kind of the first AppError in the chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error kind onto a response status.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// MongoError translates a driver error into an AppError. what names the record for messages.
func MongoError(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return newAppError(KindNotFound, err, "%s not found", what)
	case mongo.IsDuplicateKeyError(err):
		return newAppError(KindConflict, err, "%s already exists", what)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, context.DeadlineExceeded):
		return newAppError(KindDependencyUnavailable, err, "storage unavailable while accessing %s", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	Logger := GetLogger()
	Logger.Warn(message, zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}

// RespondError writes err as a JSON response. Unclassified errors never leak their text.
func RespondError(c *gin.Context, err error) {
	kind := KindOf(err)
	status := HTTPStatus(kind)
	logger := GetLogger().With(zap.String("path", c.FullPath()), zap.String("kind", string(kind)))

	if kind == KindInternal {
		logger.Error("request failed", zap.Error(err))
		c.AbortWithStatusJSON(status, ErrorResponse{Message: "Internal Server Error"})
		return
	}

	var appErr *AppError
	errors.As(err, &appErr)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Error(err))
	}
	resp := ErrorResponse{Message: appErr.Message, Code: string(kind)}
	if kind == KindDependencyUnavailable {
		c.Header("Retry-After", "5")
	}
	c.AbortWithStatusJSON(status, resp)
}
