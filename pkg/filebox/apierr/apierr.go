// Package apierr defines the error kinds surfaced to API callers and their
// mapping onto HTTP responses.
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an Error
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindAccessDenied
	KindNotFound
)

// Error is an error a caller is expected to handle, as opposed to an
// infrastructure failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches sentinel errors of the same kind, so that
// errors.Is(apierr.NotFound("this file does not exist"), apierr.ErrNotFound)
// holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks against each kind.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "you must be logged in"}
	ErrAccessDenied    = &Error{Kind: KindAccessDenied, Message: "you do not have access to this org"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
)

// Unauthenticated reports a caller without a valid identity.
func Unauthenticated(message string) error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// AccessDenied reports a caller outside the requested org.
func AccessDenied(message string) error {
	return &Error{Kind: KindAccessDenied, Message: message}
}

// NotFound reports a missing user or file.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Status returns the HTTP status code for err
func Status(err error) int {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAccessDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body. Errors that are not *Error are
// logged and replaced with a generic message.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
