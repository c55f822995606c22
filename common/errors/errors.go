package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code and message, so the
// sentinel values below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation is a 400 for malformed or missing input.
func Validation(message string, details any) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message, Details: details}
}

// InvalidSignature is a 400 for callbacks whose signature does not verify.
func InvalidSignature(err error) *Error {
	return New(http.StatusBadRequest, "Invalid webhook signature", err)
}

// Unauthenticated is a 401 for a missing or invalid credential.
func Unauthenticated(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

// Unauthorized is returned when the identity is valid but does not own the
// resource. The status stays 401 to match what existing clients expect.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message, nil)
}

// Gateway wraps a failure of an external service (payment, media host).
func Gateway(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Common error values, usable with errors.Is
var (
	ErrRestaurantNotFound = NotFound("Restaurant not found")
	ErrUserNotFound       = NotFound("User not found")
	ErrOrderNotFound      = NotFound("Order not found")
	ErrMenuItemNotFound   = NotFound("Menu item not found")
	ErrRestaurantExists   = Conflict("You already have a restaurant")
	ErrNotOrderOwner      = Unauthorized("Not the owner of this order's restaurant")
)

// StatusCode returns the HTTP status for err, 500 for anything that is not an *Error.
func StatusCode(err error) int {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// Write renders err as a JSON body with a stable message field. Causes wrapped
// inside an *Error are never sent to the client.
func Write(c *gin.Context, err error) {
	var appErr *Error
	if !stderrors.As(err, &appErr) {
		appErr = Internal("Internal server error", err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, appErr)
}
