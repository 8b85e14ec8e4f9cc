package workflow

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidState = "INVALID_STATE"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeCapacity     = "CAPACITY_EXHAUSTED"
)

// ErrVersionConflict is returned by a Store when a save loses an optimistic
// concurrency check against a stale version.
var ErrVersionConflict = errors.New("record version conflict")

type Error struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is a workflow error carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *Error
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func validationError(message string, details any) *Error {
	return &Error{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Message: message, Details: details}
}

func invalidStateError(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeInvalidState, Message: message}
}

func notFoundError(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func conflictError(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

func capacityError(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeCapacity, Message: message}
}
