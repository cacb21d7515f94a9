package utils

import "errors"

// Stable machine-readable failure codes returned to callers.
const (
	CodeValidation        = "validation_error"
	CodeNotFound          = "not_found"
	CodeCapacityExhausted = "capacity_exhausted"
	CodeInvalidTransition = "invalid_transition"
	CodeOwnership         = "ownership_error"
	CodeUpload            = "upload_error"
)

// Error is a typed domain failure. Every recoverable failure detected inside
// a service is returned as one of these and resolved to an HTTP status at
// the handler boundary; nothing in the core retries or crashes on them.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func NewValidationError(msg string) error {
	return &Error{Code: CodeValidation, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func NewCapacityExhaustedError(msg string) error {
	return &Error{Code: CodeCapacityExhausted, Message: msg}
}

func NewInvalidTransitionError(msg string) error {
	return &Error{Code: CodeInvalidTransition, Message: msg}
}

func NewOwnershipError(msg string) error {
	return &Error{Code: CodeOwnership, Message: msg}
}

func NewUploadError(msg string) error {
	return &Error{Code: CodeUpload, Message: msg}
}

// AsError unwraps err into a typed domain Error, if it is one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether err is a domain Error carrying the given code.
func HasCode(err error, code string) bool {
	de, ok := AsError(err)
	return ok && de.Code == code
}
