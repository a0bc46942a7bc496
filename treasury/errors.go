package treasury

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION"
	ErrParse      ErrorCode = "PARSE"
	ErrNetwork    ErrorCode = "NETWORK"
	ErrReadOnly   ErrorCode = "READ_ONLY"
	ErrInternal   ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable category and a human
// message. Protocol verdicts (hash mismatch etc.) are NOT errors; they are
// verify.Result values.
type CodedError struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.cause }

func newError(code ErrorCode, message string, cause error) *CodedError {
	return &CodedError{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the category of an error, ErrInternal if uncategorized.
func CodeOf(err error) ErrorCode {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrInternal
}
