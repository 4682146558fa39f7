package apperror

import "errors"

type Code string

const (
	CodeValidation          Code = "validation"
	CodeAuthorization       Code = "authorization"
	CodeInsufficientBalance Code = "insufficient_balance"
	CodeExternalSource      Code = "external_source"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeInternal            Code = "internal"
)

// Error is a domain failure tagged with the category the boundary reports it as.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap tags err with code. The wrapped error stays reachable through errors.Is.
func Wrap(code Code, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Coder is implemented by error types outside this package that carry a code,
// such as validator.ValidationErrors.
type Coder interface {
	AppCode() Code
}

func GetCode(err error) Code {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	var coder Coder
	if errors.As(err, &coder) {
		return coder.AppCode()
	}

	return CodeInternal
}

func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}
