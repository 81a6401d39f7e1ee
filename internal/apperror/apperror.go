// Package apperror defines the platform's status code taxonomy and the
// structured error type carried from services to the HTTP boundary.
//
// Codes are grouped in reserved numeric ranges:
//
//	200        success
//	1-49       login
//	50-100     token
//	500-999    parameter
//	1000-1999  data
//	3000-3500  permission
//
// DataNotExist shares the value 1002 with UnselectedFile. External consumers
// depend on the exact values, so the collision is kept; the two codes differ
// only by message.
package apperror

import (
	"errors"
	"net/http"
)

// Code is one entry of the status taxonomy.
type Code struct {
	Value   int
	Message string
}

var (
	Success = Code{200, "operation succeeded"}

	NeedLogin          = Code{1, "login required"}
	LoginPasswordError = Code{2, "wrong password"}

	TokenInvalid = Code{50, "invalid token"}
	TokenExpire  = Code{51, "token expired"}
	TokenRequire = Code{52, "token is required"}

	ParamRequire          = Code{500, "missing parameter"}
	ParamInvalid          = Code{501, "invalid parameter"}
	ParamImageFormatError = Code{502, "invalid image format"}
	ServerError           = Code{503, "internal server error"}

	DataExist      = Code{1000, "data already exists"}
	OverSize       = Code{1001, "file size must not exceed 3M"}
	UnselectedFile = Code{1002, "no file selected"}
	ReadExcelError = Code{1003, "failed to read excel file"}
	DataNotExist   = Code{1002, "data does not exist"}

	NoOperatorAuth = Code{3000, "operation not permitted"}
	NeedAdmin      = Code{3001, "administrator permission required"}
	FileTypeError  = Code{3002, "file type error"}
)

// HTTPStatus maps a code to the transport status used for responses.
func (c Code) HTTPStatus() int {
	switch {
	case c == Success:
		return http.StatusOK
	case c == ServerError:
		return http.StatusInternalServerError
	case c == DataNotExist:
		return http.StatusNotFound
	case c == OverSize:
		return http.StatusRequestEntityTooLarge
	case c == FileTypeError:
		return http.StatusUnsupportedMediaType
	case c.Value >= 1 && c.Value <= 100:
		return http.StatusUnauthorized
	case c.Value >= 3000 && c.Value <= 3500:
		return http.StatusForbidden
	case c.Value >= 500 && c.Value < 2000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure tagged with a taxonomy code. It may wrap the underlying
// cause, which is never shown to clients.
type Error struct {
	Code Code
	Err  error
}

// New returns an error carrying only a code.
func New(code Code) error {
	return &Error{Code: code}
}

// Wrap tags err with code.
func Wrap(code Code, err error) error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code.Message + ": " + e.Err.Error()
	}
	return e.Code.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the taxonomy code from err. Errors that were not tagged are
// reported as ServerError; nil is Success.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ServerError
}

// Is reports whether err carries code. Codes are compared by value and
// message, so UnselectedFile and DataNotExist stay distinguishable in-process.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
