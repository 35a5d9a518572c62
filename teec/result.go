package teec

import (
	"errors"
	"fmt"
)

// Result is a result code returned by the secure environment or by the client itself.
type Result uint32

const (
	Success             Result = 0x00000000
	ErrorGeneric        Result = 0xFFFF0000
	ErrorAccessDenied   Result = 0xFFFF0001
	ErrorCancel         Result = 0xFFFF0002
	ErrorAccessConflict Result = 0xFFFF0003
	ErrorExcessData     Result = 0xFFFF0004
	ErrorBadFormat      Result = 0xFFFF0005
	ErrorBadParameters  Result = 0xFFFF0006
	ErrorBadState       Result = 0xFFFF0007
	ErrorItemNotFound   Result = 0xFFFF0008
	ErrorNotImplemented Result = 0xFFFF0009
	ErrorNotSupported   Result = 0xFFFF000A
	ErrorNoData         Result = 0xFFFF000B
	ErrorOutOfMemory    Result = 0xFFFF000C
	ErrorBusy           Result = 0xFFFF000D
	ErrorCommunication  Result = 0xFFFF000E
	ErrorSecurity       Result = 0xFFFF000F
	ErrorShortBuffer    Result = 0xFFFF0010
	ErrorTargetDead     Result = 0xFFFF3024

	ErrorStorageNotAvailable  Result = 0xF0100003
	ErrorStorageNotAvailable2 Result = 0xF0100004
)

var resultNames = map[Result]string{
	Success:                   "SUCCESS",
	ErrorGeneric:              "ERROR_GENERIC",
	ErrorAccessDenied:         "ERROR_ACCESS_DENIED",
	ErrorCancel:               "ERROR_CANCEL",
	ErrorAccessConflict:       "ERROR_ACCESS_CONFLICT",
	ErrorExcessData:           "ERROR_EXCESS_DATA",
	ErrorBadFormat:            "ERROR_BAD_FORMAT",
	ErrorBadParameters:        "ERROR_BAD_PARAMETERS",
	ErrorBadState:             "ERROR_BAD_STATE",
	ErrorItemNotFound:         "ERROR_ITEM_NOT_FOUND",
	ErrorNotImplemented:       "ERROR_NOT_IMPLEMENTED",
	ErrorNotSupported:         "ERROR_NOT_SUPPORTED",
	ErrorNoData:               "ERROR_NO_DATA",
	ErrorOutOfMemory:          "ERROR_OUT_OF_MEMORY",
	ErrorBusy:                 "ERROR_BUSY",
	ErrorCommunication:        "ERROR_COMMUNICATION",
	ErrorSecurity:             "ERROR_SECURITY",
	ErrorShortBuffer:          "ERROR_SHORT_BUFFER",
	ErrorTargetDead:           "ERROR_TARGET_DEAD",
	ErrorStorageNotAvailable:  "ERROR_STORAGE_NOT_AVAILABLE",
	ErrorStorageNotAvailable2: "ERROR_STORAGE_NOT_AVAILABLE_2",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", uint32(r))
}

// Origin tells which layer produced a Result.
type Origin uint32

const (
	OriginAPI        Origin = 1
	OriginComms      Origin = 2
	OriginTEE        Origin = 3
	OriginTrustedApp Origin = 4
)

func (o Origin) String() string {
	switch o {
	case OriginAPI:
		return "API"
	case OriginComms:
		return "COMMS"
	case OriginTEE:
		return "TEE"
	case OriginTrustedApp:
		return "TRUSTED_APP"
	}
	return fmt.Sprintf("origin(%d)", uint32(o))
}

// Error is returned by every client call that did not end in Success. Err is set when the
// request never got a response from the secure environment.
type Error struct {
	Result Result
	Origin Origin
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (origin %s): %s", e.Result, e.Origin, e.Err)
	}
	return fmt.Sprintf("%s (origin %s)", e.Result, e.Origin)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ResultOf extracts the result code and origin from the error returned by a client call. A
// nil error is Success from the trusted application; an error that is not an *Error is
// reported as ErrorGeneric from the API layer.
func ResultOf(err error) (Result, Origin) {
	if err == nil {
		return Success, OriginTrustedApp
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Result, e.Origin
	}
	return ErrorGeneric, OriginAPI
}

func commsError(format string, args ...interface{}) error {
	return &Error{Result: ErrorCommunication, Origin: OriginComms, Err: fmt.Errorf(format, args...)}
}

func apiError(result Result, format string, args ...interface{}) error {
	return &Error{Result: result, Origin: OriginAPI, Err: fmt.Errorf(format, args...)}
}
