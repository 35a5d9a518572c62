// Package teec is the client side of the secure environment: it opens sessions with trusted
// applications, invokes their commands with up to four typed parameters, and registers shared
// memory. Requests go over HTTP to a client service that holds the real connection.
//
// Every call returns a nil error on success. Otherwise the error is an *Error carrying the
// result code and the layer it came from; ResultOf extracts both, and ExpectSuccess,
// ExpectResult, and ExpectOrigin check them against an adbg.Case.
package teec
