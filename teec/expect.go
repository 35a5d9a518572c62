package teec

import (
	"errors"

	"github.com/securetee/xtest/adbg"
)

// ExpectSuccess checks that a client call returned no error. On failure the result code is
// reported like any other mismatched value, followed by the transport error if there was one.
func ExpectSuccess(c *adbg.Case, err error, expr string) bool {
	c.Helper()
	result, _ := ResultOf(err)
	if !c.Expect(int64(Success), int64(result), expr) {
		logCause(c, err)
		return false
	}
	return true
}

// ExpectResult checks that a client call failed with a specific result code.
func ExpectResult(c *adbg.Case, expected Result, err error, expr string) bool {
	c.Helper()
	result, _ := ResultOf(err)
	if !c.Expect(int64(expected), int64(result), expr) {
		logCause(c, err)
		return false
	}
	return true
}

// ExpectOrigin checks which layer produced the result of a client call.
func ExpectOrigin(c *adbg.Case, expected Origin, err error, expr string) bool {
	c.Helper()
	_, origin := ResultOf(err)
	return c.Expect(int64(expected), int64(origin), expr)
}

func logCause(c *adbg.Case, err error) {
	if cause := errors.Unwrap(err); cause != nil {
		c.Log("  %s", cause)
	}
}
