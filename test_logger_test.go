package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/securetee/xtest/framework"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestConsoleTestLoggerPrintsDebugOutputOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{Output: &buf, DebugOutputOnFailure: true}
	id := framework.TestID{Path: []string{"regression_1000", "1004 Test User Crypt TA"}}
	var debug framework.CapturingLogger
	debug.Printf("out has an unexpected content:")

	logger.TestStarted(id)
	logger.TestError(id, errors.New("first line\nsecond line"))
	logger.TestFinished(id, true, debug.Output())

	out := buf.String()
	assert.Contains(t, out, "[regression_1000/1004 Test User Crypt TA]\n")
	assert.Contains(t, out, "  first line\n  second line\n")
	assert.Contains(t, out, "  FAILED: regression_1000/1004 Test User Crypt TA\n")
	assert.Contains(t, out, "    DEBUG [")
	assert.Contains(t, out, "] out has an unexpected content:\n")
}

func TestConsoleTestLoggerHidesDebugOutputOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := &ConsoleTestLogger{Output: &buf, DebugOutputOnFailure: true}
	id := framework.TestID{Path: []string{"a"}}
	var debug framework.CapturingLogger
	debug.Printf("details")

	logger.TestFinished(id, false, debug.Output())
	logger.TestSkipped(id, "pseudo TA not found")
	assert.Equal(t, "  SKIPPED: a (pseudo TA not found)\n", buf.String())
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, framework.Results{
		Tests: []framework.TestResult{{TestID: framework.TestID{Path: []string{"a"}}}},
	})
	assert.Equal(t, "All tests passed (1 tests)\n", buf.String())

	buf.Reset()
	failure := framework.TestResult{TestID: framework.TestID{Path: []string{"a"}}, Errors: []error{errors.New("case \"x\" failed")}}
	PrintResults(&buf, framework.Results{Tests: []framework.TestResult{failure}, Failures: []framework.TestResult{failure}})
	assert.Equal(t, "FAILED TESTS (1 of 1):\n* a\n  case \"x\" failed\n", buf.String())
}
