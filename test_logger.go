package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/securetee/xtest/framework"

	"github.com/fatih/color"
)

var (
	passedLabel  = color.New(color.FgGreen).SprintFunc()
	failedLabel  = color.New(color.FgRed, color.Bold).SprintFunc()
	skippedLabel = color.New(color.FgYellow).SprintFunc()
)

// ConsoleTestLogger reports test progress on a terminal. Debug output is held by each test
// until it finishes, and is then printed or discarded depending on the test result.
type ConsoleTestLogger struct {
	Output               io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	fmt.Fprintf(c.Output, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.Output, "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		fmt.Fprintf(c.Output, "  %s: %s\n", failedLabel("FAILED"), id)
	} else if c.DebugOutputOnSuccess {
		fmt.Fprintf(c.Output, "  %s: %s\n", passedLabel("PASSED"), id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.Output, "    DEBUG ")
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		fmt.Fprintf(c.Output, "  %s: %s\n", skippedLabel("SKIPPED"), id)
	} else {
		fmt.Fprintf(c.Output, "  %s: %s (%s)\n", skippedLabel("SKIPPED"), id, reason)
	}
}

// PrintResults writes a summary of a test run, listing every failed test.
func PrintResults(out io.Writer, results framework.Results) {
	if results.OK() {
		fmt.Fprintf(out, "%s (%d tests)\n", passedLabel("All tests passed"), results.Count())
		return
	}
	fmt.Fprintf(out, "%s\n", failedLabel(fmt.Sprintf("FAILED TESTS (%d of %d):", len(results.Failures), results.Count())))
	for _, f := range results.Failures {
		fmt.Fprintf(out, "* %s\n", f.TestID)
		for _, err := range f.Errors {
			fmt.Fprintf(out, "  %s\n", err)
		}
	}
}
