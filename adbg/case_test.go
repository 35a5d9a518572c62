package adbg_test

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/securetee/xtest/adbg"
	"github.com/securetee/xtest/framework"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCase(label string) (*adbg.Case, *framework.CapturingLogger) {
	logger := &framework.CapturingLogger{}
	return adbg.NewCase(label, logger), logger
}

func here() int {
	_, _, line, _ := runtime.Caller(1)
	return line
}

func TestEqualValuesPassWithoutOutput(t *testing.T) {
	c, logger := newCase("x")
	assert.True(t, c.Expect(5, 5, "v"))
	assert.True(t, c.Passed())
	assert.Len(t, logger.Output(), 0)
}

func TestMismatchLatchesAndLogsEachFailure(t *testing.T) {
	c, logger := newCase("x")
	assert.False(t, c.Expect(5, 6, "v"))
	assert.False(t, c.Passed())
	assert.False(t, c.Expect(7, 8, "w"))
	assert.False(t, c.Passed())
	assert.True(t, c.Expect(1, 1, "u"))
	assert.False(t, c.Passed())
	assert.Len(t, logger.Output(), 2)
}

func TestFailureLineIncludesCallSite(t *testing.T) {
	c, logger := newCase("x")
	line := here() + 1
	c.Expect(0x10, 0x2a, "res")

	messages := logger.Output().Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, fmt.Sprintf("case_test.go:%d: res has an unexpected value: 0x2a, expected 0x10", line), messages[0])
}

func expectAnswer(c *adbg.Case, got int64) bool {
	c.Helper()
	return c.Expect(42, got, "answer")
}

func TestHelperFramesAreSkipped(t *testing.T) {
	c, logger := newCase("x")
	line := here() + 1
	expectAnswer(c, 41)

	messages := logger.Output().Messages()
	require.Len(t, messages, 1)
	assert.True(t, strings.HasPrefix(messages[0], fmt.Sprintf("case_test.go:%d: answer ", line)), messages[0])
}

func TestConcreteScenario(t *testing.T) {
	c, logger := newCase("X")
	assert.True(t, c.Expect(5, 5, "a"))
	assert.False(t, c.Expect(5, 6, "b"))
	assert.True(t, c.Expect(1, 1, "c"))

	spy := &spyT{}
	c.Finalize(spy)
	assert.True(t, spy.failedNow)

	messages := logger.Output().Messages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "b has an unexpected value: 0x6, expected 0x5")
	assert.Equal(t, "--== X Failed ==--", messages[1])
}

func TestPassingCaseFinalizesSilently(t *testing.T) {
	c, logger := newCase("ok")
	c.Expect(1, 1, "a")
	spy := &spyT{}
	c.Finalize(spy)
	assert.False(t, spy.failedNow)
	assert.Len(t, spy.errors, 0)
	assert.Equal(t, []string{"--== ok Passed ==--"}, logger.Output().Messages())
}

func TestOnlyFirstFinalizeReports(t *testing.T) {
	c, logger := newCase("x")
	c.Expect(1, 2, "a")
	spy := &spyT{}
	c.Finalize(spy)
	c.Finalize(spy)
	assert.Len(t, spy.errors, 1)
	assert.Len(t, logger.Output(), 2)
}

func TestFinalizeWithNilHostOnlyLogs(t *testing.T) {
	c, logger := newCase("x")
	c.ExpectTrue(false, "flag")
	c.Finalize(nil)
	assert.True(t, logger.Output().Contains("--== x Failed ==--"))
}

func TestFinalizeAbortsHostTest(t *testing.T) {
	reachedEnd := false
	results := framework.Run(nil, nil, func(ctx *framework.Context) {
		ctx.Run("case", func(ctx *framework.Context) {
			c := adbg.NewCase("x", ctx.DebugLogger())
			c.Expect(1, 2, "a")
			c.Finalize(ctx)
			reachedEnd = true
		})
	})
	assert.False(t, reachedEnd)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "case", results.Failures[0].TestID.String())
	assert.Contains(t, results.Failures[0].Errors[0].Error(), `case "x" failed`)
}

func TestPanicAfterFailureKeepsPanicValue(t *testing.T) {
	var output framework.CapturedOutput
	results := framework.Run(nil, nil, func(ctx *framework.Context) {
		ctx.Run("case", func(ctx *framework.Context) {
			ctx.Defer(func() { output = ctx.DebugLogger().(*framework.CapturingLogger).Output() })
			c := adbg.NewCase("x", ctx.DebugLogger())
			defer c.Finalize(ctx)
			c.Expect(1, 2, "a")
			var m map[string]int
			m["k"] = 1
		})
	})
	require.Len(t, results.Failures, 1)
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "assignment to entry in nil map")
	assert.True(t, output.Contains("x panicked: assignment to entry in nil map"))
	assert.True(t, output.Contains("--== x Failed ==--"))
}

func TestPanicInPassingCaseIsReportedAsFailure(t *testing.T) {
	var output framework.CapturedOutput
	results := framework.Run(nil, nil, func(ctx *framework.Context) {
		ctx.Run("case", func(ctx *framework.Context) {
			ctx.Defer(func() { output = ctx.DebugLogger().(*framework.CapturingLogger).Output() })
			c := adbg.NewCase("y", ctx.DebugLogger())
			defer c.Finalize(ctx)
			panic("boom")
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic in test: boom")
	assert.False(t, output.Contains("--== y Passed ==--"))
	assert.True(t, output.Contains("--== y Failed ==--"))
}

func TestHostSkipPassesThroughFinalize(t *testing.T) {
	logger := &framework.RecordingTestLogger{}
	var output framework.CapturedOutput
	results := framework.Run(nil, logger, func(ctx *framework.Context) {
		ctx.Run("case", func(ctx *framework.Context) {
			ctx.Defer(func() { output = ctx.DebugLogger().(*framework.CapturingLogger).Output() })
			c := adbg.NewCase("z", ctx.DebugLogger())
			defer c.Finalize(ctx)
			ctx.SkipWithReason("not here")
		})
	})
	assert.True(t, results.OK())
	assert.Contains(t, logger.Events, "skipped case (not here)")
	assert.Len(t, output, 0)
}

func TestFinalizeWithTypedNilHostOnlyLogs(t *testing.T) {
	c, logger := newCase("x")
	c.ExpectTrue(false, "flag")
	var host *framework.Context
	assert.NotPanics(t, func() { c.Finalize(host) })
	assert.True(t, logger.Output().Contains("--== x Failed ==--"))
}

func TestSubcasesNeverChangeResult(t *testing.T) {
	c, logger := newCase("x")
	c.BeginSubcase("outer %d", 1)
	c.BeginSubcase("inner")
	c.EndSubcase("inner")
	c.EndSubcase("outer %d", 1)
	assert.True(t, c.Passed())

	c.BeginSubcase("failing")
	c.Expect(1, 2, "a")
	c.EndSubcase("failing")
	c.BeginSubcase("passing")
	c.EndSubcase("passing")
	assert.False(t, c.Passed())

	messages := logger.Output().Messages()
	assert.Equal(t, "Begin subcase -- outer 1", messages[0])
	assert.Equal(t, "  Begin subcase -- inner", messages[1])
	assert.Equal(t, "  End subcase -- inner", messages[2])
	assert.Equal(t, "End subcase -- outer 1", messages[3])
}

func TestUnbalancedEndSubcaseDoesNotIndentNegatively(t *testing.T) {
	c, logger := newCase("x")
	c.EndSubcase("stray")
	c.BeginSubcase("next")
	assert.Equal(t, []string{"End subcase -- stray", "Begin subcase -- next"}, logger.Output().Messages())
}

func TestNilLoggerDiscardsOutput(t *testing.T) {
	c := adbg.NewCase("x", nil)
	assert.False(t, c.Expect(1, 2, "a"))
	c.Log("hello")
	c.HexLog([]byte("abc"))
	assert.False(t, c.Passed())
	assert.Equal(t, "x", c.Label())
}

func TestSharedCaseConcurrentUse(t *testing.T) {
	logger := &framework.CapturingLogger{}
	c := adbg.NewSharedCase("shared", logger)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Expect(int64(i), int64(i), "i")
			c.ExpectBuffer([]byte{1}, []byte{2}, "buf")
		}(i)
	}
	wg.Wait()
	assert.False(t, c.Passed())

	// Each buffer failure is five lines: the message, Got:, one row, Expected:, one row.
	messages := logger.Output().Messages()
	require.Len(t, messages, 8*5)
	for i := 0; i < len(messages); i += 5 {
		assert.Contains(t, messages[i], "buf has an unexpected content:")
		assert.Equal(t, "Got:", messages[i+1])
		assert.Equal(t, "Expected:", messages[i+3])
	}
}

type spyT struct {
	errors    []string
	failedNow bool
}

func (s *spyT) Errorf(format string, args ...interface{}) {
	s.errors = append(s.errors, fmt.Sprintf(format, args...))
}

func (s *spyT) FailNow() {
	s.failedNow = true
}
