// Package framework contains the host test framework that the regression suites run in, plus
// the logging sinks shared by every other package.
//
// The general model is:
//
// 1. A Context is similar to Go's *testing.T, but is run as regular application code. It
// associates a piece of test logic with a test identifier, accumulates success/failure
// results, and implements require.TestingT so that a failure can abort only the current
// test.
//
// 2. Each Context has its own CapturingLogger for debug output. Everything a test logs,
// including the per-expectation diagnostics of the adbg package, goes there and is handed
// to the TestLogger when the test finishes.
//
// 3. OrderedQueue lets concurrent workers hand their results back to the goroutine that
// owns a test in a deterministic order.
package framework
