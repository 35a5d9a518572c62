// Package adbg is the assertion and case-tracking engine used by the regression suites.
//
// A Case is the aggregate pass/fail record of one logical test. Its Expect methods each check
// one predicate. When the predicate holds they return true and do nothing else; when it does
// not, they mark the Case as failed, log one diagnostic line naming the call site, the text of
// the checked expression, and the actual and expected values, and return false. They never
// abort the caller, so a test can keep going and still run its cleanup code:
//
//	c := adbg.NewCase("Many sessions", logger)
//	if !c.Expect(0, int64(res), "res") {
//		// skip whatever depends on res
//	}
//	c.Finalize(t)
//
// Once a Case has failed it stays failed. Finalize turns the aggregate result into a failure
// of the host test framework (anything that implements require.TestingT).
//
// A Case returned by NewCase must only be used from one goroutine at a time. Tests that start
// workers should collect the workers' results and make the Expect calls on the goroutine that
// owns the Case, or use NewSharedCase.
package adbg
