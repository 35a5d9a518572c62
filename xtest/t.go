package xtest

import (
	"fmt"

	"github.com/securetee/xtest/adbg"
	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/teec"
)

// Capabilities are the optional features a client service says it supports.
type Capabilities []string

func (c Capabilities) Has(name string) bool {
	for _, n := range c {
		if n == name {
			return true
		}
	}
	return false
}

type environment struct {
	client       *teec.Client
	capabilities Capabilities
	storage      *StorageProbe
}

// T represents a test or subtest in the regression suites.
//
// It implements the same basic functionality as Go's testing.T, but in an environment that is
// outside of the Go test runner. Those features come from the lower-level framework package.
//
// A test body normally creates one adbg.Case with NewCase, checks results against it, and
// finalizes it with the T at the end. You can also use the assert and require packages, passing
// the *T as if it were a *testing.T.
type T struct {
	context *framework.Context
	env     *environment
}

func newTestScope(context *framework.Context, env *environment) *T {
	return &T{context: context, env: env}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow, and so does adbg.Case.Finalize for a failed case.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. Its debug output is bracketed by "Begin Test" and "End Test" lines.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		c.Debug("Begin Test -- %s", name)
		c.Defer(func() { c.Debug("End Test -- %s", name) })
		action(newTestScope(c, t.env))
	})
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

func (t *T) DebugLogger() framework.Logger {
	return t.context.DebugLogger()
}

// Defer schedules cleanup code to run when the test exits, even if it failed.
func (t *T) Defer(fn func()) {
	t.context.Defer(fn)
}

func (t *T) SkipWithReason(reason string) {
	t.context.SkipWithReason(reason)
}

func (t *T) Capabilities() Capabilities {
	return t.env.capabilities
}

// RequireCapability skips this test if the client service did not declare that it supports the
// specified capability.
func (t *T) RequireCapability(capability string) {
	if !t.env.capabilities.Has(capability) {
		t.context.SkipWithReason(fmt.Sprintf("client service does not have capability %q", capability))
	}
}

// NewCase creates a Case whose diagnostics go to this test's debug output.
func (t *T) NewCase(label string) *adbg.Case {
	return adbg.NewCase(label, t.context.DebugLogger())
}

// NewSharedCase is like NewCase, but the Case may be used by several goroutines at once.
func (t *T) NewSharedCase(label string) *adbg.Case {
	return adbg.NewSharedCase(label, t.context.DebugLogger())
}

// Client returns a client whose requests are logged to this test's debug output, as well as
// to wherever the suite's client logs.
func (t *T) Client() *teec.Client {
	return t.env.client.WithLogger(framework.TeeLogger(t.context.DebugLogger(), t.env.client.Logger()))
}

// OpenSession opens a public-login session with a trusted application. The session is closed
// when the test exits if the test has not closed it already.
func (t *T) OpenSession(id teec.UUID, op *teec.Operation) (*teec.Session, error) {
	sess, err := t.Client().OpenSession(id, teec.LoginPublic, op)
	if err != nil {
		return nil, err
	}
	t.Defer(func() { _ = sess.Close() })
	return sess, nil
}

func (t *T) StorageProbe() *StorageProbe {
	return t.env.storage
}
