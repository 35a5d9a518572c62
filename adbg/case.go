package adbg

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/securetee/xtest/framework"

	"github.com/stretchr/testify/require"
)

// Case is the aggregate pass/fail record for one logical test.
type Case struct {
	label      string
	logger     framework.Logger
	lock       sync.Locker
	passed     bool
	finalized  bool
	depth      int
	helpers    map[string]struct{}
	helperLock sync.Mutex
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// NewCase creates a Case that has not failed yet. All diagnostics go to logger; a nil logger
// discards them.
//
// The returned Case is not safe for concurrent use.
func NewCase(label string, logger framework.Logger) *Case {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Case{
		label:   label,
		logger:  logger,
		lock:    noLock{},
		passed:  true,
		helpers: make(map[string]struct{}),
	}
}

// NewSharedCase is like NewCase, but the returned Case may be used by several goroutines at
// once. Each failure report, including a buffer dump, is written as one uninterrupted block.
func NewSharedCase(label string, logger framework.Logger) *Case {
	c := NewCase(label, logger)
	c.lock = &sync.Mutex{}
	return c
}

func (c *Case) Label() string {
	return c.label
}

// Passed returns false if any expectation on this Case has failed.
func (c *Case) Passed() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.passed
}

// Helper marks the calling function as a helper. When an expectation fails, the reported
// source location skips frames of helper functions, the same way testing.T.Helper works.
func (c *Case) Helper() {
	if name := callerName(1); name != "" {
		c.helperLock.Lock()
		c.helpers[name] = struct{}{}
		c.helperLock.Unlock()
	}
}

func (c *Case) isHelper(function string) bool {
	c.helperLock.Lock()
	defer c.helperLock.Unlock()
	_, ok := c.helpers[function]
	return ok
}

// Log writes a plain diagnostic line. It does not affect the result.
func (c *Case) Log(format string, args ...interface{}) {
	c.lock.Lock()
	c.logger.Printf(format, args...)
	c.lock.Unlock()
}

// HexLog writes a hex/ASCII dump of buf. It does not affect the result.
func (c *Case) HexLog(buf []byte) {
	c.lock.Lock()
	HexLog(c.logger, buf, DefaultColumns)
	c.lock.Unlock()
}

// BeginSubcase logs the start of a named group of expectations. Subcases only structure the
// log output: a failure inside one fails the whole Case, and nesting is not checked.
func (c *Case) BeginSubcase(format string, args ...interface{}) {
	c.lock.Lock()
	c.logger.Printf("%sBegin subcase -- %s", c.indent(), fmt.Sprintf(format, args...))
	c.depth++
	c.lock.Unlock()
}

// EndSubcase logs the end of the innermost subcase.
func (c *Case) EndSubcase(format string, args ...interface{}) {
	c.lock.Lock()
	if c.depth > 0 {
		c.depth--
	}
	c.logger.Printf("%sEnd subcase -- %s", c.indent(), fmt.Sprintf(format, args...))
	c.lock.Unlock()
}

func (c *Case) indent() string {
	return strings.Repeat("  ", c.depth)
}

// Finalize reports the aggregate result. If any expectation failed it logs a failure summary
// and fails t through require.Fail, which in most host frameworks aborts the current test;
// otherwise it logs a success summary. Only the first call has any effect. A nil t only logs.
//
// Finalize is meant to be deferred. If the test body is panicking, the Case is reported as
// failed and the panic continues with its original value, so the host framework still sees
// it. A panic whose value is a require.TestingT is the host's own abort or skip; it is passed
// through without a summary.
func (c *Case) Finalize(t require.TestingT) {
	if r := recover(); r != nil {
		c.finalizeAfterPanic(r)
		panic(r)
	}
	c.lock.Lock()
	if c.finalized {
		c.lock.Unlock()
		return
	}
	c.finalized = true
	passed := c.passed
	if passed {
		c.logger.Printf("--== %s Passed ==--", c.label)
	} else {
		c.logger.Printf("--== %s Failed ==--", c.label)
	}
	c.lock.Unlock()

	if passed || isNil(t) {
		return
	}
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.Fail(t, fmt.Sprintf("case %q failed", c.label))
}

func (c *Case) finalizeAfterPanic(r interface{}) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.finalized {
		return
	}
	c.finalized = true
	if _, ok := r.(require.TestingT); ok {
		return
	}
	c.passed = false
	c.logger.Printf("%s panicked: %v", c.label, r)
	c.logger.Printf("--== %s Failed ==--", c.label)
}

// isNil also catches a nil pointer stored in the interface.
func isNil(t require.TestingT) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// fail latches the Case and logs the diagnostic for the call site of the Expect method that
// called it, followed by any extra lines, as one block.
func (c *Case) fail(extra []string, format string, args ...interface{}) {
	line := fmt.Sprintf("%s: %s", c.callSite(), fmt.Sprintf(format, args...))
	c.lock.Lock()
	c.passed = false
	c.logger.Printf("%s", line)
	for _, e := range extra {
		c.logger.Printf("%s", e)
	}
	c.lock.Unlock()
}
