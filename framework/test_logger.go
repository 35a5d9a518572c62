package framework

import (
	"fmt"
	"sync"
)

// TestLogger receives notifications about the lifecycle of each test run through a Context.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                        {}
func (n nullTestLogger) TestError(TestID, error)                   {}
func (n nullTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                {}

// RecordingTestLogger is a TestLogger that keeps a plain-text record of every notification.
// It is mainly useful for verifying the framework's own behavior.
type RecordingTestLogger struct {
	Events []string
	lock   sync.Mutex
}

func (r *RecordingTestLogger) add(format string, args ...interface{}) {
	r.lock.Lock()
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
	r.lock.Unlock()
}

func (r *RecordingTestLogger) TestStarted(id TestID) { r.add("started %s", id) }

func (r *RecordingTestLogger) TestError(id TestID, err error) { r.add("error %s: %s", id, err) }

func (r *RecordingTestLogger) TestFinished(id TestID, failed bool, debugOutput CapturedOutput) {
	if failed {
		r.add("failed %s", id)
	} else {
		r.add("passed %s", id)
	}
}

func (r *RecordingTestLogger) TestSkipped(id TestID, reason string) {
	r.add("skipped %s (%s)", id, reason)
}
