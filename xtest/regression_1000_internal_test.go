package xtest

import (
	"testing"

	"github.com/securetee/xtest/adbg"
	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/ta"

	"github.com/stretchr/testify/assert"
)

func TestMutexResultsFailOnWorkerPanic(t *testing.T) {
	results, err := RunWorkers(mutexTestWorkers, func(n int) (mutexWorkerResult, error) {
		if n == 1 {
			panic("worker crashed")
		}
		return mutexWorkerResult{testType: ta.MutexTestWriter, iterations: mutexTestRepeat}, nil
	})

	logger := &framework.CapturingLogger{}
	c := adbg.NewCase("mutex", logger)
	checkMutexResults(c, results, err)

	assert.False(t, c.Passed())
	output := logger.Output()
	assert.True(t, output.Contains("err == nil has an unexpected value: 0x0, expected 0x1"))
	assert.True(t, output.Contains("worker 1 panicked: worker crashed"))
}

func TestMutexResultsPassForHealthyWorkers(t *testing.T) {
	results := make([]mutexWorkerResult, mutexTestWorkers)
	for n := range results {
		results[n] = mutexWorkerResult{testType: ta.MutexTestReader, maxDuring: uint32(n), iterations: mutexTestRepeat}
	}
	results[0].testType = ta.MutexTestWriter

	logger := &framework.CapturingLogger{}
	c := adbg.NewCase("mutex", logger)
	checkMutexResults(c, results, nil)

	assert.True(t, c.Passed())
	assert.True(t, logger.Output().Contains("Number of parallel threads: 6 (1 writers and 5 readers)"))
	assert.True(t, logger.Output().Contains("Max read concurrency: 5"))
}
