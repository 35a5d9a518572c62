package xtest

import (
	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

// RunTestSuite runs the regression suites against the client service and returns the results.
// Tests rejected by filter are skipped; a nil filter runs all of them.
func RunTestSuite(
	client *teec.Client,
	status servicedef.StatusRep,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	env := &environment{
		client:       client,
		capabilities: status.Capabilities,
		storage:      NewStorageProbe(client, ta.StoragePrivate, ta.StoragePrivateREE, ta.StoragePrivateRPMB),
	}
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, env)

		t.Run("regression_1000", DoRegression1000Tests)
		t.Run("regression_6000", DoRegression6000Tests)
	})
}
