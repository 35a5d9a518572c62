package xtest_test

import (
	"net/http/httptest"
	"testing"

	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
	"github.com/securetee/xtest/teec/teectest"
	"github.com/securetee/xtest/xtest"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageProbeFindsAvailableStorages(t *testing.T) {
	svc := teectest.NewService(nil)
	storage := teectest.NewStorage(ta.StoragePrivateREE)
	svc.AddApp(ta.Storage, teectest.StorageApp(storage))
	httphelpers.WithServer(svc, func(server *httptest.Server) {
		probe := xtest.NewStorageProbe(teec.NewClient(server.URL, nil),
			ta.StoragePrivate, ta.StoragePrivateREE, ta.StoragePrivateRPMB)
		ids, err := probe.Available()
		require.NoError(t, err)
		assert.Equal(t, []uint32{ta.StoragePrivateREE}, ids)
		assert.True(t, probe.IsAvailable(ta.StoragePrivateREE))
		assert.False(t, probe.IsAvailable(ta.StoragePrivateRPMB))
	})
	assert.Equal(t, 0, storage.Objects())
	assert.Equal(t, 0, svc.OpenSessions())
}

func TestStorageProbeRunsOnceAfterSuccess(t *testing.T) {
	svc := teectest.NewService(nil)
	svc.AddApp(ta.Storage, teectest.StorageApp(teectest.NewStorage(ta.StoragePrivate)))
	httphelpers.WithServer(svc, func(server *httptest.Server) {
		probe := xtest.NewStorageProbe(teec.NewClient(server.URL, nil), ta.StoragePrivate)
		ids, err := probe.Available()
		require.NoError(t, err)
		assert.Equal(t, []uint32{ta.StoragePrivate}, ids)

		svc.RemoveApp(ta.Storage)
		ids, err = probe.Available()
		require.NoError(t, err)
		assert.Equal(t, []uint32{ta.StoragePrivate}, ids)
	})
}

func TestStorageProbeRetriesAfterFailure(t *testing.T) {
	svc := teectest.NewService(nil)
	httphelpers.WithServer(svc, func(server *httptest.Server) {
		probe := xtest.NewStorageProbe(teec.NewClient(server.URL, nil), ta.StoragePrivate)
		_, err := probe.Available()
		require.Error(t, err)
		result, _ := teec.ResultOf(err)
		assert.Equal(t, teec.ErrorItemNotFound, result)
		assert.False(t, probe.IsAvailable(ta.StoragePrivate))

		svc.AddApp(ta.Storage, teectest.StorageApp(teectest.NewStorage(ta.StoragePrivate)))
		ids, err := probe.Available()
		require.NoError(t, err)
		assert.Equal(t, []uint32{ta.StoragePrivate}, ids)
	})
}
