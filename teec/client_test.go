package teec_test

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
	"github.com/securetee/xtest/teec/teectest"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFakeService(t *testing.T, action func(*teec.Client, *teectest.Service)) {
	svc := teectest.NewStandardService(nil)
	httphelpers.WithServer(svc, func(server *httptest.Server) {
		action(teec.NewClient(server.URL, nil), svc)
	})
}

func TestQueryStatus(t *testing.T) {
	status := servicedef.StatusRep{Description: "fake", Capabilities: []string{"a", "b"}}
	handler := httphelpers.HandlerWithJSONResponse(status, nil)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		result, err := teec.NewClient(server.URL, nil).QueryStatus(time.Second, ioutil.Discard)
		require.NoError(t, err)
		assert.Equal(t, status, result)
	})
}

func TestQueryStatusErrorStatus(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(500), func(server *httptest.Server) {
		_, err := teec.NewClient(server.URL, nil).QueryStatus(time.Second, ioutil.Discard)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status code 500")
	})
}

func TestStopService(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(204))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		require.NoError(t, teec.NewClient(server.URL, nil).StopService())
	})
	require.Len(t, requestsCh, 1)
	r := <-requestsCh
	assert.Equal(t, "DELETE", r.Request.Method)
}

func TestOpenInvokeClose(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		sess, err := client.OpenSession(ta.OSTest, teec.LoginPublic, nil)
		require.NoError(t, err)
		assert.Equal(t, ta.OSTest, sess.UUID())
		assert.Equal(t, 1, svc.OpenSessions())

		buf := make([]byte, 32)
		assert.NoError(t, sess.Invoke(ta.OSTestCmdBasic, teec.NewOperation(teec.TempIn(buf))))

		require.NoError(t, sess.Close())
		assert.Equal(t, 0, svc.OpenSessions())
	})
}

func TestOpenSessionUnknownApplication(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		sess, err := client.OpenSession(uuid.New(), teec.LoginPublic, nil)
		assert.Nil(t, sess)
		result, origin := teec.ResultOf(err)
		assert.Equal(t, teec.ErrorItemNotFound, result)
		assert.Equal(t, teec.OriginTEE, origin)
		assert.Equal(t, 0, svc.OpenSessions())
	})
}

func TestPanicKillsSession(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		sess, err := client.OpenSession(ta.OSTest, teec.LoginPublic, nil)
		require.NoError(t, err)
		defer sess.Close()

		for _, cmd := range []uint32{ta.OSTestCmdPanic, ta.OSTestCmdInit} {
			result, origin := teec.ResultOf(sess.Invoke(cmd, nil))
			assert.Equal(t, teec.ErrorTargetDead, result)
			assert.Equal(t, teec.OriginTEE, origin)
		}
	})
}

func TestTemporaryOutputIsResliced(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		sess, err := client.OpenSession(ta.Crypt, teec.LoginPublic, nil)
		require.NoError(t, err)
		defer sess.Close()

		out := make([]byte, 64)
		op := teec.NewOperation(teec.TempIn([]byte("abc")), teec.TempOut(out))
		require.NoError(t, sess.Invoke(ta.CryptCmdSHA256, op))
		assert.Equal(t, 32, op.Params[1].OutputSize)
		assert.Len(t, op.Params[1].Buffer, 32)
		assert.Equal(t, byte(0xba), out[0])
	})
}

func TestShortBufferReportsNeededSize(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		sess, err := client.OpenSession(ta.Crypt, teec.LoginPublic, nil)
		require.NoError(t, err)
		defer sess.Close()

		op := teec.NewOperation(teec.TempIn([]byte("abc")), teec.TempOut(make([]byte, 8)))
		result, _ := teec.ResultOf(sess.Invoke(ta.CryptCmdSHA256, op))
		assert.Equal(t, teec.ErrorShortBuffer, result)
		assert.Equal(t, 32, op.Params[1].OutputSize)
		assert.Len(t, op.Params[1].Buffer, 8)
	})
}

func TestValueOutput(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		sess, err := client.OpenSession(ta.InvokeTests, teec.LoginPublic, nil)
		require.NoError(t, err)
		defer sess.Close()

		op := teec.NewOperation(teec.ValueIn(ta.MutexTestWriter, 1), teec.ValueOut())
		require.NoError(t, sess.Invoke(ta.InvokeTestsCmdMutex, op))
		assert.Equal(t, uint32(1), op.Params[1].Value.B)
	})
}

func TestSharedMemory(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		shm, err := client.RegisterSharedMemory(16, teec.MemInput|teec.MemOutput)
		require.NoError(t, err)
		assert.Equal(t, 1, svc.RegisteredSharedMemory())
		for i := range shm.Buffer {
			shm.Buffer[i] = byte(i + 1)
		}

		sess, err := client.OpenSession(ta.InvokeTests, teec.LoginPublic, nil)
		require.NoError(t, err)
		defer sess.Close()

		op := teec.NewOperation(teec.RegisteredPartial(teec.MemrefPartialInout, shm, 4, 4))
		require.NoError(t, sess.Invoke(ta.InvokeTestsCmdParams, op))
		assert.Equal(t, byte(5+6+7+8), shm.Buffer[4])
		assert.Equal(t, byte(4), shm.Buffer[3])
		assert.Equal(t, byte(6), shm.Buffer[5])
		assert.Equal(t, 4, op.Params[0].OutputSize)

		op = teec.NewOperation(teec.RegisteredPartial(teec.MemrefPartialInput, shm, 0, 4))
		result, _ := teec.ResultOf(sess.Invoke(ta.InvokeTestsCmdParams, op))
		assert.Equal(t, teec.ErrorBadParameters, result)

		require.NoError(t, shm.Release())
		assert.Equal(t, 0, svc.RegisteredSharedMemory())

		result, origin := teec.ResultOf(sess.Invoke(ta.InvokeTestsCmdParams, op))
		assert.Equal(t, teec.ErrorBadParameters, result)
		assert.Equal(t, teec.OriginAPI, origin)
	})
}

func TestSharedMemoryTooLarge(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		_, err := client.RegisterSharedMemory(teectest.DefaultMaxSharedMemory+1, teec.MemInput)
		result, origin := teec.ResultOf(err)
		assert.Equal(t, teec.ErrorOutOfMemory, result)
		assert.Equal(t, teec.OriginTEE, origin)
	})
}

func TestPartialReferenceOutOfRange(t *testing.T) {
	withFakeService(t, func(client *teec.Client, svc *teectest.Service) {
		shm, err := client.RegisterSharedMemory(8, teec.MemInput)
		require.NoError(t, err)
		defer shm.Release()
		sess, err := client.OpenSession(ta.Concurrent, teec.LoginPublic, nil)
		require.NoError(t, err)
		defer sess.Close()

		op := teec.NewOperation(teec.RegisteredPartial(teec.MemrefPartialInput, shm, 6, 4))
		result, origin := teec.ResultOf(sess.Invoke(0, op))
		assert.Equal(t, teec.ErrorBadParameters, result)
		assert.Equal(t, teec.OriginAPI, origin)
	})
}

func TestTransportFailureIsCommunicationError(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	url := server.URL
	server.Close()

	_, err := teec.NewClient(url, nil).OpenSession(ta.OSTest, teec.LoginPublic, nil)
	require.Error(t, err)
	result, origin := teec.ResultOf(err)
	assert.Equal(t, teec.ErrorCommunication, result)
	assert.Equal(t, teec.OriginComms, origin)
}

func TestMissingLocationHeader(t *testing.T) {
	handler := httphelpers.HandlerWithJSONResponse(servicedef.OperationResult{}, nil)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		_, err := teec.NewClient(server.URL, nil).OpenSession(ta.OSTest, teec.LoginPublic, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Location header")
	})
}

func TestLoginMethodIsSent(t *testing.T) {
	svc := teectest.NewStandardService(nil)
	handler, requestsCh := httphelpers.RecordingHandler(svc)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		sess, err := teec.NewClient(server.URL, nil).OpenSession(ta.Concurrent, teec.LoginUser, nil)
		require.NoError(t, err)
		require.NoError(t, sess.Close())
	})
	r := <-requestsCh
	assert.Equal(t, "POST", r.Request.Method)
	assert.Contains(t, string(r.Body), `"connectionMethod":1`)
}

func TestNewOperationRejectsTooManyParams(t *testing.T) {
	assert.Panics(t, func() {
		teec.NewOperation(teec.ValueOut(), teec.ValueOut(), teec.ValueOut(), teec.ValueOut(), teec.ValueOut())
	})
}

func TestResultOf(t *testing.T) {
	result, origin := teec.ResultOf(nil)
	assert.Equal(t, teec.Success, result)
	assert.Equal(t, teec.OriginTrustedApp, origin)

	result, origin = teec.ResultOf(&teec.Error{Result: teec.ErrorBusy, Origin: teec.OriginTEE})
	assert.Equal(t, teec.ErrorBusy, result)
	assert.Equal(t, teec.OriginTEE, origin)

	result, origin = teec.ResultOf(http.ErrServerClosed)
	assert.Equal(t, teec.ErrorGeneric, result)
	assert.Equal(t, teec.OriginAPI, origin)
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "ERROR_TARGET_DEAD", teec.ErrorTargetDead.String())
	assert.Equal(t, "0x12345678", teec.Result(0x12345678).String())
	assert.Equal(t, "TEE", teec.OriginTEE.String())
	assert.Equal(t, "ERROR_SHORT_BUFFER (origin TRUSTED_APP)",
		(&teec.Error{Result: teec.ErrorShortBuffer, Origin: teec.OriginTrustedApp}).Error())
}
