package xtest

import (
	"fmt"

	"github.com/securetee/xtest/adbg"
	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

const (
	manySessionsCount   = 3
	mutexTestWorkers    = 3 * 2
	mutexTestRepeat     = 20
	mutexTestRounds     = 64 * 1024
	workerErrorOrigin   = 42
	cryptBlockSize      = 16
	paramsTestBufferLen = 16 * 1024
	sharedMemorySize    = 256
)

func DoRegression1000Tests(t *T) {
	t.Run("1001 Core self tests", doCoreSelfTests)
	t.Run("1002 PTA parameters", doPTAParametersTest)
	t.Run("1003 Core internal read/write mutex", doMutexTest)
	t.Run("1004 Test User Crypt TA", doCryptTest)
	t.Run("1005 Many sessions", doManySessionsTest)
	t.Run("1006 Test Basic OS features", doBasicOSTest)
	t.Run("1007 Test Panic", doPanicTest)
	t.Run("1008 PTA parameters, registered memory", doRegisteredMemoryTest)
}

// openInvokeTests opens the invoke-tests pseudo application, which is optional: the test is
// skipped if the environment does not have it.
func openInvokeTests(t *T) (*teec.Session, error) {
	sess, err := t.OpenSession(ta.InvokeTests, nil)
	if result, _ := teec.ResultOf(err); result == teec.ErrorItemNotFound {
		t.SkipWithReason("pseudo TA not found")
	}
	return sess, err
}

func doCoreSelfTests(t *T) {
	sess, err := openInvokeTests(t)
	c := t.NewCase("Core self tests")
	defer c.Finalize(t)
	if !teec.ExpectSuccess(c, err, "OpenSession(InvokeTests)") {
		return
	}
	defer sess.Close()

	c.BeginSubcase("Core self tests")
	teec.ExpectSuccess(c, sess.Invoke(ta.InvokeTestsCmdSelfTests, nil), "Invoke(SelfTests)")
	c.EndSubcase("Core self tests")
}

func doPTAParametersTest(t *T) {
	sess, err := openInvokeTests(t)
	c := t.NewCase("PTA parameters")
	defer c.Finalize(t)
	if !teec.ExpectSuccess(c, err, "OpenSession(InvokeTests)") {
		return
	}
	defer sess.Close()

	buf := make([]byte, paramsTestBufferLen)
	var expectedSum byte
	for n := range buf {
		buf[n] = byte(n + 1)
		expectedSum += buf[n]
	}

	op := teec.NewOperation(teec.TempInOut(buf))
	if !teec.ExpectSuccess(c, sess.Invoke(ta.InvokeTestsCmdParams, op), "Invoke(Params)") {
		return
	}
	c.ExpectCompareSigned(int64(expectedSum), adbg.EQ, int64(buf[0]), "expectedSum", "buf[0]")
}

func doRegisteredMemoryTest(t *T) {
	t.RequireCapability(servicedef.CapabilitySharedMemory)
	sess, err := openInvokeTests(t)
	c := t.NewCase("PTA parameters, registered memory")
	defer c.Finalize(t)
	if !teec.ExpectSuccess(c, err, "OpenSession(InvokeTests)") {
		return
	}
	defer sess.Close()

	shm, err := t.Client().RegisterSharedMemory(sharedMemorySize, teec.MemInput|teec.MemOutput)
	if !teec.ExpectSuccess(c, err, "RegisterSharedMemory") {
		return
	}
	defer shm.Release()
	for n := range shm.Buffer {
		shm.Buffer[n] = byte(n)
	}

	c.BeginSubcase("Whole block")
	var expectedSum byte
	for _, b := range shm.Buffer {
		expectedSum += b
	}
	if teec.ExpectSuccess(c, sess.Invoke(ta.InvokeTestsCmdParams, teec.NewOperation(teec.RegisteredWhole(shm))), "Invoke(Params)") {
		c.ExpectCompareUnsigned(uint64(expectedSum), adbg.EQ, uint64(shm.Buffer[0]), "expectedSum", "shm.Buffer[0]")
	}
	c.EndSubcase("Whole block")

	c.BeginSubcase("Partial block")
	const offset, size = 32, 16
	before := append([]byte(nil), shm.Buffer...)
	expectedSum = 0
	for _, b := range shm.Buffer[offset : offset+size] {
		expectedSum += b
	}
	op := teec.NewOperation(teec.RegisteredPartial(teec.MemrefPartialInout, shm, offset, size))
	if teec.ExpectSuccess(c, sess.Invoke(ta.InvokeTestsCmdParams, op), "Invoke(Params)") {
		c.ExpectCompareUnsigned(uint64(expectedSum), adbg.EQ, uint64(shm.Buffer[offset]), "expectedSum", "shm.Buffer[offset]")
		c.ExpectBuffer(before[:offset], shm.Buffer[:offset], "shm.Buffer[:offset]")
		c.ExpectBuffer(before[offset+1:], shm.Buffer[offset+1:], "shm.Buffer[offset+1:]")
	}
	c.EndSubcase("Partial block")

	c.BeginSubcase("Out of range")
	op = teec.NewOperation(teec.RegisteredPartial(teec.MemrefPartialInout, shm, sharedMemorySize-8, 16))
	err = sess.Invoke(ta.InvokeTestsCmdParams, op)
	teec.ExpectResult(c, teec.ErrorBadParameters, err, "Invoke(Params)")
	teec.ExpectOrigin(c, teec.OriginAPI, err, "origin")
	c.EndSubcase("Out of range")
}

type mutexWorkerResult struct {
	testType   uint32
	err        error
	maxBefore  uint32
	maxDuring  uint32
	sumBefore  uint64
	sumDuring  uint64
	iterations int
}

// mutexWorker runs the lock test repeatedly in its own session. Failures are returned in the
// result rather than checked here, so that the orchestrating goroutine owns the Case.
func mutexWorker(client *teec.Client, testType uint32) mutexWorkerResult {
	r := mutexWorkerResult{testType: testType}
	sess, err := client.OpenSession(ta.InvokeTests, teec.LoginPublic, nil)
	if err != nil {
		r.err = err
		return r
	}
	defer sess.Close()

	for n := 0; n < mutexTestRepeat; n++ {
		op := teec.NewOperation(teec.ValueIn(testType, mutexTestRounds), teec.ValueOut())
		if err := sess.Invoke(ta.InvokeTestsCmdMutex, op); err != nil {
			r.err = err
			return r
		}
		out := op.Params[1].Value
		if testType == ta.MutexTestWriter && out.B != 1 {
			r.err = &teec.Error{Result: teec.ErrorBadState, Origin: workerErrorOrigin}
			return r
		}
		if testType == ta.MutexTestReader {
			if out.A > r.maxBefore {
				r.maxBefore = out.A
			}
			if out.B > r.maxDuring {
				r.maxDuring = out.B
			}
			r.sumBefore += uint64(out.A)
			r.sumDuring += uint64(out.B)
		}
		r.iterations++
	}
	return r
}

func doMutexTest(t *T) {
	t.RequireCapability(servicedef.CapabilityConcurrency)
	sess, err := openInvokeTests(t)
	c := t.NewCase("Core internal read/write mutex")
	defer c.Finalize(t)
	if !teec.ExpectSuccess(c, err, "OpenSession(InvokeTests)") {
		return
	}
	_ = sess.Close()

	client := t.Client()
	results, err := RunWorkers(mutexTestWorkers, func(n int) (mutexWorkerResult, error) {
		testType := ta.MutexTestWriter
		if n%3 != 0 {
			testType = ta.MutexTestReader
		}
		logger := framework.LoggerWithPrefix(client.Logger(), fmt.Sprintf("[worker %d] ", n))
		return mutexWorker(client.WithLogger(logger), testType), nil
	})
	checkMutexResults(c, results, err)
}

// checkMutexResults makes the Expect calls for the workers of the mutex test. A worker that
// panicked leaves a zero result, which is not counted as a reader or a writer.
func checkMutexResults(c *adbg.Case, results []mutexWorkerResult, err error) {
	if !c.ExpectTrue(err == nil, "err == nil") {
		c.Log("  %s", err)
	}

	var numReaders, numWriters int
	var maxConcurrency, maxWaiters uint32
	var sumDuring, sumBefore uint64
	for _, r := range results {
		if !teec.ExpectSuccess(c, r.err, "worker result") {
			_, origin := teec.ResultOf(r.err)
			c.Log("error origin %d", origin)
		}
		switch r.testType {
		case ta.MutexTestWriter:
			numWriters++
			continue
		case ta.MutexTestReader:
			numReaders++
		default:
			continue
		}
		if r.maxDuring > maxConcurrency {
			maxConcurrency = r.maxDuring
		}
		if r.maxBefore > maxWaiters {
			maxWaiters = r.maxBefore
		}
		sumDuring += r.sumDuring
		sumBefore += r.sumBefore
	}
	c.ExpectCompareSigned(int64(len(results)), adbg.EQ, mutexTestWorkers, "len(results)", "mutexTestWorkers")

	if numReaders > 0 {
		total := float64(mutexTestRepeat * numReaders)
		c.Log("    Number of parallel threads: %d (%d writers and %d readers)", len(results), numWriters, numReaders)
		c.Log("    Max read concurrency: %d", maxConcurrency)
		c.Log("    Max read waiters: %d", maxWaiters)
		c.Log("    Mean read concurrency: %g", float64(sumDuring)/total)
		c.Log("    Mean read waiting: %g", float64(sumBefore)/total)
	}
}

var (
	sha256Input  = []byte("abc")
	sha256Output = []byte{
		0xba, 0x78, 0x16, 0xbf, 0x8f, 0x01, 0xcf, 0xea,
		0x41, 0x41, 0x40, 0xde, 0x5d, 0xae, 0x22, 0x23,
		0xb0, 0x03, 0x61, 0xa3, 0x96, 0x17, 0x7a, 0x9c,
		0xb4, 0x10, 0xff, 0x61, 0xf2, 0x00, 0x15, 0xad,
	}
	// AES-256 known-answer vector from FIPS-197 appendix C.3.
	aesPlaintext = []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	}
	aesCiphertext = []byte{
		0x8e, 0xa2, 0xb7, 0xca, 0x51, 0x67, 0x45, 0xbf,
		0xea, 0xfc, 0x49, 0x90, 0x4b, 0x49, 0x60, 0x89,
	}
)

func cryptInvoke(c *adbg.Case, sess *teec.Session, commandID uint32, in []byte, outSize int, expr string) []byte {
	c.Helper()
	op := teec.NewOperation(teec.TempIn(in), teec.TempOut(make([]byte, outSize)))
	if !teec.ExpectSuccess(c, sess.Invoke(commandID, op), expr) {
		return nil
	}
	return op.Params[1].Buffer
}

func doCryptTest(t *T) {
	c := t.NewCase("Test User Crypt TA")
	defer c.Finalize(t)

	sess, err := t.OpenSession(ta.Crypt, nil)
	if !teec.ExpectSuccess(c, err, "OpenSession(Crypt)") {
		return
	}
	defer sess.Close()

	cryptIn := make([]byte, cryptBlockSize)
	cryptIn[0], cryptIn[1], cryptIn[15] = 22, 17, 60
	var cryptOut []byte

	c.BeginSubcase("AES encrypt")
	cryptOut = cryptInvoke(c, sess, ta.CryptCmdAES256ECBEnc, cryptIn, cryptBlockSize, "Invoke(AES256ECBEnc)")
	c.EndSubcase("AES encrypt")

	c.BeginSubcase("AES decrypt")
	if cryptOut != nil {
		out := cryptInvoke(c, sess, ta.CryptCmdAES256ECBDec, cryptOut, cryptBlockSize, "Invoke(AES256ECBDec)")
		if out != nil {
			c.ExpectBuffer(cryptIn, out, "out")
		}
	}
	c.EndSubcase("AES decrypt")

	c.BeginSubcase("SHA-256 test, 3 bytes input")
	if out := cryptInvoke(c, sess, ta.CryptCmdSHA256, sha256Input, len(sha256Output), "Invoke(SHA256)"); out != nil {
		c.ExpectBuffer(sha256Output, out, "out")
	}
	c.EndSubcase("SHA-256 test, 3 bytes input")

	c.BeginSubcase("AES-256 ECB encrypt (16B, fixed key)")
	if out := cryptInvoke(c, sess, ta.CryptCmdAES256ECBEnc, aesPlaintext, len(aesCiphertext), "Invoke(AES256ECBEnc)"); out != nil {
		c.ExpectBuffer(aesCiphertext, out, "out")
	}
	c.EndSubcase("AES-256 ECB encrypt (16B, fixed key)")

	c.BeginSubcase("AES-256 ECB decrypt (16B, fixed key)")
	if out := cryptInvoke(c, sess, ta.CryptCmdAES256ECBDec, aesCiphertext, len(aesPlaintext), "Invoke(AES256ECBDec)"); out != nil {
		c.ExpectBuffer(aesPlaintext, out, "out")
	}
	c.EndSubcase("AES-256 ECB decrypt (16B, fixed key)")
}

func doManySessionsTest(t *T) {
	c := t.NewCase("Many sessions")
	defer c.Finalize(t)

	var sessions []*teec.Session
	for i := 0; i < manySessionsCount; i++ {
		sess, err := t.Client().OpenSession(ta.Concurrent, teec.LoginPublic, nil)
		if !teec.ExpectSuccess(c, err, "OpenSession(Concurrent)") {
			break
		}
		sessions = append(sessions, sess)
	}
	for i := len(sessions) - 1; i >= 0; i-- {
		_ = sessions[i].Close()
	}
}

func doBasicOSTest(t *T) {
	c := t.NewCase("Test Basic OS features")
	defer c.Finalize(t)

	sess, err := t.OpenSession(ta.OSTest, nil)
	if !teec.ExpectSuccess(c, err, "OpenSession(OSTest)") {
		return
	}
	defer sess.Close()

	buf := make([]byte, 32)
	op := teec.NewOperation(teec.TempIn(buf))
	teec.ExpectSuccess(c, sess.Invoke(ta.OSTestCmdBasic, op), "Invoke(Basic)")
}

func doPanicTest(t *T) {
	c := t.NewCase("Test Panic")
	defer c.Finalize(t)

	sess, err := t.OpenSession(ta.OSTest, nil)
	if !teec.ExpectSuccess(c, err, "OpenSession(OSTest)") {
		return
	}
	defer sess.Close()

	err = sess.Invoke(ta.OSTestCmdPanic, nil)
	teec.ExpectResult(c, teec.ErrorTargetDead, err, "Invoke(Panic)")
	teec.ExpectOrigin(c, teec.OriginTEE, err, "origin")

	err = sess.Invoke(ta.OSTestCmdInit, nil)
	teec.ExpectResult(c, teec.ErrorTargetDead, err, "Invoke(Init)")
	teec.ExpectOrigin(c, teec.OriginTEE, err, "origin")
}
