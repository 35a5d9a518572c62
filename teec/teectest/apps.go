package teectest

import (
	"crypto/aes"
	"crypto/sha256"
	"sync"

	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/ta"
	"github.com/securetee/xtest/teec"
)

// CryptKey is the fixed AES-256 key used by the fake crypt application.
var CryptKey = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
	0x18, 0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f,
}

// NewStandardService returns a Service with every application the regression suites use.
// The storage application has the private and REE storage available but not RPMB.
func NewStandardService(logger framework.Logger) *Service {
	s := NewService(logger)
	s.AddApp(ta.OSTest, func() App { return osTestApp{} })
	s.AddApp(ta.Crypt, func() App { return cryptApp{} })
	s.AddApp(ta.Concurrent, func() App { return concurrentApp{} })
	mutex := &mutexState{}
	s.AddApp(ta.InvokeTests, func() App { return &invokeTestsApp{mutex: mutex} })
	s.AddApp(ta.Storage, StorageApp(NewStorage(ta.StoragePrivate, ta.StoragePrivateREE)))
	return s
}

type osTestApp struct{}

func (osTestApp) Invoke(commandID uint32, params []servicedef.Param) teec.Result {
	switch commandID {
	case ta.OSTestCmdInit:
		return teec.Success
	case ta.OSTestCmdBasic:
		if params[0].Type != servicedef.ParamMemrefTempInput {
			return teec.ErrorBadParameters
		}
		return teec.Success
	case ta.OSTestCmdPanic:
		panic("trusted application panicked on request")
	}
	return teec.ErrorBadParameters
}

type cryptApp struct{}

func (cryptApp) Invoke(commandID uint32, params []servicedef.Param) teec.Result {
	if params[0].Type != servicedef.ParamMemrefTempInput || params[1].Type != servicedef.ParamMemrefTempOutput {
		return teec.ErrorBadParameters
	}
	in := params[0].Data
	var out []byte
	switch commandID {
	case ta.CryptCmdSHA256:
		sum := sha256.Sum256(in)
		out = sum[:]
	case ta.CryptCmdAES256ECBEnc, ta.CryptCmdAES256ECBDec:
		block, err := aes.NewCipher(CryptKey)
		if err != nil || len(in)%aes.BlockSize != 0 {
			return teec.ErrorBadParameters
		}
		out = make([]byte, len(in))
		for n := 0; n < len(in); n += aes.BlockSize {
			if commandID == ta.CryptCmdAES256ECBEnc {
				block.Encrypt(out[n:], in[n:])
			} else {
				block.Decrypt(out[n:], in[n:])
			}
		}
	default:
		return teec.ErrorBadParameters
	}
	if !WriteOutput(&params[1], out) {
		return teec.ErrorShortBuffer
	}
	return teec.Success
}

type concurrentApp struct{}

func (concurrentApp) Invoke(uint32, []servicedef.Param) teec.Result {
	return teec.Success
}

// mutexState is shared by every session of the invoke-tests application. Readers report how
// many other readers were holding the lock before and while they held it; writers report how
// many writers held it while they did, which must always be 1.
type mutexState struct {
	rw      sync.RWMutex
	counts  sync.Mutex
	readers uint32
	writers uint32
}

func (m *mutexState) read() (before, during uint32) {
	m.counts.Lock()
	before = m.readers
	m.counts.Unlock()

	m.rw.RLock()
	m.counts.Lock()
	m.readers++
	during = m.readers
	m.counts.Unlock()

	m.counts.Lock()
	m.readers--
	m.counts.Unlock()
	m.rw.RUnlock()
	return before, during
}

func (m *mutexState) write() (during uint32) {
	m.rw.Lock()
	m.counts.Lock()
	m.writers++
	during = m.writers
	m.writers--
	m.counts.Unlock()
	m.rw.Unlock()
	return during
}

type invokeTestsApp struct {
	mutex *mutexState
}

func (a *invokeTestsApp) Invoke(commandID uint32, params []servicedef.Param) teec.Result {
	switch commandID {
	case ta.InvokeTestsCmdSelfTests:
		return teec.Success
	case ta.InvokeTestsCmdParams:
		p := &params[0]
		switch p.Type {
		case servicedef.ParamMemrefTempInout, servicedef.ParamMemrefWhole, servicedef.ParamMemrefPartialInout:
		default:
			return teec.ErrorBadParameters
		}
		if len(p.Data) == 0 {
			return teec.ErrorBadParameters
		}
		var sum byte
		for _, b := range p.Data {
			sum += b
		}
		out := append([]byte(nil), p.Data...)
		out[0] = sum
		WriteOutput(p, out)
		return teec.Success
	case ta.InvokeTestsCmdMutex:
		if params[0].Type != servicedef.ParamValueInput || params[1].Type != servicedef.ParamValueOutput {
			return teec.ErrorBadParameters
		}
		switch params[0].A {
		case ta.MutexTestReader:
			params[1].A, params[1].B = a.mutex.read()
		case ta.MutexTestWriter:
			params[1].A, params[1].B = 0, a.mutex.write()
		default:
			return teec.ErrorBadParameters
		}
		return teec.Success
	}
	return teec.ErrorNotSupported
}
