package teectest

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/servicedef"
	"github.com/securetee/xtest/teec"

	"github.com/google/uuid"
)

// App is a fake trusted application. A new App is created for every session. params always
// has teec.MaxParams entries; Invoke writes its outputs into them.
type App interface {
	Invoke(commandID uint32, params []servicedef.Param) teec.Result
}

type AppFactory func() App

// Service is an in-process client service. It implements the same HTTP protocol as a real
// one, and runs commands in fake applications instead of a secure environment.
//
// A Go panic inside App.Invoke is treated like a panicking trusted application: the call
// returns ERROR_TARGET_DEAD from the TEE, and so does every later call in that session.
type Service struct {
	Description     string
	Capabilities    []string
	MaxSharedMemory int

	apps          map[uuid.UUID]AppFactory
	sessions      map[string]*session
	sharedMemory  map[string]int
	lastID        int
	stopRequested bool
	logger        framework.Logger
	lock          sync.Mutex
}

type session struct {
	app  App
	dead bool
	lock sync.Mutex
}

const sessionsPath = "/sessions/"
const sharedMemoryPath = "/shm"

// DefaultMaxSharedMemory is the largest block that can be registered unless MaxSharedMemory
// is set.
const DefaultMaxSharedMemory = 1024 * 1024

func NewService(logger framework.Logger) *Service {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Service{
		Description:     "fake client service",
		Capabilities:    []string{servicedef.CapabilitySharedMemory, servicedef.CapabilityConcurrency},
		MaxSharedMemory: DefaultMaxSharedMemory,
		apps:            make(map[uuid.UUID]AppFactory),
		sessions:        make(map[string]*session),
		sharedMemory:    make(map[string]int),
		logger:          logger,
	}
}

// AddApp installs an application, replacing any previous one with the same UUID.
func (s *Service) AddApp(id uuid.UUID, factory AppFactory) {
	s.lock.Lock()
	s.apps[id] = factory
	s.lock.Unlock()
}

func (s *Service) RemoveApp(id uuid.UUID) {
	s.lock.Lock()
	delete(s.apps, id)
	s.lock.Unlock()
}

// OpenSessions returns the number of sessions that have not been closed.
func (s *Service) OpenSessions() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}

// RegisteredSharedMemory returns the number of shared memory blocks that have not been released.
func (s *Service) RegisteredSharedMemory() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sharedMemory)
}

// StopRequested returns true if a client asked the service to exit.
func (s *Service) StopRequested() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stopRequested
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/" || path == "":
		switch r.Method {
		case "GET":
			writeJSON(w, http.StatusOK, servicedef.StatusRep{Description: s.Description, Capabilities: s.Capabilities})
		case "POST":
			s.openSession(w, r)
		case "DELETE":
			s.lock.Lock()
			s.stopRequested = true
			s.lock.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case path == sharedMemoryPath && r.Method == "POST":
		s.registerSharedMemory(w, r)
	case strings.HasPrefix(path, sharedMemoryPath+"/") && r.Method == "DELETE":
		s.lock.Lock()
		_, ok := s.sharedMemory[path]
		delete(s.sharedMemory, path)
		s.lock.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case strings.HasPrefix(path, sessionsPath):
		s.lock.Lock()
		sess := s.sessions[path]
		if sess != nil && r.Method == "DELETE" {
			delete(s.sessions, path)
		}
		s.lock.Unlock()
		if sess == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case "POST":
			s.invoke(w, r, sess)
		case "DELETE":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Service) openSession(w http.ResponseWriter, r *http.Request) {
	var params servicedef.OpenSessionParams
	if !readJSON(w, r, &params) {
		return
	}
	id, err := uuid.Parse(params.UUID)
	if err != nil {
		writeResult(w, teec.ErrorBadParameters, teec.OriginAPI, nil)
		return
	}
	s.lock.Lock()
	factory := s.apps[id]
	s.lock.Unlock()
	if factory == nil {
		s.logger.Printf("No application with UUID %s", id)
		writeResult(w, teec.ErrorItemNotFound, teec.OriginTEE, nil)
		return
	}
	if result := s.checkParams(params.Params); result != teec.Success {
		writeResult(w, result, teec.OriginTEE, nil)
		return
	}

	s.lock.Lock()
	s.lastID++
	location := sessionsPath + strconv.Itoa(s.lastID)
	s.sessions[location] = &session{app: factory()}
	s.lock.Unlock()
	s.logger.Printf("Opened session %s with %s", location, id)

	w.Header().Set("Location", location)
	writeResult(w, teec.Success, teec.OriginTrustedApp, params.Params)
}

func (s *Service) invoke(w http.ResponseWriter, r *http.Request, sess *session) {
	var command servicedef.CommandParams
	if !readJSON(w, r, &command) {
		return
	}
	if command.Command != servicedef.CommandInvoke || command.Invoke == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	params := padParams(command.Invoke.Params)
	if result := s.checkParams(params); result != teec.Success {
		writeResult(w, result, teec.OriginTEE, nil)
		return
	}
	result, origin := sess.invoke(command.Invoke.CommandID, params)
	if result != teec.Success && result != teec.ErrorShortBuffer {
		params = nil
	}
	writeResult(w, result, origin, params)
}

func (sess *session) invoke(commandID uint32, params []servicedef.Param) (result teec.Result, origin teec.Origin) {
	sess.lock.Lock()
	defer sess.lock.Unlock()
	if sess.dead {
		return teec.ErrorTargetDead, teec.OriginTEE
	}
	defer func() {
		if r := recover(); r != nil {
			sess.dead = true
			result, origin = teec.ErrorTargetDead, teec.OriginTEE
		}
	}()
	return sess.app.Invoke(commandID, params), teec.OriginTrustedApp
}

func (s *Service) registerSharedMemory(w http.ResponseWriter, r *http.Request) {
	var params servicedef.SharedMemoryParams
	if !readJSON(w, r, &params) {
		return
	}
	if params.Size < 0 {
		writeResult(w, teec.ErrorBadParameters, teec.OriginAPI, nil)
		return
	}
	if params.Size > s.MaxSharedMemory {
		writeResult(w, teec.ErrorOutOfMemory, teec.OriginTEE, nil)
		return
	}
	s.lock.Lock()
	s.lastID++
	location := fmt.Sprintf("%s/%d", sharedMemoryPath, s.lastID)
	s.sharedMemory[location] = params.Size
	s.lock.Unlock()

	w.Header().Set("Location", location)
	writeResult(w, teec.Success, teec.OriginTrustedApp, nil)
}

// checkParams verifies that registered memory references point into a live block.
func (s *Service) checkParams(params []servicedef.Param) teec.Result {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, p := range params {
		if p.SharedMemory == "" {
			continue
		}
		path := p.SharedMemory
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
		size, ok := s.sharedMemory[path]
		if !ok || p.Offset+p.Size.OrElse(len(p.Data)) > size {
			return teec.ErrorBadParameters
		}
	}
	return teec.Success
}

func padParams(params []servicedef.Param) []servicedef.Param {
	ret := make([]servicedef.Param, teec.MaxParams)
	copy(ret, params)
	for i := range ret {
		if ret[i].Type == "" {
			ret[i].Type = servicedef.ParamNone
		}
	}
	return ret
}

// WriteOutput stores data in an output buffer parameter. If data does not fit in the
// capacity the client offered, only the needed size is recorded and it returns false.
func WriteOutput(p *servicedef.Param, data []byte) bool {
	capacity := p.Size.OrElse(len(p.Data))
	p.Size = ldvalue.NewOptionalInt(len(data))
	if len(data) > capacity {
		p.Data = nil
		return false
	}
	p.Data = append([]byte(nil), data...)
	return true
}

func readJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	data, err := ioutil.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(data, target)
	}
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(err.Error()))
		return false
	}
	return true
}

func writeResult(w http.ResponseWriter, result teec.Result, origin teec.Origin, params []servicedef.Param) {
	var out []servicedef.Param
	for _, p := range params {
		if !servicedef.IsOutput(p.Type) {
			p.Data = nil
		}
		out = append(out, p)
	}
	status := http.StatusOK
	if w.Header().Get("Location") != "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, servicedef.OperationResult{Result: uint32(result), Origin: uint32(origin), Params: out})
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
