package teec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/securetee/xtest/framework"
	"github.com/securetee/xtest/servicedef"

	"github.com/google/uuid"
)

// UUID identifies a trusted application.
type UUID = uuid.UUID

type LoginMethod int

const (
	LoginPublic      LoginMethod = 0
	LoginUser        LoginMethod = 1
	LoginGroup       LoginMethod = 2
	LoginApplication LoginMethod = 4
)

// Client talks to a client service that fronts the secure environment. It is safe for
// concurrent use; sessions opened through it are not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     framework.Logger
}

// Session is an open session with one trusted application.
type Session struct {
	client      *Client
	resourceURL string
	uuid        UUID
	logger      framework.Logger
	closed      bool
}

// SharedMemory is a block of memory registered with the secure environment. Buffer is the
// caller's copy of the contents: it is sent with each call that references the block and
// updated from the response.
type SharedMemory struct {
	Buffer []byte
	Flags  uint32
	id     string
	client *Client
}

// Shared memory flags.
const (
	MemInput  uint32 = 1
	MemOutput uint32 = 2
)

// NewClient creates a client for the service at baseURL. All requests are logged to logger,
// which may be nil.
func NewClient(baseURL string, logger framework.Logger) *Client {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// WithLogger returns a copy of the client that logs to a different destination, such as the
// debug output of one test.
func (c *Client) WithLogger(logger framework.Logger) *Client {
	ret := *c
	if logger == nil {
		logger = framework.NullLogger()
	}
	ret.logger = logger
	return &ret
}

func (c *Client) Logger() framework.Logger {
	return c.logger
}

// QueryStatus polls the service until it answers or the timeout elapses, and returns the
// status it reports.
func (c *Client) QueryStatus(timeout time.Duration, output io.Writer) (servicedef.StatusRep, error) {
	fmt.Fprintf(output, "Connecting to client service at %s", c.baseURL)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := c.httpClient.Get(c.baseURL)
		if err == nil {
			fmt.Fprintln(output)
			respData, err := readBody(resp)
			if err != nil {
				return servicedef.StatusRep{}, err
			}
			if resp.StatusCode != 200 {
				return servicedef.StatusRep{}, fmt.Errorf("client service returned status code %d", resp.StatusCode)
			}
			if len(respData) == 0 {
				fmt.Fprintf(output, "Status query successful, but service provided no metadata\n")
				return servicedef.StatusRep{}, nil
			}
			fmt.Fprintf(output, "Status query returned metadata: %s\n", string(respData))
			var status servicedef.StatusRep
			if err := json.Unmarshal(respData, &status); err != nil {
				return servicedef.StatusRep{}, fmt.Errorf("malformed status response from client service: %s", string(respData))
			}
			return status, nil
		}
		if !time.Now().Before(deadline) {
			return servicedef.StatusRep{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

// StopService tells the client service that it should exit.
func (c *Client) StopService() error {
	req, _ := http.NewRequest("DELETE", c.baseURL, nil)
	resp, err := c.httpClient.Do(req)
	if err == nil {
		_, _ = readBody(resp)
		if resp.StatusCode >= 300 {
			return fmt.Errorf("service returned HTTP %d", resp.StatusCode)
		}
	}
	// It's normal for the request to return an I/O error if the service immediately quit before sending a response
	return nil
}

// OpenSession opens a session with the trusted application id. op may be nil; otherwise its
// output parameters are updated from the response.
func (c *Client) OpenSession(id UUID, login LoginMethod, op *Operation) (*Session, error) {
	params, err := op.toWire()
	if err != nil {
		return nil, err
	}
	sessionParams := servicedef.OpenSessionParams{UUID: id.String(), Params: params}
	if login != LoginPublic {
		sessionParams.ConnectionMethod = ldvalue.NewOptionalInt(int(login))
	}

	c.logger.Printf("Opening session with %s", id)
	resourceURL, result, err := c.create(c.baseURL, sessionParams)
	if err != nil {
		return nil, err
	}
	op.fromWire(result.Params)
	return &Session{client: c, resourceURL: resourceURL, uuid: id, logger: c.logger}, nil
}

func (s *Session) UUID() UUID {
	return s.uuid
}

// Invoke runs a command in the session's trusted application.
func (s *Session) Invoke(commandID uint32, op *Operation) error {
	params, err := op.toWire()
	if err != nil {
		return err
	}
	command := servicedef.CommandParams{
		Command: servicedef.CommandInvoke,
		Invoke:  &servicedef.InvokeParams{CommandID: commandID, Params: params},
	}
	data, _ := json.Marshal(command)
	s.logger.Printf("Invoking command %d on %s", commandID, s.uuid)
	resp, err := s.client.httpClient.Post(s.resourceURL, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return commsError("invoke request failed: %w", err)
	}
	var result servicedef.OperationResult
	if err := decodeResult(resp, &result); err != nil {
		return err
	}
	op.fromWire(result.Params)
	return resultError(result)
}

// Close tells the service to dispose of the session. Closing a session again does nothing.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Printf("Closing session with %s", s.uuid)
	return s.client.delete(s.resourceURL)
}

// RegisterSharedMemory registers a block of size bytes. flags is a combination of MemInput
// and MemOutput.
func (c *Client) RegisterSharedMemory(size int, flags uint32) (*SharedMemory, error) {
	c.logger.Printf("Registering %d bytes of shared memory", size)
	resourceURL, _, err := c.create(c.baseURL+"/shm", servicedef.SharedMemoryParams{Size: size, Flags: flags})
	if err != nil {
		return nil, err
	}
	return &SharedMemory{Buffer: make([]byte, size), Flags: flags, id: resourceURL, client: c}, nil
}

// Release unregisters the block. It must not be referenced by any later call.
func (m *SharedMemory) Release() error {
	if m.id == "" {
		return nil
	}
	err := m.client.delete(m.id)
	m.id = ""
	return err
}

// create posts params to url. The service answers with an OperationResult, and with a
// Location header naming the new resource when the result is Success.
func (c *Client) create(url string, params interface{}) (string, servicedef.OperationResult, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", servicedef.OperationResult{}, apiError(ErrorBadParameters, "%w", err)
	}
	c.logger.Printf("Request parameters: %s", string(data))
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", servicedef.OperationResult{}, commsError("request failed: %w", err)
	}
	var result servicedef.OperationResult
	if err := decodeResult(resp, &result); err != nil {
		return "", result, err
	}
	if err := resultError(result); err != nil {
		return "", result, err
	}
	resourceURL := resp.Header.Get("Location")
	if resourceURL == "" {
		return "", result, commsError("client service did not return a Location header with a resource URL")
	}
	if !strings.HasPrefix(resourceURL, "http:") && !strings.HasPrefix(resourceURL, "https:") {
		resourceURL = c.baseURL + resourceURL
	}
	return resourceURL, result, nil
}

func (c *Client) delete(url string) error {
	req, err := http.NewRequest("DELETE", url, nil)
	if err != nil {
		return apiError(ErrorBadParameters, "%w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return commsError("DELETE request failed: %w", err)
	}
	_, _ = readBody(resp)
	if resp.StatusCode != 200 && resp.StatusCode != 204 {
		return commsError("DELETE request to client service returned HTTP status %d", resp.StatusCode)
	}
	return nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	return ioutil.ReadAll(resp.Body)
}

func decodeResult(resp *http.Response, result *servicedef.OperationResult) error {
	data, err := readBody(resp)
	if err != nil {
		return commsError("reading response failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var message string
		if len(data) > 0 {
			message = ": " + string(data)
		}
		return commsError("unexpected response status %d from client service%s", resp.StatusCode, message)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return commsError("malformed response from client service: %w", err)
	}
	return nil
}

func resultError(result servicedef.OperationResult) error {
	if Result(result.Result) == Success {
		return nil
	}
	return &Error{Result: Result(result.Result), Origin: Origin(result.Origin)}
}
