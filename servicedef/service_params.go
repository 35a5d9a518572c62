package servicedef

import "gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

const (
	CapabilitySharedMemory = "shared-memory"
	CapabilityConcurrency  = "concurrency"

	CommandInvoke = "invoke"
)

// AllCapabilities lists every optional capability that some test depends on.
var AllCapabilities = []string{CapabilitySharedMemory, CapabilityConcurrency}

// Parameter types as they appear on the wire.
const (
	ParamNone                = "none"
	ParamValueInput          = "value-input"
	ParamValueOutput         = "value-output"
	ParamValueInout          = "value-inout"
	ParamMemrefTempInput     = "memref-temp-input"
	ParamMemrefTempOutput    = "memref-temp-output"
	ParamMemrefTempInout     = "memref-temp-inout"
	ParamMemrefWhole         = "memref-whole"
	ParamMemrefPartialInput  = "memref-partial-input"
	ParamMemrefPartialOutput = "memref-partial-output"
	ParamMemrefPartialInout  = "memref-partial-inout"
)

type StatusRep struct {
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// Param is one operation parameter. For buffers, Size is the buffer capacity in a request and
// the number of bytes produced (or needed) in a response.
type Param struct {
	Type         string              `json:"type"`
	A            uint32              `json:"a,omitempty"`
	B            uint32              `json:"b,omitempty"`
	Data         []byte              `json:"data,omitempty"`
	Size         ldvalue.OptionalInt `json:"size,omitempty"`
	SharedMemory string              `json:"sharedMemory,omitempty"`
	Offset       int                 `json:"offset,omitempty"`
}

type OpenSessionParams struct {
	UUID             string              `json:"uuid"`
	ConnectionMethod ldvalue.OptionalInt `json:"connectionMethod,omitempty"`
	ConnectionData   ldvalue.OptionalInt `json:"connectionData,omitempty"`
	Params           []Param             `json:"params,omitempty"`
}

type CommandParams struct {
	Command string        `json:"command"`
	Invoke  *InvokeParams `json:"invoke,omitempty"`
}

type InvokeParams struct {
	CommandID uint32  `json:"commandId"`
	Params    []Param `json:"params,omitempty"`
}

type SharedMemoryParams struct {
	Size  int    `json:"size"`
	Flags uint32 `json:"flags"`
}

// OperationResult is the response to every request that reaches the secure environment.
type OperationResult struct {
	Result uint32  `json:"result"`
	Origin uint32  `json:"origin"`
	Params []Param `json:"params,omitempty"`
}

// IsOutput reports whether the service may write to a parameter of this type.
func IsOutput(paramType string) bool {
	switch paramType {
	case ParamValueOutput, ParamValueInout, ParamMemrefTempOutput, ParamMemrefTempInout,
		ParamMemrefWhole, ParamMemrefPartialOutput, ParamMemrefPartialInout:
		return true
	}
	return false
}

// IsMemref reports whether a parameter of this type carries a buffer.
func IsMemref(paramType string) bool {
	switch paramType {
	case ParamMemrefTempInput, ParamMemrefTempOutput, ParamMemrefTempInout,
		ParamMemrefWhole, ParamMemrefPartialInput, ParamMemrefPartialOutput, ParamMemrefPartialInout:
		return true
	}
	return false
}
