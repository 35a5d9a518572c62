package teec

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/securetee/xtest/servicedef"
)

// MaxParams is the number of parameter slots in an Operation.
const MaxParams = 4

type ParamType int

const (
	None ParamType = iota
	ValueInput
	ValueOutput
	ValueInout
	MemrefTempInput
	MemrefTempOutput
	MemrefTempInout
	MemrefWhole
	MemrefPartialInput
	MemrefPartialOutput
	MemrefPartialInout
)

var paramTypeNames = map[ParamType]string{
	None:                servicedef.ParamNone,
	ValueInput:          servicedef.ParamValueInput,
	ValueOutput:         servicedef.ParamValueOutput,
	ValueInout:          servicedef.ParamValueInout,
	MemrefTempInput:     servicedef.ParamMemrefTempInput,
	MemrefTempOutput:    servicedef.ParamMemrefTempOutput,
	MemrefTempInout:     servicedef.ParamMemrefTempInout,
	MemrefWhole:         servicedef.ParamMemrefWhole,
	MemrefPartialInput:  servicedef.ParamMemrefPartialInput,
	MemrefPartialOutput: servicedef.ParamMemrefPartialOutput,
	MemrefPartialInout:  servicedef.ParamMemrefPartialInout,
}

func (t ParamType) String() string {
	if name, ok := paramTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

type Value struct {
	A, B uint32
}

// Parameter is one slot of an Operation. Which fields matter depends on Type.
//
// For temporary memory references, Buffer holds the input data or, for outputs, the space the
// application may write into. After a call it is resliced to the number of bytes written, and
// OutputSize is set to the size reported by the application; when the buffer was too short,
// OutputSize is the size needed and Buffer is left unchanged.
type Parameter struct {
	Type       ParamType
	Value      Value
	Buffer     []byte
	Memory     *SharedMemory
	Offset     int
	Size       int
	OutputSize int
}

func ValueIn(a, b uint32) Parameter {
	return Parameter{Type: ValueInput, Value: Value{A: a, B: b}}
}

func ValueOut() Parameter {
	return Parameter{Type: ValueOutput}
}

func ValueInOut(a, b uint32) Parameter {
	return Parameter{Type: ValueInout, Value: Value{A: a, B: b}}
}

func TempIn(buf []byte) Parameter {
	return Parameter{Type: MemrefTempInput, Buffer: buf}
}

func TempOut(buf []byte) Parameter {
	return Parameter{Type: MemrefTempOutput, Buffer: buf}
}

func TempInOut(buf []byte) Parameter {
	return Parameter{Type: MemrefTempInout, Buffer: buf}
}

// RegisteredWhole refers to all of a registered shared memory block.
func RegisteredWhole(shm *SharedMemory) Parameter {
	return Parameter{Type: MemrefWhole, Memory: shm}
}

// RegisteredPartial refers to size bytes at offset within a registered shared memory block.
// paramType must be one of the MemrefPartial types.
func RegisteredPartial(paramType ParamType, shm *SharedMemory, offset, size int) Parameter {
	return Parameter{Type: paramType, Memory: shm, Offset: offset, Size: size}
}

// Operation is the parameter block of an open-session or invoke call. The zero value has no
// parameters.
type Operation struct {
	Params [MaxParams]Parameter
}

// NewOperation fills the parameter slots in order. It panics if given more than MaxParams
// parameters.
func NewOperation(params ...Parameter) *Operation {
	if len(params) > MaxParams {
		panic("teec: an operation has at most 4 parameters")
	}
	op := &Operation{}
	copy(op.Params[:], params)
	return op
}

func (p *Parameter) region() ([]byte, error) {
	switch p.Type {
	case MemrefTempInput, MemrefTempOutput, MemrefTempInout:
		return p.Buffer, nil
	case MemrefWhole, MemrefPartialInput, MemrefPartialOutput, MemrefPartialInout:
		if p.Memory == nil || p.Memory.id == "" {
			return nil, apiError(ErrorBadParameters, "%s parameter without registered shared memory", p.Type)
		}
		if p.Type == MemrefWhole {
			return p.Memory.Buffer, nil
		}
		if p.Offset < 0 || p.Size < 0 || p.Offset+p.Size > len(p.Memory.Buffer) {
			return nil, apiError(ErrorBadParameters, "%s parameter range %d+%d exceeds shared memory size %d",
				p.Type, p.Offset, p.Size, len(p.Memory.Buffer))
		}
		return p.Memory.Buffer[p.Offset : p.Offset+p.Size], nil
	}
	return nil, nil
}

func (op *Operation) toWire() ([]servicedef.Param, error) {
	if op == nil {
		return nil, nil
	}
	ret := make([]servicedef.Param, 0, MaxParams)
	for i := range op.Params {
		p := &op.Params[i]
		name, ok := paramTypeNames[p.Type]
		if !ok {
			return nil, apiError(ErrorBadParameters, "parameter %d has unknown type %d", i, p.Type)
		}
		w := servicedef.Param{Type: name}
		switch p.Type {
		case ValueInput, ValueInout:
			w.A, w.B = p.Value.A, p.Value.B
		}
		if servicedef.IsMemref(name) {
			region, err := p.region()
			if err != nil {
				return nil, err
			}
			w.Size = ldvalue.NewOptionalInt(len(region))
			if p.Type != MemrefTempOutput && p.Type != MemrefPartialOutput {
				w.Data = region
			}
			if p.Memory != nil {
				w.SharedMemory = p.Memory.id
				w.Offset = p.Offset
			}
		}
		ret = append(ret, w)
	}
	return ret, nil
}

// fromWire copies the output parameters of a response back into the operation.
func (op *Operation) fromWire(params []servicedef.Param) {
	if op == nil {
		return
	}
	for i := range op.Params {
		if i >= len(params) {
			return
		}
		p, w := &op.Params[i], params[i]
		name := paramTypeNames[p.Type]
		if !servicedef.IsOutput(name) {
			continue
		}
		if !servicedef.IsMemref(name) {
			p.Value = Value{A: w.A, B: w.B}
			continue
		}
		region, err := p.region()
		if err != nil {
			continue
		}
		p.OutputSize = w.Size.OrElse(len(w.Data))
		if p.OutputSize > len(region) {
			continue
		}
		copy(region, w.Data)
		if p.Memory == nil {
			p.Buffer = p.Buffer[:p.OutputSize]
		}
	}
}
