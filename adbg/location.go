package adbg

import (
	"fmt"
	"path/filepath"
	"runtime"
)

const maxStackDepth = 32

// callerName returns the fully qualified name of the function skip frames above the caller
// of callerName.
func callerName(skip int) string {
	var pc [1]uintptr
	n := runtime.Callers(skip+2, pc[:])
	if n == 0 {
		return ""
	}
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return frame.Function
}

// callSite finds the file and line of the code that called an Expect method, skipping any
// functions registered with Helper. It must be called directly from fail.
func (c *Case) callSite() string {
	var pcs [maxStackDepth]uintptr
	// Skip runtime.Callers, callSite, fail, and the Expect method.
	n := runtime.Callers(4, pcs[:])
	if n == 0 {
		return "unknown:0"
	}
	frames := runtime.CallersFrames(pcs[:n])
	var first runtime.Frame
	for {
		frame, more := frames.Next()
		if first.PC == 0 {
			first = frame
		}
		if !c.isHelper(frame.Function) {
			return formatLocation(frame)
		}
		if !more {
			break
		}
	}
	return formatLocation(first)
}

func formatLocation(frame runtime.Frame) string {
	if frame.File == "" {
		return "unknown:0"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}
