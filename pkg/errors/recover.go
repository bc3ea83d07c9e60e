package errors

import (
	"runtime"
	"strconv"
	"strings"
)

// Recover converts a panic into a *PanicError stored in errp.
// Usage: defer errors.Recover("plugin appicon ios", &err)
func Recover(op string, errp *error) {
	if r := recover(); r != nil {
		*errp = &PanicError{
			Op:         op,
			Value:      r,
			StackTrace: CaptureStack(),
		}
	}
}

// CaptureStack returns the current call stack as a string.
// It skips the first few frames to exclude the CaptureStack call itself.
func CaptureStack() string {
	const maxDepth = 32
	var pcs [maxDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return ""
	}

	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		frame, more := frames.Next()
		sb.WriteString(frame.Function)
		sb.WriteString("\n\t")
		sb.WriteString(frame.File)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(frame.Line))
		sb.WriteString("\n")
		if !more {
			break
		}
	}
	return sb.String()
}
