package interpreter

import (
	"fmt"
	"strings"
)

// RuntimeError is a failure while executing bytecode. Trace holds one line
// per active frame, innermost first.
type RuntimeError struct {
	Message string
	Line    int
	Trace   []string
}

func (e *RuntimeError) Error() string {
	lines := make([]string, 0, len(e.Trace)+1)
	lines = append(lines, e.Message)
	lines = append(lines, e.Trace...)
	return strings.Join(lines, "\n")
}

// runtimeError captures the current call stack into a *RuntimeError
func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	frames := vm.frames.Array()

	err := &RuntimeError{
		Message: fmt.Sprintf(format, args...),
		Trace:   make([]string, 0, len(frames)),
	}
	for i := len(frames) - 1; i >= 0; i-- {
		err.Trace = append(err.Trace, frames[i].String())
	}
	if len(frames) > 0 {
		err.Line = frames[len(frames)-1].Line()
	}

	return err
}
