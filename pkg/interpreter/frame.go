package interpreter

import (
	"fmt"

	"loxvm/pkg/parser/codegen"

	"github.com/charmbracelet/log"
)

// Frame represents a function call frame.
type Frame struct {
	Function int // index of the running function in the function table
	IP       int // offset of the next instruction in the function's chunk
	Base     int // stack index of slot 0; the callee value sits just below

	fn *codegen.Function
}

// Line is the source line of the instruction the frame is executing
func (f *Frame) Line() int {
	if f.IP == 0 {
		return f.fn.Chunk.LineAt(0)
	}
	return f.fn.Chunk.LineAt(f.IP - 1)
}

// String renders the frame as one line of a runtime stack trace
func (f *Frame) String() string {
	if f.fn.Name == "" {
		return fmt.Sprintf("[line %d] in script", f.Line())
	}
	return fmt.Sprintf("[line %d] in %s()", f.Line(), f.fn.Name)
}

// call pushes a frame for fn whose argc arguments are the top of the
// stack, with the callee value right below them
func (vm *VM) call(index int, fn *codegen.Function, argc int) error {
	if argc != fn.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argc)
	}

	frame := &Frame{
		Function: index,
		Base:     len(vm.stack) - argc,
		fn:       fn,
	}
	if !vm.frames.Push(frame) {
		return vm.runtimeError("Stack overflow.")
	}

	if vm.trace {
		log.Debug("Call", "function", fn.DisplayName(), "depth", vm.frames.Size(), "base", frame.Base)
	}

	return nil
}

// currentFrame returns the innermost call frame, or nil if none
func (vm *VM) currentFrame() *Frame {
	f, _ := vm.frames.Peek()
	return f
}
