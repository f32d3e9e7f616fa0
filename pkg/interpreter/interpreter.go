package interpreter

import (
	"errors"
	"io"
	"os"

	"loxvm/pkg/image"
	"loxvm/pkg/parser"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/parser/stack"
	"loxvm/pkg/value"

	"github.com/charmbracelet/log"
)

// DefaultFramesMax is the call depth at which a program overflows.
const DefaultFramesMax = 64

// SlotsPerFrame is how many operand slots each frame may use on average.
const SlotsPerFrame = 256

// VM executes bytecode produced by the parser. It owns the intern and
// function tables, so code compiled by successive Interpret calls shares
// strings and globals.
type VM struct {
	strings *value.Interner
	funcs   *codegen.FunctionTable
	globals map[value.Handle]value.Value // global variables (interned name -> value)

	stack     []value.Value        // operand stack
	stackMax  int                  // operand stack capacity
	frames    *stack.Stack[*Frame] // call stack, innermost on top
	framesMax int

	out    io.Writer // output writer for print
	errOut io.Writer // runtime diagnostics
	trace  bool      // dump stack and instruction before each step

	maxSteps int // maximum steps (0 = unlimited)
	steps    int // steps executed
}

type Option func(*VM)

// WithWriter sets the output writer for print statements
func WithWriter(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithErrWriter sets where runtime errors and their stack traces are written
func WithErrWriter(w io.Writer) Option {
	return func(vm *VM) { vm.errOut = w }
}

// WithMaxSteps sets a maximum number of steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(vm *VM) { vm.maxSteps = n }
}

// WithTrace enables execution tracing to the output writer
func WithTrace(enabled bool) Option {
	return func(vm *VM) { vm.trace = enabled }
}

// WithFramesMax bounds the call depth; the operand stack grows with it
func WithFramesMax(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.framesMax = n
		}
	}
}

// NewVM creates a VM with empty tables
func NewVM(opts ...Option) *VM {
	vm := &VM{
		strings:   value.NewInterner(),
		funcs:     codegen.NewFunctionTable(),
		globals:   make(map[value.Handle]value.Value),
		framesMax: DefaultFramesMax,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}

	for _, o := range opts {
		o(vm)
	}

	vm.stackMax = vm.framesMax * SlotsPerFrame
	vm.stack = make([]value.Value, 0, vm.stackMax)
	vm.frames = stack.NewBounded[*Frame](vm.framesMax)

	return vm
}

// Interpret compiles source into the VM's tables and runs it. Compile
// failures are returned as *parser.CompileError without running anything.
func (vm *VM) Interpret(source string) error {
	script, err := parser.Compile(source, vm.strings, vm.funcs)
	if err != nil {
		return err
	}

	return vm.RunProgram(script)
}

// Load replaces the VM's tables with those of a compiled image and clears
// globals. Run the program with RunProgram(img.Script).
func (vm *VM) Load(img *image.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}

	vm.strings, vm.funcs = img.Tables()
	vm.globals = make(map[value.Handle]value.Value)
	vm.resetStack()

	log.Debug("Loaded image", "functions", vm.funcs.Len(), "strings", vm.strings.Len())
	return nil
}

// RunProgram calls function script with no arguments and runs it to
// completion
func (vm *VM) RunProgram(script int) error {
	if err := vm.Start(script); err != nil {
		return err
	}

	return vm.Run()
}

// Start sets up a call of function script without executing anything;
// drive it with Step or Run
func (vm *VM) Start(script int) error {
	fn, err := vm.funcs.Get(script)
	if err != nil {
		return err
	}

	vm.resetStack()
	vm.steps = 0

	vm.push(value.Function(script))
	if err := vm.call(script, fn, 0); err != nil {
		vm.report(err)
		return err
	}

	return nil
}

// Step executes a single instruction, returning (halted, error)
func (vm *VM) Step() (bool, error) {
	if vm.frames.Size() == 0 {
		return true, nil
	}

	if vm.maxSteps > 0 && vm.steps >= vm.maxSteps {
		vm.resetStack()
		return false, ErrMaxStepsExceeded
	}

	if vm.trace {
		vm.traceStep()
	}

	halted, err := coreStep(vm)
	vm.steps++

	if err != nil {
		vm.report(err)
		return false, err
	}

	return halted, nil
}

// Run executes until the outermost frame returns or an error occurs
func (vm *VM) Run() error {
	for {
		halted, err := vm.Step()
		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}

// Strings returns the VM's intern table
func (vm *VM) Strings() *value.Interner {
	return vm.strings
}

// Functions returns the VM's function table
func (vm *VM) Functions() *codegen.FunctionTable {
	return vm.funcs
}

// Global returns the value bound to a global name
func (vm *VM) Global(name string) (value.Value, bool) {
	h, ok := vm.strings.Contains(name)
	if !ok {
		return value.Nil(), false
	}

	v, ok := vm.globals[h]
	return v, ok
}

// PC returns the function index and instruction offset the innermost frame
// runs next, or -1, -1 when the VM is idle
func (vm *VM) PC() (int, int) {
	f := vm.currentFrame()
	if f == nil {
		return -1, -1
	}
	return f.Function, f.IP
}

// StackDepth is the number of values on the operand stack
func (vm *VM) StackDepth() int {
	return len(vm.stack)
}

// FrameDepth is the number of active call frames
func (vm *VM) FrameDepth() int {
	return vm.frames.Size()
}

// Steps is the number of instructions executed by the last run
func (vm *VM) Steps() int {
	return vm.steps
}

// Format renders v the way print does
func (vm *VM) Format(v value.Value) string {
	return v.Format(vm.strings, vm.funcs)
}

func (vm *VM) resetStack() {
	clear(vm.stack)
	vm.stack = vm.stack[:0]
	vm.frames.Reset()
}

// report writes a runtime error and its trace to the error writer, then
// unwinds the VM so it can be reused
func (vm *VM) report(err error) {
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		io.WriteString(vm.errOut, rerr.Error()+"\n")
	}
	vm.resetStack()
}

var (
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")
)
