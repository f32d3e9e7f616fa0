package interpreter

import (
	"fmt"

	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"
)

// coreStep is the main single-step execution function
// it returns (halted, error).
func coreStep(vm *VM) (bool, error) {
	frame := vm.currentFrame()
	chunk := frame.fn.Chunk

	in, err := chunk.ReadInstruction(frame.IP)
	if err != nil {
		return false, vm.runtimeError("Invalid instruction at %d: %v.", frame.IP, err)
	}
	frame.IP = in.Next()

	// no instruction grows the stack by more than one slot
	if len(vm.stack) >= vm.stackMax {
		return false, vm.runtimeError("Stack overflow.")
	}
	if len(vm.stack)-frame.Base < operandsNeeded(in) {
		return false, vm.runtimeError("Stack underflow.")
	}

	switch in.Op {
	case codegen.OpConstant:
		v, err := chunk.Constant(in.Operand)
		if err != nil {
			return false, vm.runtimeError("Invalid constant %d.", in.Operand)
		}
		vm.push(v)

	case codegen.OpNil:
		vm.push(value.Nil())

	case codegen.OpTrue:
		vm.push(value.Bool(true))

	case codegen.OpFalse:
		vm.push(value.Bool(false))

	case codegen.OpPop:
		vm.pop()

	case codegen.OpGetLocal:
		slot := frame.Base + in.Operand
		if slot >= len(vm.stack) {
			return false, vm.runtimeError("Invalid local slot %d.", in.Operand)
		}
		vm.push(vm.stack[slot])

	case codegen.OpSetLocal:
		slot := frame.Base + in.Operand
		if slot >= len(vm.stack) {
			return false, vm.runtimeError("Invalid local slot %d.", in.Operand)
		}
		// assignment is an expression: the value stays on the stack
		vm.stack[slot] = vm.peek(0)

	case codegen.OpGetGlobal:
		name, err := vm.globalName(chunk, in.Operand)
		if err != nil {
			return false, err
		}
		v, ok := vm.globals[name]
		if !ok {
			return false, vm.undefined(name)
		}
		vm.push(v)

	case codegen.OpDefineGlobal:
		name, err := vm.globalName(chunk, in.Operand)
		if err != nil {
			return false, err
		}
		vm.globals[name] = vm.pop()

	case codegen.OpSetGlobal:
		name, err := vm.globalName(chunk, in.Operand)
		if err != nil {
			return false, err
		}
		if _, ok := vm.globals[name]; !ok {
			return false, vm.undefined(name)
		}
		vm.globals[name] = vm.peek(0)

	case codegen.OpEqual:
		b := vm.pop()
		a := vm.pop()
		vm.push(value.Bool(a.Equal(b)))

	case codegen.OpGreater, codegen.OpLess, codegen.OpSubtract, codegen.OpMultiply, codegen.OpDivide:
		if err := vm.binaryNumber(in.Op); err != nil {
			return false, err
		}

	case codegen.OpAdd:
		if err := vm.add(); err != nil {
			return false, err
		}

	case codegen.OpNot:
		vm.push(value.Bool(vm.pop().IsFalsey()))

	case codegen.OpNegate:
		if !vm.peek(0).IsNumber() {
			return false, vm.runtimeError("Operand must be a number.")
		}
		vm.push(value.Number(-vm.pop().Number))

	case codegen.OpPrint:
		fmt.Fprintln(vm.out, vm.Format(vm.pop()))

	case codegen.OpJump:
		frame.IP += in.Operand

	case codegen.OpJumpIfFalse:
		// the condition is left for the following OP_POP
		if vm.peek(0).IsFalsey() {
			frame.IP += in.Operand
		}

	case codegen.OpLoop:
		frame.IP -= in.Operand

	case codegen.OpCall:
		argc := in.Operand
		callee := vm.peek(argc)
		if !callee.IsFunction() {
			return false, vm.runtimeError("Can only call functions.")
		}
		fn, err := vm.funcs.Get(callee.FunctionIndex())
		if err != nil {
			return false, vm.runtimeError("Invalid function %d.", callee.FunctionIndex())
		}
		if err := vm.call(callee.FunctionIndex(), fn, argc); err != nil {
			return false, err
		}

	case codegen.OpReturn:
		result := vm.pop()
		done, _ := vm.frames.Pop()

		// drop the callee value, its arguments and its locals
		clear(vm.stack[done.Base-1:])
		vm.stack = vm.stack[:done.Base-1]

		if vm.frames.Size() == 0 {
			return true, nil
		}
		vm.push(result)

	default:
		return false, vm.runtimeError("Unknown opcode %d.", byte(in.Op))
	}

	return false, nil
}

// operandsNeeded is how many values in cannot run without, counted from
// the frame's base. Compiled code always has them; images may not.
func operandsNeeded(in codegen.Instruction) int {
	switch in.Op {
	case codegen.OpPop, codegen.OpSetLocal, codegen.OpDefineGlobal, codegen.OpSetGlobal,
		codegen.OpNot, codegen.OpNegate, codegen.OpPrint, codegen.OpJumpIfFalse, codegen.OpReturn:
		return 1
	case codegen.OpEqual, codegen.OpGreater, codegen.OpLess, codegen.OpAdd,
		codegen.OpSubtract, codegen.OpMultiply, codegen.OpDivide:
		return 2
	case codegen.OpCall:
		return in.Operand + 1
	default:
		return 0
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

// peek returns the value distance slots below the top of the stack
func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// globalName reads the interned name a global instruction refers to
func (vm *VM) globalName(chunk *codegen.Chunk, idx int) (value.Handle, error) {
	v, err := chunk.Constant(idx)
	if err != nil || !v.IsString() {
		return 0, vm.runtimeError("Invalid global name constant %d.", idx)
	}
	return v.StringHandle(), nil
}

func (vm *VM) undefined(name value.Handle) error {
	s, _ := vm.strings.Lookup(name)
	return vm.runtimeError("Undefined variable '%s'.", s)
}

// binaryNumber applies an arithmetic or comparison operator to the two top
// numbers
func (vm *VM) binaryNumber(op codegen.Opcode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}

	b := vm.pop().Number
	a := vm.pop().Number

	switch op {
	case codegen.OpGreater:
		vm.push(value.Bool(a > b))
	case codegen.OpLess:
		vm.push(value.Bool(a < b))
	case codegen.OpSubtract:
		vm.push(value.Number(a - b))
	case codegen.OpMultiply:
		vm.push(value.Number(a * b))
	case codegen.OpDivide:
		vm.push(value.Number(a / b))
	}

	return nil
}

// add sums two numbers or concatenates two strings; the result of a
// concatenation is interned like any other string
func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.Number + b.Number))

	case a.IsString() && b.IsString():
		as, _ := vm.strings.Lookup(a.StringHandle())
		bs, _ := vm.strings.Lookup(b.StringHandle())
		vm.pop()
		vm.pop()
		vm.push(value.String(vm.strings.Intern(as + bs)))

	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}

	return nil
}

// traceStep writes the operand stack and the instruction about to run
func (vm *VM) traceStep() {
	frame := vm.currentFrame()

	fmt.Fprint(vm.out, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.out, "[ %s ]", vm.Format(v))
	}
	fmt.Fprintln(vm.out)

	codegen.DisassembleInstruction(vm.out, frame.fn.Chunk, frame.IP, vm.strings, vm.funcs)
}
