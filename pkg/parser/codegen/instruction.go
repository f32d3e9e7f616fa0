package codegen

import (
	"fmt"
)

// Opcode selects the operation of one instruction.
type Opcode byte

// Literals and stack
const (
	OpConstant Opcode = iota // push constant (8-bit pool index)
	OpNil                    // push nil
	OpTrue                   // push true
	OpFalse                  // push false
	OpPop                    // discard top of stack
)

// Variables
const (
	OpGetLocal     Opcode = iota + 0x10 // push local (8-bit slot)
	OpSetLocal                          // store top into local (8-bit slot), no pop
	OpGetGlobal                         // push global (8-bit name constant)
	OpDefineGlobal                      // bind global to top, pop (8-bit name constant)
	OpSetGlobal                         // store top into existing global (8-bit name constant), no pop
)

// Arithmetic and comparison
const (
	OpEqual Opcode = iota + 0x20
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate
)

// Statements and control flow
const (
	OpPrint       Opcode = iota + 0x30
	OpJump                // ip += offset (16-bit)
	OpJumpIfFalse         // if top is falsey, ip += offset (16-bit); does not pop
	OpLoop                // ip -= offset (16-bit)
	OpCall                // call callee below N args (8-bit argc)
	OpReturn              // return top of stack to caller
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string // mnemonic
	OperandBytes int    // width of the operand that follows the opcode
}

var opcodeTable = map[Opcode]OpcodeInfo{
	OpConstant: {"OP_CONSTANT", 1},
	OpNil:      {"OP_NIL", 0},
	OpTrue:     {"OP_TRUE", 0},
	OpFalse:    {"OP_FALSE", 0},
	OpPop:      {"OP_POP", 0},

	OpGetLocal:     {"OP_GET_LOCAL", 1},
	OpSetLocal:     {"OP_SET_LOCAL", 1},
	OpGetGlobal:    {"OP_GET_GLOBAL", 1},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", 1},
	OpSetGlobal:    {"OP_SET_GLOBAL", 1},

	OpEqual:    {"OP_EQUAL", 0},
	OpGreater:  {"OP_GREATER", 0},
	OpLess:     {"OP_LESS", 0},
	OpAdd:      {"OP_ADD", 0},
	OpSubtract: {"OP_SUBTRACT", 0},
	OpMultiply: {"OP_MULTIPLY", 0},
	OpDivide:   {"OP_DIVIDE", 0},
	OpNot:      {"OP_NOT", 0},
	OpNegate:   {"OP_NEGATE", 0},

	OpPrint:       {"OP_PRINT", 0},
	OpJump:        {"OP_JUMP", 2},
	OpJumpIfFalse: {"OP_JUMP_IF_FALSE", 2},
	OpLoop:        {"OP_LOOP", 2},
	OpCall:        {"OP_CALL", 1},
	OpReturn:      {"OP_RETURN", 0},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() (OpcodeInfo, bool) {
	info, ok := opcodeTable[op]
	return info, ok
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// OperandBytes returns the operand width of op, 0 for unknown opcodes.
func (op Opcode) OperandBytes() int {
	info, _ := op.Info()
	return info.OperandBytes
}

// String returns the mnemonic.
func (op Opcode) String() string {
	if info, ok := op.Info(); ok {
		return info.Name
	}
	return fmt.Sprintf("OP_UNKNOWN_%02X", byte(op))
}

// Opcodes lists every defined opcode in ascending order.
func Opcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeTable))
	for i := 0; i < 256; i++ {
		if op := Opcode(i); op.Valid() {
			ops = append(ops, op)
		}
	}
	return ops
}

// Instruction is one decoded instruction.
type Instruction struct {
	Offset  int    // position of the opcode byte
	Op      Opcode // operation
	Operand int    // decoded operand, 0 when the opcode has none
	Width   int    // total bytes consumed, opcode included
}

// Next is the offset of the following instruction.
func (i Instruction) Next() int {
	return i.Offset + i.Width
}

// String returns a string representation of the instruction
func (i Instruction) String() string {
	if i.Width == 1 {
		return fmt.Sprintf("%04d %s", i.Offset, i.Op)
	}
	return fmt.Sprintf("%04d %s %d", i.Offset, i.Op, i.Operand)
}
