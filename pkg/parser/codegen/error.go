package codegen

import "errors"

// Encoding and decoding failures. The compiler turns the first group into
// user-facing syntax errors; the VM reports the second group as internal
// faults.
var (
	ErrTooManyConstants = errors.New("too many constants in one chunk")
	ErrJumpTooLarge     = errors.New("too much code to jump over")
	ErrLoopTooLarge     = errors.New("loop body too large")

	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrOperandWidth  = errors.New("operand width mismatch")
	ErrTruncated     = errors.New("truncated instruction")
	ErrOutOfRange    = errors.New("offset out of range")
	ErrConstantIndex = errors.New("constant index out of range")
	ErrLineTable     = errors.New("line table does not match code")
	ErrNoFunction    = errors.New("no such function")
)
