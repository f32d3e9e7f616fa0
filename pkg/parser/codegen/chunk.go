package codegen

import (
	"fmt"

	"loxvm/pkg/value"
)

const (
	// MaxConstants is the pool size addressable by an 8-bit operand.
	MaxConstants = 256
	// MaxJump is the largest distance a 16-bit jump operand can encode.
	MaxJump = 1<<16 - 1
)

// Chunk is the compiled body of one function: the instruction stream, its
// constant pool and a line table holding one source line per code byte.
// A chunk is only mutated while its function is being compiled.
type Chunk struct {
	Code      []byte        `cbor:"1,keyasint"`
	Constants []value.Value `cbor:"2,keyasint"`
	Lines     []int         `cbor:"3,keyasint"`
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 64),
		Constants: make([]value.Value, 0, 8),
		Lines:     make([]int, 0, 64),
	}
}

// Len is the length of the instruction stream in bytes.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// Write appends op and its operand bytes, all attributed to line, and
// returns the offset of the opcode. The operand count must match the
// opcode's width.
func (c *Chunk) Write(op Opcode, line int, operands ...byte) (int, error) {
	info, ok := op.Info()
	if !ok {
		return 0, fmt.Errorf("%w: %#02x", ErrUnknownOpcode, byte(op))
	}
	if len(operands) != info.OperandBytes {
		return 0, fmt.Errorf("%w: %s takes %d operand bytes, got %d",
			ErrOperandWidth, info.Name, info.OperandBytes, len(operands))
	}

	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
	for _, b := range operands {
		c.Code = append(c.Code, b)
		c.Lines = append(c.Lines, line)
	}
	return offset, nil
}

// AddConstant adds v to the pool and returns its index. Equal constants
// share one slot.
func (c *Chunk) AddConstant(v value.Value) int {
	for i, existing := range c.Constants {
		if existing.Kind == v.Kind && existing.Equal(v) {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Constant returns pool entry idx.
func (c *Chunk) Constant(idx int) (value.Value, error) {
	if idx < 0 || idx >= len(c.Constants) {
		return value.Value{}, fmt.Errorf("%w: %d (pool has %d)", ErrConstantIndex, idx, len(c.Constants))
	}
	return c.Constants[idx], nil
}

// ReadInstruction decodes the instruction that starts at offset.
func (c *Chunk) ReadInstruction(offset int) (Instruction, error) {
	if offset < 0 || offset >= len(c.Code) {
		return Instruction{}, fmt.Errorf("%w: offset %d", ErrOutOfRange, offset)
	}

	op := Opcode(c.Code[offset])
	info, ok := op.Info()
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %#02x at %d", ErrUnknownOpcode, byte(op), offset)
	}

	end := offset + 1 + info.OperandBytes
	if end > len(c.Code) {
		return Instruction{}, fmt.Errorf("%w: %s at %d", ErrTruncated, info.Name, offset)
	}

	operand := 0
	for _, b := range c.Code[offset+1 : end] {
		operand = operand<<8 | int(b)
	}

	return Instruction{Offset: offset, Op: op, Operand: operand, Width: 1 + info.OperandBytes}, nil
}

// Instructions decodes the whole stream.
func (c *Chunk) Instructions() ([]Instruction, error) {
	var out []Instruction
	for offset := 0; offset < len(c.Code); {
		in, err := c.ReadInstruction(offset)
		if err != nil {
			return out, err
		}
		out = append(out, in)
		offset = in.Next()
	}
	return out, nil
}

// LineAt returns the source line recorded for offset, or 0 when offset is
// outside the chunk.
func (c *Chunk) LineAt(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// PatchJump back-fills the 16-bit operand of the forward jump whose opcode
// is at offset so that it lands on the current end of the chunk.
func (c *Chunk) PatchJump(offset int) error {
	in, err := c.ReadInstruction(offset)
	if err != nil {
		return err
	}
	if in.Op != OpJump && in.Op != OpJumpIfFalse {
		return fmt.Errorf("%w: cannot patch %s", ErrOperandWidth, in.Op)
	}

	jump := len(c.Code) - in.Next()
	if jump > MaxJump {
		return ErrJumpTooLarge
	}

	c.Code[offset+1] = byte(jump >> 8)
	c.Code[offset+2] = byte(jump)
	return nil
}

// EmitLoop appends a backward jump to loopStart.
func (c *Chunk) EmitLoop(loopStart, line int) error {
	// distance is measured from the end of the LOOP instruction
	jump := len(c.Code) + 3 - loopStart
	if jump > MaxJump {
		return ErrLoopTooLarge
	}
	_, err := c.Write(OpLoop, line, byte(jump>>8), byte(jump))
	return err
}

// Validate checks the structural invariants a chunk loaded from outside the
// compiler must satisfy: one line per byte, decodable instructions, pool
// indexes in range and jump targets inside the chunk.
func (c *Chunk) Validate() error {
	if len(c.Lines) != len(c.Code) {
		return fmt.Errorf("%w: %d lines for %d bytes", ErrLineTable, len(c.Lines), len(c.Code))
	}

	instructions, err := c.Instructions()
	if err != nil {
		return err
	}

	for _, in := range instructions {
		switch in.Op {
		case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal:
			if _, err := c.Constant(in.Operand); err != nil {
				return fmt.Errorf("%s at %d: %w", in.Op, in.Offset, err)
			}
		case OpJump, OpJumpIfFalse:
			if target := in.Next() + in.Operand; target > len(c.Code) {
				return fmt.Errorf("%w: %s at %d -> %d", ErrOutOfRange, in.Op, in.Offset, target)
			}
		case OpLoop:
			if target := in.Next() - in.Operand; target < 0 {
				return fmt.Errorf("%w: %s at %d -> %d", ErrOutOfRange, in.Op, in.Offset, target)
			}
		}
	}
	return nil
}
