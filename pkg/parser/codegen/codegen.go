package codegen

import (
	"loxvm/pkg/value"
)

// Codegen emits instructions into one function's chunk. Every instruction
// is attributed to the line last set with SetLine.
type Codegen struct {
	chunk *Chunk // chunk being written
	line  int    // source line of the token being compiled
}

// NewCodegen creates a code generator writing into chunk
func NewCodegen(chunk *Chunk) *Codegen {
	return &Codegen{chunk: chunk, line: 1}
}

// Chunk returns the chunk being written
func (c *Codegen) Chunk() *Chunk {
	return c.chunk
}

// SetLine sets the line attributed to subsequently emitted code
func (c *Codegen) SetLine(line int) {
	c.line = line
}

// Offset is where the next instruction will be written
func (c *Codegen) Offset() int {
	return c.chunk.Len()
}

// Emit appends one instruction and returns its offset
func (c *Codegen) Emit(op Opcode, operands ...byte) (int, error) {
	return c.chunk.Write(op, c.line, operands...)
}

// EmitOps appends a run of operand-less instructions
func (c *Codegen) EmitOps(ops ...Opcode) error {
	for _, op := range ops {
		if _, err := c.Emit(op); err != nil {
			return err
		}
	}
	return nil
}

// MakeConstant adds v to the pool and returns its 8-bit index
func (c *Codegen) MakeConstant(v value.Value) (byte, error) {
	idx := c.chunk.AddConstant(v)
	if idx >= MaxConstants {
		return 0, ErrTooManyConstants
	}
	return byte(idx), nil
}

// EmitConstant emits a load of v
func (c *Codegen) EmitConstant(v value.Value) error {
	idx, err := c.MakeConstant(v)
	if err != nil {
		return err
	}
	_, err = c.Emit(OpConstant, idx)
	return err
}

// EmitJump emits a forward jump with a placeholder target and returns the
// offset to hand to PatchJump
func (c *Codegen) EmitJump(op Opcode) (int, error) {
	return c.Emit(op, 0xff, 0xff)
}

// PatchJump points the jump at offset to the current end of the chunk
func (c *Codegen) PatchJump(offset int) error {
	return c.chunk.PatchJump(offset)
}

// EmitLoop emits a backward jump to loopStart
func (c *Codegen) EmitLoop(loopStart int) error {
	return c.chunk.EmitLoop(loopStart, c.line)
}

// EmitReturn emits the implicit `return nil;` that ends every body
func (c *Codegen) EmitReturn() error {
	return c.EmitOps(OpNil, OpReturn)
}
