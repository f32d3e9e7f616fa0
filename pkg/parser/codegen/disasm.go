package codegen

import (
	"fmt"
	"io"

	"loxvm/pkg/value"
)

// DisassembleChunk writes a listing of every instruction in chunk under a
// `== name ==` header.
func DisassembleChunk(w io.Writer, chunk *Chunk, name string, strings *value.Interner, fns value.FunctionNamer) error {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < chunk.Len(); {
		next, err := DisassembleInstruction(w, chunk, offset, strings, fns)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

// DisassembleInstruction writes one line for the instruction at offset and
// returns the offset of the next one. The line column shows `|` when the
// instruction shares its source line with the previous byte.
func DisassembleInstruction(w io.Writer, chunk *Chunk, offset int, strings *value.Interner, fns value.FunctionNamer) (int, error) {
	in, err := chunk.ReadInstruction(offset)
	if err != nil {
		return offset, err
	}

	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && chunk.LineAt(offset) == chunk.LineAt(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", chunk.LineAt(offset))
	}

	switch in.Op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal:
		constant, err := chunk.Constant(in.Operand)
		if err != nil {
			return offset, err
		}
		fmt.Fprintf(w, "%-16s %4d '%s'\n", in.Op, in.Operand, constant.Format(strings, fns))
	case OpGetLocal, OpSetLocal, OpCall:
		fmt.Fprintf(w, "%-16s %4d\n", in.Op, in.Operand)
	case OpJump, OpJumpIfFalse:
		fmt.Fprintf(w, "%-16s %4d -> %d\n", in.Op, offset, in.Next()+in.Operand)
	case OpLoop:
		fmt.Fprintf(w, "%-16s %4d -> %d\n", in.Op, offset, in.Next()-in.Operand)
	default:
		fmt.Fprintf(w, "%s\n", in.Op)
	}

	return in.Next(), nil
}

// DisassembleProgram lists every function in table order.
func DisassembleProgram(w io.Writer, table *FunctionTable, strings *value.Interner) error {
	for i, fn := range table.All() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		name := fn.DisplayName()
		if fn.Name == "" {
			name = "<script>"
		}
		if err := DisassembleChunk(w, fn.Chunk, name, strings, table); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
