package codegen

import "fmt"

// Function is one compiled callable. The top-level script is a Function with
// an empty name and zero arity.
type Function struct {
	Name         string `cbor:"1,keyasint"`
	Arity        int    `cbor:"2,keyasint"`
	UpvalueCount int    `cbor:"3,keyasint,omitempty"` // always 0: no closures yet
	Chunk        *Chunk `cbor:"4,keyasint"`
}

// NewFunction creates a function with an empty chunk.
func NewFunction(name string) *Function {
	return &Function{Name: name, Chunk: NewChunk()}
}

// DisplayName is how stack traces and disassembly headers name f.
func (f *Function) DisplayName() string {
	if f.Name == "" {
		return "script"
	}
	return f.Name
}

// FunctionTable is the append-only table of compiled functions. Values refer
// to functions by their index in it.
type FunctionTable struct {
	funcs []*Function
}

// NewFunctionTable creates an empty table.
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{funcs: make([]*Function, 0, 8)}
}

// Add appends fn and returns its index.
func (t *FunctionTable) Add(fn *Function) int {
	t.funcs = append(t.funcs, fn)
	return len(t.funcs) - 1
}

// Get returns function idx.
func (t *FunctionTable) Get(idx int) (*Function, error) {
	if idx < 0 || idx >= len(t.funcs) {
		return nil, fmt.Errorf("%w: %d", ErrNoFunction, idx)
	}
	return t.funcs[idx], nil
}

// Len is the number of functions in the table.
func (t *FunctionTable) Len() int {
	return len(t.funcs)
}

// All returns the functions in index order.
func (t *FunctionTable) All() []*Function {
	return append([]*Function(nil), t.funcs...)
}

// FunctionName implements value.FunctionNamer.
func (t *FunctionTable) FunctionName(idx int) string {
	if fn, err := t.Get(idx); err == nil {
		return fn.Name
	}
	return ""
}
