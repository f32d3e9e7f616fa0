package value

import (
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunction
)

var kindNames = [...]string{
	KindNil:      "nil",
	KindBool:     "bool",
	KindNumber:   "number",
	KindString:   "string",
	KindFunction: "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is a dynamically-typed runtime value. It is a closed union: strings
// and functions are small handles into append-only tables, so a Value is
// always copied, never shared.
type Value struct {
	Kind   Kind    `cbor:"1,keyasint"`
	Bool   bool    `cbor:"2,keyasint,omitempty"`
	Number float64 `cbor:"3,keyasint,omitempty"`
	Handle uint32  `cbor:"4,keyasint,omitempty"` // string handle or function index
}

// Nil returns the nil value.
func Nil() Value {
	return Value{Kind: KindNil}
}

// Bool creates a boolean Value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// Number creates a numeric Value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// String wraps an interned string handle.
func String(h Handle) Value {
	return Value{Kind: KindString, Handle: uint32(h)}
}

// Function wraps an index into the function table.
func Function(index int) Value {
	return Value{Kind: KindFunction, Handle: uint32(index)}
}

func (v Value) IsNumber() bool   { return v.Kind == KindNumber }
func (v Value) IsString() bool   { return v.Kind == KindString }
func (v Value) IsFunction() bool { return v.Kind == KindFunction }

// StringHandle returns the intern handle of a string value.
func (v Value) StringHandle() Handle {
	return Handle(v.Handle)
}

// FunctionIndex returns the function-table index of a function value.
func (v Value) FunctionIndex() int {
	return int(v.Handle)
}

// IsFalsey reports whether v counts as false in a condition: only nil and
// false do.
func (v Value) IsFalsey() bool {
	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return !v.Bool
	default:
		return false
	}
}

// Equal compares two values. Values of different kinds are never equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindNil:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindNumber:
		return v.Number == o.Number
	default:
		return v.Handle == o.Handle
	}
}

// Format renders the value the way print shows it. Strings are resolved
// through the intern table; functions are resolved by the caller through
// FunctionNamer when one is supplied.
func (v Value) Format(strings *Interner, fns FunctionNamer) string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.Number)
	case KindString:
		if strings != nil {
			if s, ok := strings.Lookup(v.StringHandle()); ok {
				return s
			}
		}
		return fmt.Sprintf("<string #%d>", v.Handle)
	case KindFunction:
		if fns != nil {
			if name := fns.FunctionName(v.FunctionIndex()); name != "" {
				return "<fn " + name + ">"
			}
			return "<script>"
		}
		return fmt.Sprintf("<fn #%d>", v.Handle)
	default:
		return "<?>"
	}
}

// String renders the value without table lookups.
func (v Value) String() string {
	return v.Format(nil, nil)
}

// FunctionNamer resolves a function index to its declared name ("" for the
// top-level script).
type FunctionNamer interface {
	FunctionName(index int) string
}

// FormatNumber prints the shortest decimal that round-trips, never in
// exponent form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
