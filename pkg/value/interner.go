package value

// Handle identifies one interned string. Two strings are equal iff their
// handles are.
type Handle uint32

// Interner canonicalises string contents to handles. It only grows: once a
// string is interned, both directions of lookup succeed for the rest of the
// run. Not safe for concurrent use.
type Interner struct {
	handles map[string]Handle
	strings []string
}

// NewInterner creates an empty intern table.
func NewInterner() *Interner {
	return &Interner{
		handles: make(map[string]Handle),
		strings: make([]string, 0, 64),
	}
}

// NewInternerFrom rebuilds a table whose handles match the position of each
// string in ss. Duplicate entries keep the first handle.
func NewInternerFrom(ss []string) *Interner {
	in := NewInterner()
	for _, s := range ss {
		in.Intern(s)
	}
	return in
}

// Intern returns the handle for s, allocating one the first time s is seen.
func (in *Interner) Intern(s string) Handle {
	if h, ok := in.handles[s]; ok {
		return h
	}

	h := Handle(len(in.strings))
	in.handles[s] = h
	in.strings = append(in.strings, s)
	return h
}

// Lookup returns the contents of h.
func (in *Interner) Lookup(h Handle) (string, bool) {
	if int(h) >= len(in.strings) {
		return "", false
	}
	return in.strings[h], true
}

// Contains reports whether s has been interned, without interning it.
func (in *Interner) Contains(s string) (Handle, bool) {
	h, ok := in.handles[s]
	return h, ok
}

// Len is the number of distinct strings interned so far.
func (in *Interner) Len() int {
	return len(in.strings)
}

// Strings returns a copy of the table contents in handle order.
func (in *Interner) Strings() []string {
	return append([]string(nil), in.strings...)
}
