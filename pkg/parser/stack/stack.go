package stack

// Stack is a LIFO stack with an optional capacity limit (0 = unbounded).
type Stack[T any] struct {
	a     []T
	limit int
}

// NewStack creates a new stack instance holding elm, bottom first
func NewStack[T any](elm ...T) *Stack[T] {
	s := &Stack[T]{a: make([]T, 0, len(elm))}
	s.a = append(s.a, elm...)
	return s
}

// NewBounded creates an empty stack that refuses to grow past limit
func NewBounded[T any](limit int) *Stack[T] {
	return &Stack[T]{a: make([]T, 0, limit), limit: limit}
}

// Push adds an element to the top of the stack. It reports false, leaving
// the stack unchanged, when the stack is full.
func (s *Stack[T]) Push(elm T) bool {
	if s.limit > 0 && len(s.a) >= s.limit {
		return false
	}
	s.a = append(s.a, elm)
	return true
}

// Pop removes and returns the top element of the stack
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.a) == 0 {
		return zero, false
	}

	elm := s.a[len(s.a)-1]
	s.a[len(s.a)-1] = zero
	s.a = s.a[:len(s.a)-1]

	return elm, true
}

// Peek returns the top element of the stack without removing it
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.a) == 0 {
		var zero T
		return zero, false
	}

	return s.a[len(s.a)-1], true
}

// Size returns the number of elements on the stack
func (s *Stack[T]) Size() int {
	return len(s.a)
}

// Reset empties the stack
func (s *Stack[T]) Reset() {
	clear(s.a)
	s.a = s.a[:0]
}

// Array returns the underlying array of the stack, bottom first
func (s *Stack[T]) Array() []T {
	return s.a
}
