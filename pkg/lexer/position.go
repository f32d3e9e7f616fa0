package lexer

import "fmt"

// Position locates a token in the source. Line is 1-based and is the only
// coordinate that survives into compiled chunks.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Returns a string representation of the Position
func (p Position) String() string {
	return fmt.Sprintf("%d:%d@%d", p.Line, p.Column, p.Offset)
}
