package lexer

type Lexer struct {
	input    string // input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // current line number for error reporting
	column   int    // current column number for error reporting
}

// Create a new lexer instance
func NewLexer(s string) *Lexer {
	return &Lexer{
		input:    s,
		length:   len(s),
		position: 0,
		line:     1,
		column:   1,
	}
}

// Get the next token from the input
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	// End of input
	if l.position >= l.length {
		return NewToken(EOF, "", "", l.currentPosition())
	}

	start := l.currentPosition()
	remaining := l.input[l.position:]
	tokenType, lexeme, matched := MatchToken(remaining)

	if !matched {
		msg := "Unexpected character."
		if len(lexeme) > 0 && lexeme[0] == '"' {
			msg = "Unterminated string."
		}
		l.advance(len(lexeme))
		return NewToken(ERROR, lexeme, msg, start)
	}

	var literal string
	switch tokenType {
	case STRING:
		// Remove the surrounding quotes from the lexeme
		literal = lexeme[1 : len(lexeme)-1]
	case NUM, ID:
		literal = lexeme
	}

	l.advance(len(lexeme))
	return NewToken(tokenType, lexeme, literal, start)
}

// View next token without advancing the position
func (l *Lexer) Peek() Token {
	// save state
	cpos := l.position
	cline := l.line
	ccol := l.column

	token := l.NextToken()

	// restore state
	l.position = cpos
	l.line = cline
	l.column = ccol

	return token
}

// Skip whitespace and comments
func (l *Lexer) skipWhitespace() {
	for l.position < l.length {
		ch := l.input[l.position]

		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.advance(1)
		} else if l.position+1 < l.length && ch == '/' && l.input[l.position+1] == '/' {
			// comment runs to end of line; the newline itself is left for the loop
			for l.position < l.length && l.input[l.position] != '\n' {
				l.advance(1)
			}
		} else {
			break
		}
	}
}

// Advance the lexer position by n characters
func (l *Lexer) advance(n int) {
	for range n {
		if l.position >= l.length {
			break
		}

		if l.input[l.position] == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}

		l.position++
	}
}

// Get the current position of the lexer
func (l *Lexer) currentPosition() Position {
	return Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}
