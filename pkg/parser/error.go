package parser

import (
	"errors"
	"fmt"
	"strings"

	"loxvm/pkg/lexer"
	"loxvm/pkg/parser/codegen"
)

// SyntaxError is one compile-time diagnostic.
type SyntaxError struct {
	Line    int
	Where   string // " at 'x'", " at end", or empty for lexical errors
	Message string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// CompileError carries every diagnostic found in one compile pass.
type CompileError struct {
	Errors []SyntaxError
}

func (e *CompileError) Error() string {
	lines := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		lines[i] = se.Error()
	}
	return strings.Join(lines, "\n")
}

// error reports msg at the token just consumed
func (p *Parser) error(msg string) {
	p.errorAt(p.previous, msg)
}

// errorAtCurrent reports msg at the token about to be consumed
func (p *Parser) errorAtCurrent(msg string) {
	p.errorAt(p.current, msg)
}

// errorAt records a diagnostic unless the parser is already panicking; the
// first error of a statement is the only one that gets reported.
func (p *Parser) errorAt(tok lexer.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true

	var where string
	switch tok.Type {
	case lexer.EOF:
		where = " at end"
	case lexer.ERROR:
		// the message already describes the offending text
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}

	p.errors = append(p.errors, SyntaxError{Line: tok.Line(), Where: where, Message: msg})
}

// emitError turns an encoding failure into a diagnostic
func (p *Parser) emitError(err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, codegen.ErrTooManyConstants):
		p.error("Too many constants in one chunk.")
	case errors.Is(err, codegen.ErrJumpTooLarge):
		p.error("Too much code to jump over.")
	case errors.Is(err, codegen.ErrLoopTooLarge):
		p.error("Loop body too large.")
	default:
		p.error(err.Error())
	}
}

// synchronize leaves panic mode by skipping tokens until just after a
// semicolon or just before a keyword that starts a statement
func (p *Parser) synchronize() {
	p.panicMode = false

	for p.current.Type != lexer.EOF {
		if p.previous.Type == lexer.SEMICOLON {
			return
		}
		if isStatementBoundary(p.current.Type) {
			return
		}

		p.advance()
	}
}
