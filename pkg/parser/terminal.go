package parser

import (
	"loxvm/pkg/lexer"
)

// advance moves to the next token, reporting and skipping lexer error tokens
func (p *Parser) advance() {
	p.previous = p.current

	for {
		p.current = p.lexer.NextToken()
		if p.current.Type != lexer.ERROR {
			break
		}

		p.errorAtCurrent(p.current.Literal)
	}
}

// check reports whether the current token has type t
func (p *Parser) check(t lexer.TokenType) bool {
	return p.current.Type == t
}

// match consumes the current token if it has type t
func (p *Parser) match(t lexer.TokenType) bool {
	if !p.check(t) {
		return false
	}

	p.advance()
	return true
}

// consume expects the current token to have type t, reporting msg otherwise
func (p *Parser) consume(t lexer.TokenType, msg string) {
	if p.check(t) {
		p.advance()
		return
	}

	p.errorAtCurrent(msg)
}

// isStatementBoundary reports whether t begins a new declaration or statement
func isStatementBoundary(t lexer.TokenType) bool {
	switch t {
	case lexer.CLASS, lexer.FUN, lexer.VAR, lexer.FOR, lexer.IF, lexer.WHILE, lexer.PRINT, lexer.RETURN:
		return true
	default:
		return false
	}
}
