package parser

import (
	"strconv"

	"loxvm/pkg/lexer"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"
)

func (p *Parser) expression() {
	p.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses a prefix expression and then every infix operator
// that binds at least as tightly as prec
func (p *Parser) parsePrecedence(prec Precedence) {
	p.advance()

	prefix := p.rule(p.previous.Type).Prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(p, canAssign)

	for prec <= p.rule(p.current.Type).Precedence {
		p.advance()
		infix := p.rule(p.previous.Type).Infix
		infix(p, canAssign)
	}

	if canAssign && p.match(lexer.ASSIGN) {
		p.error("Invalid assignment target.")
	}
}

func (p *Parser) number(bool) {
	n, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(value.Number(n))
}

func (p *Parser) stringLiteral(bool) {
	p.emitConstant(value.String(p.strings.Intern(p.previous.Literal)))
}

func (p *Parser) literal(bool) {
	switch p.previous.Type {
	case lexer.FALSE:
		p.emitOps(codegen.OpFalse)
	case lexer.TRUE:
		p.emitOps(codegen.OpTrue)
	case lexer.NIL:
		p.emitOps(codegen.OpNil)
	}
}

func (p *Parser) grouping(bool) {
	p.expression()
	p.consume(lexer.RPAREN, "Expect ')' after expression.")
}

func (p *Parser) unary(bool) {
	op := p.previous

	p.parsePrecedence(PrecUnary)

	switch op.Type {
	case lexer.NOT:
		p.emitOpsAt(op.Line(), codegen.OpNot)
	case lexer.MINUS:
		p.emitOpsAt(op.Line(), codegen.OpNegate)
	}
}

// binary compiles the right operand one level tighter than the operator,
// which makes every binary operator left-associative
func (p *Parser) binary(bool) {
	op := p.previous
	p.parsePrecedence(p.rule(op.Type).Precedence + 1)

	line := op.Line()
	switch op.Type {
	case lexer.NE:
		p.emitOpsAt(line, codegen.OpEqual, codegen.OpNot)
	case lexer.EQ:
		p.emitOpsAt(line, codegen.OpEqual)
	case lexer.GT:
		p.emitOpsAt(line, codegen.OpGreater)
	case lexer.GE:
		p.emitOpsAt(line, codegen.OpLess, codegen.OpNot)
	case lexer.LT:
		p.emitOpsAt(line, codegen.OpLess)
	case lexer.LE:
		p.emitOpsAt(line, codegen.OpGreater, codegen.OpNot)
	case lexer.PLUS:
		p.emitOpsAt(line, codegen.OpAdd)
	case lexer.MINUS:
		p.emitOpsAt(line, codegen.OpSubtract)
	case lexer.MULT:
		p.emitOpsAt(line, codegen.OpMultiply)
	case lexer.DIV:
		p.emitOpsAt(line, codegen.OpDivide)
	}
}

// and skips the right operand when the left one is falsey, leaving the left
// value as the result
func (p *Parser) and(bool) {
	endJump := p.emitJump(codegen.OpJumpIfFalse)

	p.emitOps(codegen.OpPop)
	p.parsePrecedence(PrecAnd)

	p.patchJump(endJump)
}

// or skips the right operand when the left one is truthy
func (p *Parser) or(bool) {
	elseJump := p.emitJump(codegen.OpJumpIfFalse)
	endJump := p.emitJump(codegen.OpJump)

	p.patchJump(elseJump)
	p.emitOps(codegen.OpPop)

	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func (p *Parser) call(bool) {
	line := p.previous.Line()
	argCount := p.argumentList()

	g := p.state().cg
	g.SetLine(line)
	_, err := g.Emit(codegen.OpCall, argCount)
	p.emitError(err)
}

func (p *Parser) argumentList() byte {
	count := 0
	if !p.check(lexer.RPAREN) {
		for {
			p.expression()
			if count == MaxArity {
				p.error("Can't have more than 255 arguments.")
			}
			count++

			if !p.match(lexer.COMMA) {
				break
			}
		}
	}

	p.consume(lexer.RPAREN, "Expect ')' after arguments.")
	return byte(count)
}

func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

// namedVariable emits a read of name, or a write when followed by `=` in an
// assignable position. Locals are addressed by slot, anything else is a
// global looked up by interned name.
func (p *Parser) namedVariable(name lexer.Token, canAssign bool) {
	var getOp, setOp codegen.Opcode
	var arg byte

	if slot := p.resolveLocal(name.Lexeme); slot != -1 {
		getOp, setOp = codegen.OpGetLocal, codegen.OpSetLocal
		arg = byte(slot)
	} else {
		getOp, setOp = codegen.OpGetGlobal, codegen.OpSetGlobal
		arg = p.identifierConstant(name.Lexeme)
	}

	if canAssign && p.match(lexer.ASSIGN) {
		p.expression()
		p.emit(setOp, arg)
		return
	}

	p.emit(getOp, arg)
}
