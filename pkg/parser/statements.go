package parser

import (
	"loxvm/pkg/lexer"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"
)

// MaxArity is the most parameters or arguments a call can carry.
const MaxArity = 255

// declaration parses one declaration or statement, resynchronizing after an
// error so later errors still get reported
func (p *Parser) declaration() {
	switch {
	case p.match(lexer.FUN):
		p.funDeclaration()
	case p.match(lexer.VAR):
		p.varDeclaration()
	case p.match(lexer.CLASS):
		p.error("Classes are not supported.")
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(KindFunction)
	p.defineVariable(global)
}

// function compiles a parameter list and body in a new compiler context and
// loads the finished function as a constant of the enclosing chunk
func (p *Parser) function(kind FunctionKind) {
	p.beginFunction(p.previous.Lexeme, kind)
	p.beginScope()

	p.consume(lexer.LPAREN, "Expect '(' after function name.")
	if !p.check(lexer.RPAREN) {
		for {
			fn := p.state().fn
			fn.Arity++
			if fn.Arity > MaxArity {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}

			param := p.parseVariable("Expect parameter name.")
			p.defineVariable(param)

			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	p.consume(lexer.RPAREN, "Expect ')' after parameters.")
	p.consume(lexer.LBRACE, "Expect '{' before function body.")
	p.block()

	idx := p.endFunction()
	p.emitConstant(value.Function(idx))
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(lexer.ASSIGN) {
		p.expression()
	} else {
		p.emitOps(codegen.OpNil)
	}
	p.consume(lexer.SEMICOLON, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

func (p *Parser) statement() {
	switch {
	case p.match(lexer.PRINT):
		p.printStatement()
	case p.match(lexer.FOR):
		p.forStatement()
	case p.match(lexer.IF):
		p.ifStatement()
	case p.match(lexer.RETURN):
		p.returnStatement()
	case p.match(lexer.WHILE):
		p.whileStatement()
	case p.match(lexer.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(lexer.RBRACE) && !p.check(lexer.EOF) {
		p.declaration()
	}

	p.consume(lexer.RBRACE, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(lexer.SEMICOLON, "Expect ';' after value.")
	p.emitOps(codegen.OpPrint)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(lexer.SEMICOLON, "Expect ';' after expression.")
	p.emitOps(codegen.OpPop)
}

func (p *Parser) returnStatement() {
	if p.state().kind == KindScript {
		p.error("Can't return from top-level code.")
	}

	if p.match(lexer.SEMICOLON) {
		p.emitReturn()
		return
	}

	p.expression()
	p.consume(lexer.SEMICOLON, "Expect ';' after return value.")
	p.emitOps(codegen.OpReturn)
}

func (p *Parser) ifStatement() {
	p.consume(lexer.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(lexer.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(codegen.OpJumpIfFalse)
	p.emitOps(codegen.OpPop)
	p.statement()

	elseJump := p.emitJump(codegen.OpJump)
	p.patchJump(thenJump)
	p.emitOps(codegen.OpPop)

	if p.match(lexer.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := p.offset()
	p.consume(lexer.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(lexer.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(codegen.OpJumpIfFalse)
	p.emitOps(codegen.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOps(codegen.OpPop)
}

// forStatement desugars into a while loop; the increment clause is compiled
// before the body and jumped over on the first iteration
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(lexer.LPAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(lexer.SEMICOLON):
		// no initializer
	case p.match(lexer.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := p.offset()
	exitJump := -1
	if !p.match(lexer.SEMICOLON) {
		p.expression()
		p.consume(lexer.SEMICOLON, "Expect ';' after loop condition.")

		exitJump = p.emitJump(codegen.OpJumpIfFalse)
		p.emitOps(codegen.OpPop)
	}

	if !p.match(lexer.RPAREN) {
		bodyJump := p.emitJump(codegen.OpJump)
		incrementStart := p.offset()
		p.expression()
		p.emitOps(codegen.OpPop)
		p.consume(lexer.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOps(codegen.OpPop)
	}

	p.endScope()
}
