package parser

import (
	"loxvm/pkg/lexer"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"
)

// MaxLocals is the number of slots an 8-bit operand can address.
const MaxLocals = 256

// local is a variable living in a stack slot; its slot is its index in
// funcState.locals.
type local struct {
	name        string
	depth       int  // scope depth that declared it
	initialized bool // false while its own initializer is being compiled
}

// funcState is the compiler context for one function body.
type funcState struct {
	fn         *codegen.Function
	kind       FunctionKind
	cg         *codegen.Codegen
	locals     []local
	scopeDepth int
}

func (p *Parser) beginScope() {
	p.state().scopeDepth++
}

// endScope closes the innermost block, popping its locals off the runtime
// stack
func (p *Parser) endScope() {
	s := p.state()
	s.scopeDepth--

	for len(s.locals) > 0 && s.locals[len(s.locals)-1].depth > s.scopeDepth {
		p.emitOps(codegen.OpPop)
		s.locals = s.locals[:len(s.locals)-1]
	}
}

// addLocal reserves the next slot for name
func (p *Parser) addLocal(name string) {
	s := p.state()
	if len(s.locals) == MaxLocals {
		p.error("Too many local variables in function.")
		return
	}

	s.locals = append(s.locals, local{name: name, depth: s.scopeDepth})
}

// declareVariable records the variable named by the previous token as a
// local of the current scope. Globals are late bound and need nothing.
func (p *Parser) declareVariable() {
	s := p.state()
	if s.scopeDepth == 0 {
		return
	}

	name := p.previous.Lexeme
	for i := len(s.locals) - 1; i >= 0; i-- {
		l := s.locals[i]
		if l.depth < s.scopeDepth {
			break
		}
		if l.name == name {
			p.error("Already a variable with this name in this scope.")
		}
	}

	p.addLocal(name)
}

// markInitialized makes the newest local readable
func (p *Parser) markInitialized() {
	s := p.state()
	if s.scopeDepth == 0 || len(s.locals) == 0 {
		return
	}
	s.locals[len(s.locals)-1].initialized = true
}

// resolveLocal finds name among the current function's locals, innermost
// first. Locals of enclosing functions are not visible.
func (p *Parser) resolveLocal(name string) int {
	s := p.state()
	for i := len(s.locals) - 1; i >= 0; i-- {
		if s.locals[i].name == name {
			if !s.locals[i].initialized {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// identifierConstant interns name and stores it in the constant pool
func (p *Parser) identifierConstant(name string) byte {
	return p.makeConstant(value.String(p.strings.Intern(name)))
}

// parseVariable consumes a variable name. It returns the name's constant
// index for globals and 0 for locals.
func (p *Parser) parseVariable(msg string) byte {
	p.consume(lexer.ID, msg)

	p.declareVariable()
	if p.state().scopeDepth > 0 {
		return 0
	}

	return p.identifierConstant(p.previous.Lexeme)
}

// defineVariable makes a declared variable available: locals become
// initialized, globals are bound at runtime
func (p *Parser) defineVariable(global byte) {
	if p.state().scopeDepth > 0 {
		p.markInitialized()
		return
	}

	p.emit(codegen.OpDefineGlobal, global)
}
