package parser

import (
	"loxvm/pkg/lexer"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/parser/stack"
	"loxvm/pkg/value"

	"github.com/charmbracelet/log"
)

// FunctionKind distinguishes the top-level script from declared functions
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
)

// Parser is a single-pass compiler: it parses declarations and emits
// bytecode for them as it goes, one compiler context per function body.
type Parser struct {
	lexer     *lexer.Lexer             // token source
	table     RuleTable                // Pratt parse rules
	strings   *value.Interner          // intern table for literals and names
	funcs     *codegen.FunctionTable   // destination for finished functions
	states    *stack.Stack[*funcState] // compiler contexts, innermost on top
	current   lexer.Token              // token about to be consumed
	previous  lexer.Token              // token just consumed
	errors    []SyntaxError            // diagnostics
	panicMode bool                     // suppress cascading errors until synchronized
}

// NewParser creates a new parser instance. Interned strings and compiled
// functions are appended to the given tables.
func NewParser(l *lexer.Lexer, strings *value.Interner, funcs *codegen.FunctionTable) *Parser {
	return &Parser{
		lexer:   l,
		table:   NewRuleTable(),
		strings: strings,
		funcs:   funcs,
		states:  stack.NewStack[*funcState](),
		errors:  []SyntaxError{},
	}
}

// Compile compiles source into the given tables and returns the function
// table index of the top-level script.
func Compile(source string, strings *value.Interner, funcs *codegen.FunctionTable) (int, error) {
	return NewParser(lexer.NewLexer(source), strings, funcs).Parse()
}

// Parse compiles the whole input. On failure it returns a *CompileError
// holding every diagnostic, and the returned index must not be run.
func (p *Parser) Parse() (int, error) {
	p.beginFunction("", KindScript)
	p.advance()

	for !p.match(lexer.EOF) {
		p.declaration()
	}

	script := p.endFunction()
	if len(p.errors) > 0 {
		log.Debug("Compilation failed", "errors", len(p.errors))
		return -1, &CompileError{Errors: p.errors}
	}

	return script, nil
}

// state returns the innermost compiler context
func (p *Parser) state() *funcState {
	s, _ := p.states.Peek()
	return s
}

// cg returns the code generator of the innermost context, attributed to the
// line of the last consumed token
func (p *Parser) cg() *codegen.Codegen {
	g := p.state().cg
	g.SetLine(p.previous.Line())
	return g
}

// beginFunction pushes a fresh compiler context
func (p *Parser) beginFunction(name string, kind FunctionKind) {
	fn := codegen.NewFunction(name)
	p.states.Push(&funcState{
		fn:   fn,
		kind: kind,
		cg:   codegen.NewCodegen(fn.Chunk),
	})
}

// endFunction finishes the innermost body, pops its context and appends the
// function to the table
func (p *Parser) endFunction() int {
	p.emitReturn()

	s, _ := p.states.Pop()
	idx := p.funcs.Add(s.fn)

	log.Debug("Compiled function", "name", s.fn.DisplayName(), "index", idx,
		"arity", s.fn.Arity, "bytes", s.fn.Chunk.Len(), "constants", len(s.fn.Chunk.Constants))

	return idx
}

// emit appends one instruction to the current chunk
func (p *Parser) emit(op codegen.Opcode, operands ...byte) {
	_, err := p.cg().Emit(op, operands...)
	p.emitError(err)
}

// emitOps appends operand-less instructions
func (p *Parser) emitOps(ops ...codegen.Opcode) {
	p.emitError(p.cg().EmitOps(ops...))
}

// emitOpsAt appends operand-less instructions attributed to line
func (p *Parser) emitOpsAt(line int, ops ...codegen.Opcode) {
	g := p.state().cg
	g.SetLine(line)
	p.emitError(g.EmitOps(ops...))
}

// emitConstant loads v
func (p *Parser) emitConstant(v value.Value) {
	p.emitError(p.cg().EmitConstant(v))
}

// makeConstant adds v to the current pool and returns its index
func (p *Parser) makeConstant(v value.Value) byte {
	idx, err := p.cg().MakeConstant(v)
	p.emitError(err)
	return idx
}

// emitJump emits a forward jump to be patched later
func (p *Parser) emitJump(op codegen.Opcode) int {
	offset, err := p.cg().EmitJump(op)
	p.emitError(err)
	return offset
}

// patchJump points a forward jump at the next instruction
func (p *Parser) patchJump(offset int) {
	p.emitError(p.cg().PatchJump(offset))
}

// emitLoop emits a backward jump to loopStart
func (p *Parser) emitLoop(loopStart int) {
	p.emitError(p.cg().EmitLoop(loopStart))
}

// emitReturn emits the implicit nil return
func (p *Parser) emitReturn() {
	p.emitError(p.cg().EmitReturn())
}

// offset is where the next instruction of the current chunk goes
func (p *Parser) offset() int {
	return p.state().cg.Offset()
}
