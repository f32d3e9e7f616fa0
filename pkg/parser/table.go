package parser

import "loxvm/pkg/lexer"

// Precedence is the binding power of an infix operator, lowest first.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // ()
	PrecPrimary
)

type parseFn func(p *Parser, canAssign bool)

// ParseRule says how a token parses at the start of an expression (Prefix)
// and after a complete left operand (Infix), and how tightly it binds.
type ParseRule struct {
	Prefix     parseFn
	Infix      parseFn
	Precedence Precedence
}

// RuleTable maps token types to their Pratt parse rules. Tokens without an
// entry neither start nor continue an expression.
type RuleTable map[lexer.TokenType]ParseRule

// NewRuleTable builds the expression grammar
func NewRuleTable() RuleTable {
	return RuleTable{
		lexer.LPAREN: {(*Parser).grouping, (*Parser).call, PrecCall},
		lexer.MINUS:  {(*Parser).unary, (*Parser).binary, PrecTerm},
		lexer.PLUS:   {nil, (*Parser).binary, PrecTerm},
		lexer.DIV:    {nil, (*Parser).binary, PrecFactor},
		lexer.MULT:   {nil, (*Parser).binary, PrecFactor},
		lexer.NOT:    {(*Parser).unary, nil, PrecNone},
		lexer.NE:     {nil, (*Parser).binary, PrecEquality},
		lexer.EQ:     {nil, (*Parser).binary, PrecEquality},
		lexer.GT:     {nil, (*Parser).binary, PrecComparison},
		lexer.GE:     {nil, (*Parser).binary, PrecComparison},
		lexer.LT:     {nil, (*Parser).binary, PrecComparison},
		lexer.LE:     {nil, (*Parser).binary, PrecComparison},
		lexer.ID:     {(*Parser).variable, nil, PrecNone},
		lexer.STRING: {(*Parser).stringLiteral, nil, PrecNone},
		lexer.NUM:    {(*Parser).number, nil, PrecNone},
		lexer.AND:    {nil, (*Parser).and, PrecAnd},
		lexer.OR:     {nil, (*Parser).or, PrecOr},
		lexer.FALSE:  {(*Parser).literal, nil, PrecNone},
		lexer.TRUE:   {(*Parser).literal, nil, PrecNone},
		lexer.NIL:    {(*Parser).literal, nil, PrecNone},
	}
}

// rule returns the parse rule for t, the zero rule when there is none
func (p *Parser) rule(t lexer.TokenType) ParseRule {
	return p.table[t]
}
