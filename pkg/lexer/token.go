package lexer

import (
	"fmt"
)

type TokenType int

type Token struct {
	Type    TokenType // Type of the token
	Lexeme  string    // Actual string from source code
	Literal string    // Literal value (string contents, or the message of an ERROR token)
	Pos     Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Lexeme:  lexeme,
		Literal: literal,
		Pos:     pos,
	}
}

// Line is the source line the token starts on
func (t Token) Line() int {
	return t.Pos.Line
}

const (
	EOF TokenType = iota // End of file

	AND    // and
	CLASS  // class
	ELSE   // else
	FALSE  // false
	FOR    // for
	FUN    // fun
	IF     // if
	NIL    // nil
	OR     // or
	PRINT  // print
	RETURN // return
	SUPER  // super
	THIS   // this
	TRUE   // true
	VAR    // var
	WHILE  // while

	ID     // identifier
	NUM    // number literal
	STRING // string literal

	ASSIGN // =
	PLUS   // +
	MINUS  // -
	MULT   // *
	DIV    // /
	NOT    // !
	LT     // <
	GT     // >
	LE     // <=
	GE     // >=
	EQ     // ==
	NE     // !=

	SEMICOLON // ;
	COMMA     // ,
	DOT       // .
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }

	ERROR // lexical error; Literal carries the message
)

var Keywords = map[string]TokenType{
	"and":    AND,
	"class":  CLASS,
	"else":   ELSE,
	"false":  FALSE,
	"for":    FOR,
	"fun":    FUN,
	"if":     IF,
	"nil":    NIL,
	"or":     OR,
	"print":  PRINT,
	"return": RETURN,
	"super":  SUPER,
	"this":   THIS,
	"true":   TRUE,
	"var":    VAR,
	"while":  WHILE,
}

var tokenNames = map[TokenType]string{
	AND:       "and",
	CLASS:     "class",
	ELSE:      "else",
	FALSE:     "false",
	FOR:       "for",
	FUN:       "fun",
	IF:        "if",
	NIL:       "nil",
	OR:        "or",
	PRINT:     "print",
	RETURN:    "return",
	SUPER:     "super",
	THIS:      "this",
	TRUE:      "true",
	VAR:       "var",
	WHILE:     "while",
	ASSIGN:    "=",
	PLUS:      "+",
	MINUS:     "-",
	MULT:      "*",
	DIV:       "/",
	NOT:       "!",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	EQ:        "==",
	NE:        "!=",
	SEMICOLON: ";",
	COMMA:     ",",
	DOT:       ".",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	ID:        "id",
	NUM:       "num",
	STRING:    "string",
	ERROR:     "error",
	EOF:       "$",
}

// String returns a string representation of the Token
func (t Token) String() string {
	if t.Literal == "" {
		return fmt.Sprintf("T_{%s, %v, nil, %s}",
			t.Type, t.Lexeme, t.Pos.String())
	}

	return fmt.Sprintf("T_{%s, %v, %q, %s}",
		t.Type, t.Lexeme, t.Literal, t.Pos.String())
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := tokenNames[t]; ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// IsKeyword checks if the given identifier is a keyword and returns its TokenType if it is
func IsKeyword(identifier string) (TokenType, bool) {
	tokenType, ok := Keywords[identifier]
	return tokenType, ok
}
