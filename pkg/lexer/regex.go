package lexer

import (
	"regexp"
	"unicode/utf8"
)

func rule(raw string) *regexp.Regexp {
	return regexp.MustCompile(raw)
}

// Token regex patterns. Keywords are not listed: they match ID and are
// reclassified through the Keywords table.
var tokenRegexes = map[TokenType]*regexp.Regexp{
	LE: rule(`^<=`),
	GE: rule(`^>=`),
	EQ: rule(`^==`),
	NE: rule(`^!=`),

	ASSIGN: rule(`^=`),
	PLUS:   rule(`^\+`),
	MINUS:  rule(`^-`),
	MULT:   rule(`^\*`),
	DIV:    rule(`^/`),
	NOT:    rule(`^!`),
	LT:     rule(`^<`),
	GT:     rule(`^>`),

	SEMICOLON: rule(`^;`),
	COMMA:     rule(`^,`),
	DOT:       rule(`^\.`),
	LPAREN:    rule(`^\(`),
	RPAREN:    rule(`^\)`),
	LBRACE:    rule(`^\{`),
	RBRACE:    rule(`^\}`),

	NUM:    rule(`^\d+(\.\d+)?`),
	STRING: rule(`^"[^"]*"`),
	ID:     rule(`^[a-zA-Z_][a-zA-Z0-9_]*`),
}

var unterminatedStringRegex = regexp.MustCompile(`^"[^"]*$`)

// Token precedence order for matching (longer patterns first)
var tokenPrecedenceOrder = []TokenType{
	LE, GE, EQ, NE, ASSIGN, PLUS, MINUS, MULT, DIV, NOT, LT, GT,
	SEMICOLON, COMMA, DOT, LPAREN, RPAREN, LBRACE, RBRACE,
	NUM, STRING, ID,
}

// MatchToken matches the first token at the start of s. Identifiers that
// spell a keyword come back as that keyword. An unterminated string yields
// ERROR with the rest of the input as lexeme.
func MatchToken(s string) (TokenType, string, bool) {
	if s == "" {
		return EOF, "", false
	}

	for _, tokenType := range tokenPrecedenceOrder {
		match := tokenRegexes[tokenType].FindString(s)
		if match == "" {
			continue
		}

		if tokenType == ID {
			if kw, ok := IsKeyword(match); ok {
				return kw, match, true
			}
		}

		return tokenType, match, true
	}

	if match := unterminatedStringRegex.FindString(s); match != "" {
		return ERROR, match, false
	}

	_, size := utf8.DecodeRuneInString(s)
	return ERROR, s[:size], false
}
