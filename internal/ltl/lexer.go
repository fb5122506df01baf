package ltl

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenKind is the lexical class of a token.
type TokenKind int

const (
	EOF TokenKind = iota
	AND
	OR
	IMPLY
	UNTIL
	ALWAYS
	EVENTUALLY
	NOT
	VARIABLE
	LITERAL
	LPAREN
	RPAREN
	ASSIGN
)

var tokenNames = [...]string{
	EOF:        "EOF",
	AND:        "AND",
	OR:         "OR",
	IMPLY:      "IMPLY",
	UNTIL:      "UNTIL",
	ALWAYS:     "ALWAYS",
	EVENTUALLY: "EVENTUALLY",
	NOT:        "NOT",
	VARIABLE:   "VARIABLE",
	LITERAL:    "LITERAL",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	ASSIGN:     "ASSIGN",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

var keywords = map[string]TokenKind{
	"and":        AND,
	"or":         OR,
	"imply":      IMPLY,
	"until":      UNTIL,
	"always":     ALWAYS,
	"eventually": EVENTUALLY,
	"not":        NOT,
	"true":       LITERAL,
	"false":      LITERAL,
}

// Token is one lexeme with its 1-based source position.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	Col  int
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%s)@%d:%d", t.Kind, t.Text, t.Line, t.Col)
}

// Lex splits src into tokens. The returned slice always ends with an EOF
// token. Identifier words that are not keywords become VARIABLE tokens with
// their text upper-cased.
func Lex(src string) ([]Token, error) {
	var toks []Token
	line, col := 1, 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			i++
			line++
			col = 1
		case c == ' ' || c == '\t' || c == '\r':
			i++
			col++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '(':
			toks = append(toks, Token{Kind: LPAREN, Text: "(", Line: line, Col: col})
			i++
			col++
		case c == ')':
			toks = append(toks, Token{Kind: RPAREN, Text: ")", Line: line, Col: col})
			i++
			col++
		case c == '=':
			toks = append(toks, Token{Kind: ASSIGN, Text: "=", Line: line, Col: col})
			i++
			col++
		case isWordByte(c):
			start := i
			for i < len(src) && isWordByte(src[i]) {
				i++
			}
			word := src[start:i]
			tok := Token{Text: word, Line: line, Col: col}
			if kind, ok := keywords[word]; ok {
				tok.Kind = kind
			} else {
				tok.Kind = VARIABLE
				tok.Text = strings.ToUpper(word)
			}
			toks = append(toks, tok)
			col += i - start
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			return nil, &LexError{Char: r, Line: line, Col: col}
		}
	}
	toks = append(toks, Token{Kind: EOF, Line: line, Col: col})
	return toks, nil
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
