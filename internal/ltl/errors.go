package ltl

import "fmt"

// LexError reports a character that cannot start any token.
type LexError struct {
	Char rune
	Line int
	Col  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: illegal character %q", e.Line, e.Col, e.Char)
}

// ParseError reports a grammar violation at a token. Token is empty when the
// input ended early.
type ParseError struct {
	Token    string
	Line     int
	Col      int
	Expected string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at end of input: expected %s", e.Expected)
	}
	return fmt.Sprintf("%d:%d: syntax error at %q: expected %s", e.Line, e.Col, e.Token, e.Expected)
}

// SemanticError reports a well-formed specification that cannot be compiled.
type SemanticError struct {
	Name string
	Msg  string
}

func (e *SemanticError) Error() string {
	if e.Name == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Msg)
}
