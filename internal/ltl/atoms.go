package ltl

import "strings"

// Generated guards name an atom by its lower-case name, next to the val<id>
// locals of compound nodes, the true/false literals and the parameters of
// the generated functions. Atoms must not shadow any of them.
var reservedLocals = map[string]bool{
	"true": true, "false": true,
	"mon": true, "next": true, "state": true, "task": true,
}

var cKeywords = map[string]bool{
	"auto": true, "bool": true, "break": true, "case": true, "char": true,
	"const": true, "continue": true, "default": true, "do": true, "double": true,
	"else": true, "enum": true, "extern": true, "float": true, "for": true,
	"goto": true, "if": true, "inline": true, "int": true, "long": true,
	"register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true, "while": true,
}

// checkAtomName returns why name cannot be used as an atom, or "".
func checkAtomName(name string) string {
	lower := strings.ToLower(name)
	switch {
	case name[0] >= '0' && name[0] <= '9':
		return "atom names must not start with a digit"
	case reservedLocals[lower]:
		return "atom name is reserved by the generated monitor"
	case cKeywords[lower]:
		return "atom name is a C keyword"
	case isValueName(lower):
		return "atom name clashes with generated val<N> locals"
	}
	return ""
}

func isValueName(s string) bool {
	digits, ok := strings.CutPrefix(s, "val")
	if !ok || digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
