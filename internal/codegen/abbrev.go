package codegen

import (
	"fmt"
	"strings"
)

// fillerWords are dropped from abbreviations.
var fillerWords = map[string]bool{
	"is":  true,
	"by":  true,
	"or":  true,
	"and": true,
}

// shorten lower-cases s, drops filler words and keeps the first two
// characters of every underscore separated component. Separators are kept,
// so a shared prefix ending in '_' still ends in '_'.
func shorten(s string) string {
	var parts []string
	for _, p := range strings.Split(strings.ToLower(s), "_") {
		if fillerWords[p] {
			continue
		}
		if len(p) > 2 {
			p = p[:2]
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "_")
}

// sharedPrefixLen returns the length of the longest prefix of atom that at
// least one other atom also starts with.
func sharedPrefixLen(atom string, atoms []string) int {
	for i := len(atom); i > 0; i-- {
		prefix := atom[:i]
		count := 0
		for _, a := range atoms {
			if strings.HasPrefix(a, prefix) {
				count++
			}
		}
		if count > 1 {
			return i
		}
	}
	return 0
}

// AbbreviateAtoms returns a short display name for every atom, in input
// order. Each name is split into the longest prefix it shares with another
// atom and the rest, and both parts are shortened on their own:
// LOCK_ACQUIRE and LOCK_RELEASE become lo_ac and lo_re.
//
// The results are pairwise distinct and never empty. An atom whose
// abbreviation is empty or clashes with another one falls back to its full
// lower-case name, and a numeric suffix settles whatever clash remains.
func AbbreviateAtoms(atoms []string) []string {
	out := make([]string, len(atoms))
	count := make(map[string]int)
	for i, atom := range atoms {
		n := sharedPrefixLen(atom, atoms)
		out[i] = shorten(atom[:n]) + shorten(atom[n:])
		count[out[i]]++
	}

	for i, atom := range atoms {
		if out[i] == "" || count[out[i]] > 1 {
			out[i] = strings.ToLower(atom)
		}
	}

	used := make(map[string]bool)
	for i, base := range out {
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s%d", base, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}
