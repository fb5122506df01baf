package codegen

import "strings"

// Wrap sets where generated guards are broken.
type Wrap struct {
	// Columns is the widest a line may get.
	Columns int
	// TabExtra is how many columns a tab takes beyond the one its byte
	// already counts for.
	TabExtra int
}

// DefaultWrap matches the kernel coding style: 100 columns, 8-column tabs.
var DefaultWrap = Wrap{Columns: 100, TabExtra: 7}

func (w Wrap) width(line string) int {
	return len(line) + w.TabExtra*strings.Count(line, "\t")
}

// conditional renders
//
//	<indent>if (<t1> && <t2> && ...)
//	<indent>	<stmt>
//
// breaking the condition after a "&&" whenever the next term would push the
// line past the column limit. Continuation lines take the indentation of the
// if plus four spaces. A single term longer than the limit is left whole.
func (w Wrap) conditional(indent string, terms []string, stmt string) []string {
	var lines []string
	line := indent + "if (" + terms[0]
	for i, term := range terms[1:] {
		last := i == len(terms)-2
		tail := " &&"
		if last {
			tail = ")"
		}
		if w.width(line+" && "+term+tail) > w.Columns {
			lines = append(lines, line+" &&")
			line = indent + "    " + term
			continue
		}
		line += " && " + term
	}
	lines = append(lines, line+")")
	return append(lines, indent+"\t"+stmt)
}
