package decl

import (
	"strings"
	"unicode"
)

// indent prefixes every line that has non-whitespace content. Blank lines
// and line endings are kept as they are.
func indent(text, prefix string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if strings.TrimSpace(line) != "" {
			b.WriteString(prefix)
		}
		b.WriteString(line)
	}
	return b.String()
}

func trimRightSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// trimLines right-trims each line of text.
func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = trimRightSpace(line)
	}
	return strings.Join(lines, "\n")
}
