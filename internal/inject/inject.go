// Package inject writes resolved declarations into a script as a single
// delimited block at its end, replacing whatever block a previous run left.
package inject

import (
	"strings"

	"github.com/jward/gmlinject/internal/decl"
)

// Block delimiters. Existing projects already contain these lines, so the
// text must not change.
const (
	StartHeader = "// vvv LIBRARY DEFINES AND MACROS vvv\n" +
		"// DANGER File below this point will be overwritten! Generated defines and macros below."
	EndHeader = "// DANGER File above this point will be overwritten! Generated defines and macros above.\n" +
		"// ^^^ END: LIBRARY DEFINES AND MACROS ^^^"
)

// Strip removes a previously injected block along with the blank-line
// separator in front of it. Content without a block is returned unchanged.
// The last end header and the nearest start header before it delimit the
// block. An unmatched start header earlier in the script is left in place.
func Strip(content string) string {
	end := strings.LastIndex(content, EndHeader)
	if end < 0 {
		return content
	}
	start := strings.LastIndex(content[:end], StartHeader)
	if start < 0 {
		return content
	}
	end += len(EndHeader)

	before := content[:start]
	if b, ok := strings.CutSuffix(before, "\n\n"); ok {
		before = b
	} else {
		before = strings.TrimSuffix(before, "\n")
	}
	after := content[end:]
	if strings.TrimSpace(after) == "" {
		after = ""
	}
	return before + after
}

// Render formats decls as an injection block, or "" when decls is empty.
func Render(decls []decl.Declaration) string {
	if len(decls) == 0 {
		return ""
	}
	sources := make([]string, len(decls))
	for i, d := range decls {
		sources[i] = d.Source()
	}
	return StartHeader + "\n" + strings.Join(sources, "\n\n") + "\n" + EndHeader
}

// Apply returns original with any old block replaced by one holding decls.
// With no declarations the result carries no block at all.
func Apply(original string, decls []decl.Declaration) string {
	base := Strip(original)
	block := Render(decls)
	if block == "" {
		return base
	}
	return base + "\n\n" + block
}
