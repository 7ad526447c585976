package library

import (
	"strings"
	"unicode"

	"github.com/jward/gmlinject/internal/decl"
)

// Block is one directive split out of library text, before parsing.
type Block struct {
	Kind   string
	Header string
	Body   string
}

// Scan splits text into directive blocks and parses each one, in order.
func Scan(text string) ([]decl.Declaration, error) {
	var decls []decl.Declaration
	for _, b := range SplitBlocks(text) {
		d, err := decl.Parse(b.Kind, b.Header, b.Body)
		if err != nil {
			return nil, &LoadError{Block: b.Kind + " " + strings.TrimSpace(b.Header), Err: err}
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// SplitBlocks cuts text at every line that starts with '#' (after optional
// indentation). Text before the first directive and whitespace-only blocks
// are dropped.
func SplitBlocks(text string) []Block {
	var (
		blocks  []Block
		current strings.Builder
		open    bool
	)
	flush := func() {
		if open && strings.TrimSpace(current.String()) != "" {
			blocks = append(blocks, splitBlock(current.String()))
		}
		current.Reset()
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "#"); ok {
			flush()
			open = true
			current.WriteString(rest)
			continue
		}
		if open {
			current.WriteString(line)
		}
	}
	flush()
	return blocks
}

// splitBlock separates the directive keyword, header and body. A header
// with a parameter list runs to the end of its line (or an opening brace);
// otherwise it ends at the first whitespace or brace. A define's parameter
// list may be separated from its name by spaces. The separator stays at the
// front of the body.
func splitBlock(block string) Block {
	kind, rest := block, ""
	if i := strings.IndexFunc(block, unicode.IsSpace); i >= 0 {
		kind, rest = block[:i], strings.TrimLeft(block[i:], " \t")
	}

	nameEnd := strings.IndexFunc(rest, func(r rune) bool { return unicode.IsSpace(r) || r == '{' })
	nameToken := rest
	if nameEnd >= 0 {
		nameToken = rest[:nameEnd]
	}
	hasParams := strings.Contains(nameToken, "(")
	if !hasParams && nameEnd >= 0 && kind == string(decl.KindDefine) {
		hasParams = strings.HasPrefix(strings.TrimLeft(rest[nameEnd:], " \t"), "(")
	}

	var cut int
	if hasParams {
		cut = strings.IndexAny(rest, "\n{")
	} else {
		cut = nameEnd
	}
	if cut < 0 {
		return Block{Kind: kind, Header: rest}
	}
	return Block{Kind: kind, Header: rest[:cut], Body: rest[cut:]}
}
