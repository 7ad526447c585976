package decl

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

// Parse builds a declaration from its directive keyword, header segment and
// raw body segment as produced by the library scanner.
func Parse(kind, header, body string) (Declaration, error) {
	switch Kind(kind) {
	case KindDefine:
		return ParseDefine(header, body)
	case KindMacro:
		return ParseMacro(header, body)
	default:
		return nil, fmt.Errorf("decl: %w %q", ErrUnknownDeclarationType, kind)
	}
}

// ParseDefine parses a define header ("name" or "name(a, b)") and body. The
// body may be wrapped in braces; leading // lines become documentation.
func ParseDefine(header, body string) (*Define, error) {
	body, err := removeBraces(body)
	if err != nil {
		return nil, err
	}
	body = strings.Trim(dedent.Dedent(body), "\n")
	docs, code := splitDocs(body)

	name, params, err := splitNameAndParams(header)
	if err != nil {
		return nil, err
	}
	return NewDefine(name, code, WithDocs(docs), WithParams(params...))
}

// ParseMacro parses a macro header (its name) and free-form value.
func ParseMacro(header, body string) (*Macro, error) {
	body = strings.TrimPrefix(body, " ")
	body = strings.Trim(dedent.Dedent(body), "\n")
	return NewMacro(strings.TrimSpace(header), trimLines(body))
}

func removeBraces(body string) (string, error) {
	trimmed := strings.TrimSpace(body)
	hasStart := strings.HasPrefix(trimmed, "{")
	hasEnd := strings.HasSuffix(trimmed, "}")
	if (hasStart && !hasEnd) || strings.Count(body, "{") != strings.Count(body, "}") {
		return "", fmt.Errorf("decl: %w: mismatched curly braces in:\n%s", ErrMalformedBlock, body)
	}
	if hasStart && hasEnd {
		trimmed = strings.TrimLeft(trimmed, "{")
		trimmed = strings.TrimRight(trimmed, "}")
		return strings.Trim(trimmed, "\n"), nil
	}
	return body, nil
}

// splitDocs separates the leading run of // comment lines from the code
// that follows it.
func splitDocs(content string) (docs, code string) {
	var docLines, codeLines []string
	inDocs := true
	for _, line := range strings.Split(content, "\n") {
		if inDocs {
			if rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "//"); ok {
				docLines = append(docLines, strings.TrimPrefix(trimRightSpace(rest), " "))
				continue
			}
			inDocs = false
		}
		codeLines = append(codeLines, trimRightSpace(line))
	}
	return strings.Join(docLines, "\n"), strings.Join(codeLines, "\n")
}

func splitNameAndParams(header string) (string, []string, error) {
	header = strings.TrimSpace(header)
	if !strings.Contains(header, "(") {
		return header, nil, nil
	}
	if !strings.HasSuffix(header, ")") {
		return "", nil, fmt.Errorf("decl: %w for parameter line: %s", ErrMissingCloseParen, header)
	}
	name, paramString, _ := strings.Cut(strings.TrimRight(header, ")"), "(")

	var params []string
	for _, p := range strings.Split(paramString, ",") {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	return strings.TrimSpace(name), params, nil
}
