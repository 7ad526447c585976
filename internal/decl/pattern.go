package decl

import (
	"fmt"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// patternCacheSize bounds the number of distinct compiled expressions kept
// alive. Libraries routinely hold several declarations with one name, and
// every library rebuild recompiles the same expressions.
const patternCacheSize = 4096

var compiled = mustPatternCache()

func mustPatternCache() *lru.Cache[string, *regexp2.Regexp] {
	c, err := lru.New[string, *regexp2.Regexp](patternCacheSize)
	if err != nil {
		panic(fmt.Sprintf("decl: pattern cache: %v", err))
	}
	return c
}

// Pattern is a compiled usage or local-declaration matcher. Expressions use
// .NET syntax because usage detection needs negative lookbehind. A Pattern
// is safe for concurrent use.
type Pattern struct {
	expr string
	re   *regexp2.Regexp
}

// CompilePattern compiles expr, reusing a cached program when the same
// expression was compiled before.
func CompilePattern(expr string) (*Pattern, error) {
	if re, ok := compiled.Get(expr); ok {
		return &Pattern{expr: expr, re: re}, nil
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("decl: %w %q: %v", ErrInvalidPattern, expr, err)
	}
	compiled.Add(expr, re)
	return &Pattern{expr: expr, re: re}, nil
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.expr
}

// MatchString reports whether the pattern matches anywhere in s.
func (p *Pattern) MatchString(s string) bool {
	// regexp2 only errors on a match timeout, and none is configured.
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func defineUsePattern(name string) string {
	return `(?<!#define)(^|\W)` + name + `\(`
}

func macroUsePattern(name string) string {
	return `(^|\W)` + name + `($|\W)`
}

func givePattern(kind Kind, name string) string {
	return `#` + string(kind) + `(\s)*` + name + `(\W|$)`
}
