package gmlinject

import (
	"fmt"

	"github.com/jward/gmlinject/internal/decl"
	"github.com/jward/gmlinject/internal/inject"
	"github.com/jward/gmlinject/internal/library"
	"github.com/jward/gmlinject/internal/resolve"
)

// BuildLibrary scans each content string as a library file, in order.
// Errors name the offending input by index.
func BuildLibrary(contents []string) (*Library, error) {
	sources := make([]library.Source, len(contents))
	for i, c := range contents {
		sources[i] = library.Source{Path: fmt.Sprintf("input[%d]", i), Text: c}
	}
	return library.Build(sources)
}

// ResolveAndInject returns original with exactly the declarations it needs
// from lib injected at the end, replacing any block injected earlier.
func ResolveAndInject(original string, lib *Library) string {
	out, _ := resolveAndInject(original, lib)
	return out
}

// Resolve returns the declarations original needs from lib, in library
// order. A previously injected block does not count toward the result.
func Resolve(original string, lib *Library) []Declaration {
	return resolve.Resolve(inject.Strip(original), lib)
}

func resolveAndInject(original string, lib *Library) (string, []decl.Declaration) {
	base := inject.Strip(original)
	closure := resolve.Resolve(base, lib)
	return inject.Apply(base, closure), closure
}
