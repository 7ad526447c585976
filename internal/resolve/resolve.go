// Package resolve computes which library declarations a script needs.
package resolve

import (
	"strings"

	"github.com/jward/gmlinject/internal/decl"
)

// Index is the ordered declaration sequence resolution scans. It is
// satisfied by *library.Library.
type Index interface {
	Len() int
	At(i int) decl.Declaration
}

// Resolve returns the ordered closure of declarations that original uses,
// directly or through the bodies of other resolved declarations.
//
// Each pass walks the index in order. A declaration is taken when its usage
// pattern matches the script plus everything taken so far, unless the
// script declares the same name itself. Passes repeat until one takes
// nothing, so order follows the index, never the script.
func Resolve(original string, idx Index) []decl.Declaration {
	var (
		resolved    []decl.Declaration
		taken       = make(map[decl.Key]bool)
		accumulated strings.Builder
	)
	accumulated.WriteString(original)

	// Declarations the script gives itself never change within a run.
	overridden := make([]bool, idx.Len())
	for i := range overridden {
		overridden[i] = decl.GivenIn(idx.At(i), original)
	}

	for {
		added := false
		for i := 0; i < idx.Len(); i++ {
			d := idx.At(i)
			key := decl.KeyOf(d)
			if taken[key] || overridden[i] {
				continue
			}
			if !decl.UsedIn(d, accumulated.String()) {
				continue
			}
			taken[key] = true
			resolved = append(resolved, d)
			accumulated.WriteString(d.Source())
			added = true
		}
		if !added {
			return resolved
		}
	}
}

// Names returns the names of decls in order.
func Names(decls []decl.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name()
	}
	return out
}
