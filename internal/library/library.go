// Package library assembles the ordered index of injectable declarations
// from library source files.
//
// Order is significant: it decides resolution order, so files are consumed
// exactly in the order given and declarations in the order they appear.
// Duplicate names are kept; every entry is matched on its own.
package library

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jward/gmlinject/internal/decl"
)

// Source is one library file's text and the label used in errors.
type Source struct {
	Path string
	Text string
}

// Entry pairs a declaration with the source it was read from.
type Entry struct {
	Decl decl.Declaration
	Path string
}

// Library is an immutable, ordered declaration index. It is safe to share
// between goroutines once built.
type Library struct {
	entries []Entry
	decls   []decl.Declaration
	hash    string
}

// LoadError reports the library file and declaration that failed to parse.
// It unwraps to one of the decl sentinel errors.
type LoadError struct {
	Path  string
	Block string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("library: %s: %v", e.Block, e.Err)
	}
	return fmt.Sprintf("library: %s: %s: %v", e.Path, e.Block, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Build scans every source in order and concatenates the results. The first
// malformed declaration aborts the build.
func Build(sources []Source) (*Library, error) {
	lib := &Library{}
	h := sha256.New()
	for _, src := range sources {
		decls, err := Scan(src.Text)
		if err != nil {
			var le *LoadError
			if errors.As(err, &le) {
				le.Path = src.Path
			}
			return nil, err
		}
		for _, d := range decls {
			lib.entries = append(lib.entries, Entry{Decl: d, Path: src.Path})
			lib.decls = append(lib.decls, d)
		}
		h.Write([]byte(src.Path))
		h.Write([]byte{0})
		h.Write([]byte(src.Text))
		h.Write([]byte{0})
	}
	lib.hash = fmt.Sprintf("%x", h.Sum(nil))
	return lib, nil
}

// FromDeclarations wraps already-built declarations, mainly for tests and
// callers that construct declarations directly.
func FromDeclarations(decls ...decl.Declaration) *Library {
	lib := &Library{}
	h := sha256.New()
	for _, d := range decls {
		lib.entries = append(lib.entries, Entry{Decl: d})
		lib.decls = append(lib.decls, d)
		h.Write([]byte(d.Source()))
		h.Write([]byte{0})
	}
	lib.hash = fmt.Sprintf("%x", h.Sum(nil))
	return lib
}

// Len returns the number of declarations.
func (l *Library) Len() int { return len(l.decls) }

// At returns the i-th declaration in index order.
func (l *Library) At(i int) decl.Declaration { return l.decls[i] }

// Declarations returns a copy of the ordered declarations.
func (l *Library) Declarations() []decl.Declaration {
	return append([]decl.Declaration(nil), l.decls...)
}

// Entries returns a copy of the ordered entries with their origins.
func (l *Library) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Hash identifies the library contents. It changes whenever any source
// path or text changes.
func (l *Library) Hash() string { return l.hash }
