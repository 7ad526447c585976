// Package project finds and reads the files of a GML project: library
// sources under the configured library directories and the scripts that
// receive injected declarations.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/gmlinject/internal/library"
)

// Script is one project script as read from disk. WorkingContent starts as
// OriginalContent and is replaced with the injected text when processed.
type Script struct {
	Path            string // slash-separated, relative to the project root
	OriginalContent string
	WorkingContent  string
	Fresh           bool
}

// Changed reports whether processing altered the content.
func (s *Script) Changed() bool {
	return s.WorkingContent != s.OriginalContent
}

// ListFiles returns the files under dir with the given extension, as
// slash-separated paths relative to root, sorted. A missing dir yields no
// files.
func ListFiles(root, dir, ext string) ([]string, error) {
	base := filepath.Join(root, dir)
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var paths []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// LibraryFiles lists library files for each of dirs in turn. Order is the
// order of dirs, then sorted path order within each directory.
func LibraryFiles(root string, dirs []string, ext string) ([]string, error) {
	var out []string
	for _, dir := range dirs {
		paths, err := ListFiles(root, dir, ext)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// ReadText reads a file relative to root with CRLF line endings normalized
// to LF.
func ReadText(root, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return normalizeNewlines(string(data)), nil
}

// ReadSources reads every path into a library source.
func ReadSources(root string, paths []string) ([]library.Source, error) {
	sources := make([]library.Source, 0, len(paths))
	for _, p := range paths {
		text, err := ReadText(root, p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, library.Source{Path: p, Text: text})
	}
	return sources, nil
}

// LoadScripts reads every script under dir. All scripts start fresh; the
// caller narrows freshness using its own records.
func LoadScripts(root, dir, ext string) ([]*Script, error) {
	paths, err := ListFiles(root, dir, ext)
	if err != nil {
		return nil, err
	}
	scripts := make([]*Script, 0, len(paths))
	for _, p := range paths {
		text, err := ReadText(root, p)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, &Script{
			Path:            p,
			OriginalContent: text,
			WorkingContent:  text,
			Fresh:           true,
		})
	}
	return scripts, nil
}

// Save writes the working content of s with LF line endings.
func Save(root string, s *Script) error {
	path := filepath.Join(root, filepath.FromSlash(s.Path))
	info, err := os.Stat(path)
	mode := fs.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(s.WorkingContent), mode); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	return nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
