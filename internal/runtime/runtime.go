package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/gmlinject/internal/library"
)

// Runtime embeds a Risor VM and runs generator scripts, each of which
// produces library text through the emit, macro and define builtins.
type Runtime struct {
	root   string // project root, exposed as project_root
	dir    string // generators directory, relative to root
	fsys   fs.FS
	logger *log.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load generators from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the scripts' log global.
func WithRuntimeLogger(l *log.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime for the generators in dir, relative to the
// project root.
func NewRuntime(root, dir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		root:   root,
		dir:    dir,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "generator"}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generators returns the generator scripts as slash-separated paths
// relative to the generators directory, sorted. A missing directory yields
// none.
func (r *Runtime) Generators() ([]string, error) {
	var paths []string
	collect := func(p string, d fs.DirEntry) {
		if !d.IsDir() && strings.HasSuffix(p, ".risor") {
			paths = append(paths, filepath.ToSlash(p))
		}
	}

	if r.fsys != nil {
		err := fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			collect(p, d)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("runtime: list generators: %w", err)
		}
	} else if r.dir != "" {
		base := filepath.Join(r.root, r.dir)
		if _, err := os.Stat(base); os.IsNotExist(err) {
			return nil, nil
		}
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(base, p)
			if err != nil {
				return err
			}
			collect(rel, d)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("runtime: list generators: %w", err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// RunGenerators runs every generator in order and returns each one's output
// as a library source labelled with its project-relative path.
func (r *Runtime) RunGenerators(ctx context.Context) ([]library.Source, error) {
	paths, err := r.Generators()
	if err != nil {
		return nil, err
	}
	var sources []library.Source
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := r.RunScript(ctx, p, nil)
		if err != nil {
			return nil, err
		}
		label := path.Join(filepath.ToSlash(r.dir), p)
		r.logger.Debug("generator ran", "script", label, "bytes", len(text))
		sources = append(sources, library.Source{Path: label, Text: text})
	}
	return sources, nil
}

// RunScript loads and executes a generator, returning the library text it
// produced.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) (string, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return "", err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// RunSource executes Risor source code directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (string, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (string, error) {
	out := &output{}
	globals := r.buildGlobals(out, label, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so generators can import helper modules.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return "", fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return out.String(), nil
}

// buildImporter returns a Risor importer rooted at the generators.
// Returns nil if neither fs.FS nor a directory is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.dir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   filepath.Join(r.root, r.dir),
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, reads relative to the generators directory.
func (r *Runtime) LoadScript(p string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(p), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := p
	if !filepath.IsAbs(p) {
		fullPath = filepath.Join(r.root, r.dir, filepath.FromSlash(p))
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to generators.
func (r *Runtime) buildGlobals(out *output, label string, extra map[string]any) map[string]any {
	globals := map[string]any{
		"emit":         makeEmitFn(out),
		"macro":        makeMacroFn(out),
		"define":       makeDefineFn(out),
		"project_root": r.root,
		"log":          mustProxy(&logObject{logger: r.logger, script: label}),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
