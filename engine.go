package gmlinject

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jward/gmlinject/internal/config"
	"github.com/jward/gmlinject/internal/inject"
	"github.com/jward/gmlinject/internal/library"
	"github.com/jward/gmlinject/internal/project"
	"github.com/jward/gmlinject/internal/resolve"
	"github.com/jward/gmlinject/internal/runtime"
	"github.com/jward/gmlinject/internal/store"
)

// Engine orchestrates a project run: library build, script discovery,
// freshness checks, resolution and injection, and store updates.
type Engine struct {
	store   *store.Store
	runtime *runtime.Runtime
	root    string
	logger  *log.Logger

	libraryDirs   []string
	scriptsDir    string
	generatorsDir string
	generatorsFS  fs.FS
	extension     string

	// useParallel enables the worker pool in Run.
	useParallel bool
	workers     int // 0 means runtime.NumCPU()
	force       bool
	dryRun      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLibraryDirs sets the library directories, relative to the project
// root, in scan order.
func WithLibraryDirs(dirs ...string) Option {
	return func(e *Engine) {
		e.libraryDirs = dirs
	}
}

// WithScriptsDir sets the directory, relative to the project root, whose
// scripts receive injections.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithGeneratorsDir sets the directory, relative to the project root, that
// holds Risor generator scripts.
func WithGeneratorsDir(dir string) Option {
	return func(e *Engine) {
		e.generatorsDir = dir
	}
}

// WithGeneratorsFS configures the Engine to load generators from the given
// filesystem instead of the generators directory on disk. The directory
// name is still used to label generated declarations.
func WithGeneratorsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.generatorsFS = fsys
	}
}

// WithExtension sets the file extension of library files and scripts.
func WithExtension(ext string) Option {
	return func(e *Engine) {
		e.extension = ext
	}
}

// WithParallel controls parallel processing. When true (default), Run uses
// a worker pool for resolution and injection. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithWorkers caps the worker pool size. Zero uses the number of CPUs.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithForce makes Run process every script regardless of freshness.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// WithDryRun makes Run compute results without writing scripts or
// updating the store.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithLogger sets the logger used by the Engine and its generators.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithConfig applies every setting in cfg.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.libraryDirs = cfg.LibraryDirs
		e.scriptsDir = cfg.ScriptsDir
		e.generatorsDir = cfg.GeneratorsDir
		e.extension = cfg.Extension
		e.workers = cfg.Workers
		e.useParallel = cfg.Parallel
	}
}

// New creates an Engine for the project at root, backed by a SQLite
// database at dbPath. Unset options take the defaults of config.DefaultConfig.
func New(dbPath string, root string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("gmlinject: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("gmlinject: migrate: %w", err)
	}

	e := &Engine{store: s, root: root}
	WithConfig(config.DefaultConfig())(e)
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "gmlinject",
			Level:  log.WarnLevel,
		})
	}

	rtOpts := []runtime.RuntimeOption{
		runtime.WithRuntimeLogger(e.logger.WithPrefix("generator")),
	}
	if e.generatorsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.generatorsFS))
	}
	e.runtime = runtime.NewRuntime(root, e.generatorsDir, rtOpts...)

	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Library builds the library from the library directories followed by
// generator output. Any load error aborts the build.
func (e *Engine) Library(ctx context.Context) (*Library, error) {
	paths, err := project.LibraryFiles(e.root, e.libraryDirs, e.extension)
	if err != nil {
		return nil, fmt.Errorf("gmlinject: list library files: %w", err)
	}
	sources, err := project.ReadSources(e.root, paths)
	if err != nil {
		return nil, fmt.Errorf("gmlinject: read library: %w", err)
	}
	generated, err := e.runtime.RunGenerators(ctx)
	if err != nil {
		return nil, fmt.Errorf("gmlinject: generators: %w", err)
	}
	lib, err := library.Build(append(sources, generated...))
	if err != nil {
		return nil, fmt.Errorf("gmlinject: load library: %w", err)
	}
	e.logger.Debug("library built",
		"files", len(paths), "generators", len(generated), "declarations", lib.Len())
	return lib, nil
}

// LibraryChanged reports whether lib differs from the library used by the
// last completed run. True when no run has been recorded.
func (e *Engine) LibraryChanged(lib *Library) (bool, error) {
	stored, err := e.store.GetMetadata(store.KeyLibraryHash)
	if err != nil {
		return false, err
	}
	return stored != lib.Hash(), nil
}

// ResolveScript returns the declarations the script at path needs, without
// writing anything. path is relative to the project root or absolute.
func (e *Engine) ResolveScript(ctx context.Context, path string) ([]Declaration, error) {
	lib, err := e.Library(ctx)
	if err != nil {
		return nil, err
	}
	rel, err := e.relPath(path)
	if err != nil {
		return nil, err
	}
	text, err := project.ReadText(e.root, rel)
	if err != nil {
		return nil, fmt.Errorf("gmlinject: %w", err)
	}
	return resolve.Resolve(inject.Strip(text), lib), nil
}

func (e *Engine) relPath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		return "", fmt.Errorf("gmlinject: %s is not under %s: %w", path, e.root, err)
	}
	return filepath.ToSlash(rel), nil
}

// Report summarizes one Run.
type Report struct {
	Scripts      int           `json:"scripts"`      // scripts discovered
	Processed    int           `json:"processed"`    // fresh scripts resolved
	Written      int           `json:"written"`      // scripts whose content changed
	Declarations int           `json:"declarations"` // library size
	Pruned       int64         `json:"pruned"`       // store records dropped for deleted scripts
	DryRun       bool          `json:"dry_run"`
	Duration     time.Duration `json:"duration_ns"`
	Errors       []error       `json:"-"`
}

// Run processes the project. Scripts are fresh when they have no record,
// their content hash changed, the library changed, or force is set. Fresh
// scripts are resolved and injected; changed ones are written back with LF
// line endings and the store records what was written.
//
// Per-script failures do not stop the run. They are collected in the
// report and summarized in the returned error.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{DryRun: e.dryRun}

	lib, err := e.Library(ctx)
	if err != nil {
		return report, err
	}
	report.Declarations = lib.Len()

	scripts, err := project.LoadScripts(e.root, e.scriptsDir, e.extension)
	if err != nil {
		return report, fmt.Errorf("gmlinject: load scripts: %w", err)
	}
	report.Scripts = len(scripts)

	// ---- Phase A: Serial freshness marking ----
	libChanged, err := e.LibraryChanged(lib)
	if err != nil {
		return report, fmt.Errorf("gmlinject: %w", err)
	}
	var fresh []*project.Script
	for _, s := range scripts {
		if err := e.markFreshness(s, libChanged); err != nil {
			return report, fmt.Errorf("gmlinject: %s: %w", s.Path, err)
		}
		if s.Fresh {
			fresh = append(fresh, s)
		}
	}
	e.logger.Debug("scripts discovered",
		"total", len(scripts), "fresh", len(fresh), "library_changed", libChanged)

	// ---- Phase B: Resolution and injection ----
	var results []workResult
	if e.useParallel {
		results = e.processParallel(ctx, lib, fresh)
	} else {
		results = e.processSerial(ctx, lib, fresh)
	}

	// ---- Phase C: Serial write and commit ----
	batch := store.NewBatchedStore(e.store)
	for _, res := range results {
		if res.err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("process %s: %w", res.script.Path, res.err))
			continue
		}
		report.Processed++
		if res.script.Changed() {
			report.Written++
			if !e.dryRun {
				if err := project.Save(e.root, res.script); err != nil {
					report.Errors = append(report.Errors, err)
					continue
				}
			}
			e.logger.Info("injected", "script", res.script.Path, "declarations", res.injected)
		}
		batch.AddScript(&store.ScriptRecord{
			Path:        res.script.Path,
			Hash:        store.ContentHash(res.script.WorkingContent),
			Injected:    res.injected,
			ProcessedAt: time.Now().UTC(),
		})
	}

	if !e.dryRun {
		// The library hash is only recorded after a clean run so that
		// scripts which failed are retried next time.
		meta := map[string]string{}
		if len(report.Errors) == 0 {
			meta[store.KeyLibraryHash] = lib.Hash()
		}
		if err := e.store.CommitBatch(batch, meta); err != nil {
			report.Errors = append(report.Errors, err)
		}
		if len(report.Errors) == 0 {
			paths := make([]string, len(scripts))
			for i, s := range scripts {
				paths[i] = s.Path
			}
			pruned, err := e.store.PruneScripts(paths)
			if err != nil {
				report.Errors = append(report.Errors, err)
			}
			report.Pruned = pruned
		}
	}

	report.Duration = time.Since(start)
	if len(report.Errors) > 0 {
		return report, fmt.Errorf("processing had %d error(s): %w", len(report.Errors), report.Errors[0])
	}
	return report, nil
}

// markFreshness decides whether s must be processed this run.
func (e *Engine) markFreshness(s *project.Script, libChanged bool) error {
	if e.force || libChanged {
		s.Fresh = true
		return nil
	}
	rec, err := e.store.ScriptByPath(s.Path)
	if err != nil {
		return err
	}
	s.Fresh = rec == nil || rec.Hash != store.ContentHash(s.OriginalContent)
	return nil
}
