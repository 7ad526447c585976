package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jward/gmlinject"
	"github.com/jward/gmlinject/internal/config"
	"github.com/jward/gmlinject/internal/store"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "gmlinject",
	Short:         "Inject library defines and macros into GML scripts",
	Long:          "gmlinject scans library files for #define and #macro declarations and appends the ones each script needs, transitively, in a generated block at the end of the script.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: database setting relative to project root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" under the project root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(resolveCmd)
}

var (
	flagForce  bool
	flagDryRun bool
	flagSerial bool
)

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Inject dependencies into every script of a project",
	Long:  "Builds the library, resolves each changed script against it, rewrites scripts whose injected block changed, and records the result in the SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&flagForce, "force", false, "process every script, even unchanged ones")
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would change without writing scripts or the database")
	runCmd.Flags().BoolVar(&flagSerial, "serial", false, "process scripts on a single goroutine")
}

func runRun(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := commandContext(cmd)

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("run", err)
	}

	opts := []gmlinject.Option{
		gmlinject.WithForce(flagForce),
		gmlinject.WithDryRun(flagDryRun),
	}
	engine, dbPath, err := openEngine(ctx, targetDir, flagDryRun, opts...)
	if err != nil {
		return outputError("run", err)
	}
	defer engine.Close()

	report, runErr := engine.Run(ctx)
	result := CLIResult{Command: "run", Results: reportToCLI(report)}
	if runErr != nil {
		result.Error = runErr.Error()
	}
	if err := outputResult(result); err != nil {
		return err
	}

	// Print timing summary to stderr.
	verb := "Processed"
	if flagDryRun {
		verb = "Checked"
	}
	fmt.Fprintf(os.Stderr, "%s %d of %d scripts in %s (%d written, %d declarations)\n",
		verb, report.Processed, report.Scripts,
		time.Since(start).Round(time.Millisecond),
		report.Written, report.Declarations,
	)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)

	if runErr != nil {
		errorHandled = true
		return runErr
	}
	return nil
}

// openEngine loads the project configuration and creates an Engine for the
// project containing dir. A readOnly engine never creates the database.
func openEngine(ctx context.Context, dir string, readOnly bool, opts ...gmlinject.Option) (*gmlinject.Engine, string, error) {
	root := findProjectRoot(dir)
	cfg, cfgPath, err := config.Load(ctx, root, flagConfig)
	if err != nil {
		return nil, "", err
	}
	if flagSerial {
		cfg.Parallel = false
	}

	logger := newLogger()
	if cfgPath != "" {
		logger.Debug("config loaded", "path", cfgPath)
	}

	dbPath := resolveDBPath(root, cfg)
	openPath, err := storePath(dbPath, readOnly)
	if err != nil {
		return nil, "", err
	}

	opts = append([]gmlinject.Option{
		gmlinject.WithConfig(cfg),
		gmlinject.WithLogger(logger),
	}, opts...)
	engine, err := gmlinject.New(openPath, root, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("creating engine: %w", err)
	}
	return engine, dbPath, nil
}

// storePath returns the database to open for dbPath. Read-only commands
// fall back to an in-memory store when the file does not exist yet, so they
// leave the project untouched.
func storePath(dbPath string, readOnly bool) (string, error) {
	if readOnly {
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
			return store.MemoryPath, nil
		}
		return dbPath, nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}
	return dbPath, nil
}

func newLogger() *log.Logger {
	level := log.WarnLevel
	if flagVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "gmlinject",
		Level:  level,
	})
}

// resolveTargetDir returns the absolute path of the directory to process.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findProjectRoot walks up from startDir looking for an assistant
// directory. Returns startDir if none is found.
func findProjectRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, "assistant")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the config.
func resolveDBPath(root string, cfg *config.Config) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(root, flagDB)
	}
	return cfg.DatabasePath(root)
}
