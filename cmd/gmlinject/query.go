package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/gmlinject"
)

var libraryCmd = &cobra.Command{
	Use:   "library [path]",
	Short: "List library declarations in resolution order",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLibrary,
}

func runLibrary(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("library", err)
	}
	engine, _, err := openEngine(ctx, targetDir, true)
	if err != nil {
		return outputError("library", err)
	}
	defer engine.Close()

	lib, err := engine.Library(ctx)
	if err != nil {
		return outputError("library", err)
	}
	entries := lib.Entries()
	decls := make([]CLIDeclaration, len(entries))
	for i, entry := range entries {
		decls[i] = declarationToCLI(entry.Decl, entry.Path)
	}
	total := len(decls)
	return outputResult(CLIResult{Command: "library", Results: decls, TotalCount: &total})
}

var flagRoot string

var resolveCmd = &cobra.Command{
	Use:   "resolve <script>",
	Short: "Print the declarations a script needs, without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagRoot, "root", "", "project root (default: nearest ancestor with an assistant directory)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	script, err := filepath.Abs(args[0])
	if err != nil {
		return outputError("resolve", fmt.Errorf("resolving path %q: %w", args[0], err))
	}

	dir := filepath.Dir(script)
	if flagRoot != "" {
		if dir, err = filepath.Abs(flagRoot); err != nil {
			return outputError("resolve", err)
		}
	}
	engine, _, err := openEngine(ctx, dir, true)
	if err != nil {
		return outputError("resolve", err)
	}
	defer engine.Close()

	closure, err := engine.ResolveScript(ctx, script)
	if err != nil {
		return outputError("resolve", err)
	}
	decls := make([]CLIDeclaration, len(closure))
	for i, d := range closure {
		decls[i] = declarationToCLI(d, "")
	}
	total := len(decls)
	return outputResult(CLIResult{Command: "resolve", Results: decls, TotalCount: &total})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// declarationToCLI converts a declaration to its JSON-friendly form.
func declarationToCLI(d gmlinject.Declaration, path string) CLIDeclaration {
	out := CLIDeclaration{
		Name: d.Name(),
		Kind: string(d.Kind()),
		File: path,
	}
	switch v := d.(type) {
	case *gmlinject.Define:
		out.Params = v.Params()
		out.Version = v.Version()
		out.Docs = v.Docs()
	case *gmlinject.Macro:
		out.Value = v.Value()
	}
	return out
}

// reportToCLI converts an Engine report to its JSON-friendly form.
func reportToCLI(r *gmlinject.Report) CLIRunReport {
	out := CLIRunReport{
		Scripts:      r.Scripts,
		Processed:    r.Processed,
		Written:      r.Written,
		Declarations: r.Declarations,
		Pruned:       r.Pruned,
		DryRun:       r.DryRun,
		DurationMS:   r.Duration.Milliseconds(),
	}
	for _, err := range r.Errors {
		out.Errors = append(out.Errors, err.Error())
	}
	return out
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
