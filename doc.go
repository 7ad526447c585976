// Package gmlinject injects library declarations into GML scripts.
//
// A project keeps reusable #define and #macro declarations in library
// files. Scripts use them by name without copying them in. gmlinject finds
// which declarations each script needs, follows their own dependencies
// transitively, and appends the result to the script inside a delimited
// block that is replaced on every run.
//
// # Pipeline
//
//  1. Library: scan every library file (configured directories in order,
//     files sorted by path) and the output of Risor generator scripts into
//     one ordered list of declarations.
//
//  2. Resolve: for each script, strip any previously injected block, then
//     repeatedly scan the library in order, taking every declaration whose
//     use pattern matches the script text plus the sources already taken.
//     Declarations the script defines itself are never injected.
//
//  3. Inject: render the closure between start and end sentinel comments
//     and append it to the clean script.
//
// # Usage
//
// The pure functions work on strings:
//
//	lib, err := gmlinject.BuildLibrary([]string{libraryText})
//	if err != nil { ... }
//	out := gmlinject.ResolveAndInject(scriptText, lib)
//
// The Engine works on a project directory and records what it wrote in
// SQLite so that unchanged scripts are skipped on the next run:
//
//	e, err := gmlinject.New("assistant/.gmlinject.db", "path/to/project")
//	if err != nil { ... }
//	defer e.Close()
//
//	report, err := e.Run(ctx)
//
// # Generators
//
// Risor scripts under the generators directory run on every library build.
// They add declarations through emit, macro and define globals. See the
// internal/runtime package for the full set of globals.
package gmlinject
