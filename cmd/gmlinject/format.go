package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatDeclarationsText formats CLIDeclaration results as aligned columns.
func formatDeclarationsText(w io.Writer, decls []CLIDeclaration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tPARAMS\tFILE")
	for _, d := range decls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Kind, d.Name, strings.Join(d.Params, ", "), d.File)
	}
	tw.Flush()
}

// formatRunReportText formats CLIRunReport as readable text.
func formatRunReportText(w io.Writer, r CLIRunReport) {
	fmt.Fprintln(w, "Run Summary")
	fmt.Fprintln(w, "===========")
	fmt.Fprintf(w, "Scripts:      %d\n", r.Scripts)
	fmt.Fprintf(w, "Processed:    %d\n", r.Processed)
	fmt.Fprintf(w, "Written:      %d\n", r.Written)
	fmt.Fprintf(w, "Declarations: %d\n", r.Declarations)
	if r.Pruned > 0 {
		fmt.Fprintf(w, "Pruned:       %d\n", r.Pruned)
	}
	if r.DryRun {
		fmt.Fprintln(w, "(dry run: nothing written)")
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

// outputResultText writes result to stdout as text.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []CLIDeclaration:
		formatDeclarationsText(w, v)
	case CLIRunReport:
		formatRunReportText(w, v)
	case nil:
	default:
		return fmt.Errorf("no text format for %T", v)
	}
	if result.Error != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
