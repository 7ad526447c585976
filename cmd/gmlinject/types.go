package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDeclaration is a JSON-friendly declaration representation.
type CLIDeclaration struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Params  []string `json:"params,omitempty"`
	Version int      `json:"version,omitempty"`
	Docs    string   `json:"docs,omitempty"`
	Value   string   `json:"value,omitempty"`
	File    string   `json:"file,omitempty"`
}

// CLIRunReport is a JSON-friendly run summary.
type CLIRunReport struct {
	Scripts      int      `json:"scripts"`
	Processed    int      `json:"processed"`
	Written      int      `json:"written"`
	Declarations int      `json:"declarations"`
	Pruned       int64    `json:"pruned"`
	DryRun       bool     `json:"dry_run,omitempty"`
	DurationMS   int64    `json:"duration_ms"`
	Errors       []string `json:"errors,omitempty"`
}
