package store

import "time"

// ScriptRecord is the state of one script as the last run left it.
type ScriptRecord struct {
	ID          int64
	Path        string
	Hash        string
	Injected    int // number of declarations in the injected block
	ProcessedAt time.Time
}

// Metadata keys.
const (
	KeyLibraryHash = "library_hash"
)
