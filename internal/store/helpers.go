package store

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// stringsToArgs converts []string to []any for use with database/sql.
func stringsToArgs(vals []string) []any {
	args := make([]any, len(vals))
	for i, v := range vals {
		args[i] = v
	}
	return args
}

// ContentHash returns the hex SHA-256 of content, the value recorded per
// script and compared on the next run.
func ContentHash(content string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
}
