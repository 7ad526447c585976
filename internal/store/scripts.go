package store

import (
	"database/sql"
	"fmt"
)

const upsertScriptSQL = `INSERT INTO scripts (path, hash, injected, processed_at) VALUES (?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, injected = excluded.injected, processed_at = excluded.processed_at`

const upsertMetadataSQL = `INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

// UpsertScript records r, replacing any earlier record for the same path.
func (s *Store) UpsertScript(r *ScriptRecord) error {
	if _, err := s.db.Exec(upsertScriptSQL, r.Path, r.Hash, r.Injected, r.ProcessedAt); err != nil {
		return fmt.Errorf("upsert script: %w", err)
	}
	return nil
}

// ScriptByPath returns the record for path, or nil when there is none.
func (s *Store) ScriptByPath(path string) (*ScriptRecord, error) {
	r := &ScriptRecord{}
	err := s.db.QueryRow(
		"SELECT id, path, hash, injected, processed_at FROM scripts WHERE path = ?", path,
	).Scan(&r.ID, &r.Path, &r.Hash, &r.Injected, &r.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("script by path: %w", err)
	}
	return r, nil
}

// Scripts returns every record ordered by path.
func (s *Store) Scripts() ([]*ScriptRecord, error) {
	rows, err := s.db.Query("SELECT id, path, hash, injected, processed_at FROM scripts ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("scripts: %w", err)
	}
	defer rows.Close()
	var out []*ScriptRecord
	for rows.Next() {
		r := &ScriptRecord{}
		if err := rows.Scan(&r.ID, &r.Path, &r.Hash, &r.Injected, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneScripts deletes records whose path is not in keep, returning how
// many were removed. Scripts deleted from the project stop being tracked.
func (s *Store) PruneScripts(keep []string) (int64, error) {
	query := "DELETE FROM scripts"
	var args []any
	if len(keep) > 0 {
		query += " WHERE path NOT IN (" + placeholderList(len(keep)) + ")"
		args = stringsToArgs(keep)
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune scripts: %w", err)
	}
	return res.RowsAffected()
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

// SetMetadata stores value under key.
func (s *Store) SetMetadata(key, value string) error {
	if _, err := s.db.Exec(upsertMetadataSQL, key, value); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
