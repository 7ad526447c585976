package store

import "fmt"

// CommitBatch writes every buffered record from batch, plus the given
// metadata entries, within a single transaction. On error nothing is
// written.
func (s *Store) CommitBatch(batch *BatchedStore, metadata map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range batch.sorted() {
		if _, err := tx.Exec(upsertScriptSQL, r.Path, r.Hash, r.Injected, r.ProcessedAt); err != nil {
			return fmt.Errorf("commit batch: script %q: %w", r.Path, err)
		}
	}

	for k, v := range metadata {
		if _, err := tx.Exec(upsertMetadataSQL, k, v); err != nil {
			return fmt.Errorf("commit batch: metadata %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: commit: %w", err)
	}
	return nil
}
