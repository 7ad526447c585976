package store

import (
	"sort"
	"sync"
)

// BatchedStore buffers script records produced by parallel workers so the
// serial phase can write them in one transaction with CommitBatch.
//
// Thread safety: the mutex protects slice appends. Reads pass through to
// the underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Scripts []ScriptRecord
}

// NewBatchedStore creates a BatchedStore backed by s for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

// AddScript buffers r. The record is not visible until CommitBatch.
func (b *BatchedStore) AddScript(r *ScriptRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Scripts = append(b.Scripts, *r)
}

// ScriptByPath reads the committed record for path.
func (b *BatchedStore) ScriptByPath(path string) (*ScriptRecord, error) {
	return b.store.ScriptByPath(path)
}

// Len returns the number of buffered records.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Scripts)
}

// sorted returns the buffered records ordered by path so commits are
// deterministic regardless of worker scheduling.
func (b *BatchedStore) sorted() []ScriptRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ScriptRecord, len(b.Scripts))
	copy(out, b.Scripts)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
