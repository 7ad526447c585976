package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func record(path, content string, injected int) *ScriptRecord {
	return &ScriptRecord{
		Path:        path,
		Hash:        ContentHash(content),
		Injected:    injected,
		ProcessedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"scripts", "metadata"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestNewStore_InMemory(t *testing.T) {
	t.Parallel()
	s, err := NewStore(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())

	require.NoError(t, s.UpsertScript(record("scripts/a.gml", "a()", 1)))
	got, err := s.ScriptByPath("scripts/a.gml")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ContentHash("a()"), got.Hash)
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}

func TestNewStore_WALMode(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// =============================================================================
// Scripts
// =============================================================================

func TestUpsertScript_InsertAndRead(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	r := record("scripts/a/a.gml", "a()", 2)
	require.NoError(t, s.UpsertScript(r))

	got, err := s.ScriptByPath("scripts/a/a.gml")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Positive(t, got.ID)
	assert.Equal(t, r.Hash, got.Hash)
	assert.Equal(t, 2, got.Injected)
	assert.True(t, r.ProcessedAt.Equal(got.ProcessedAt))
}

func TestUpsertScript_ReplacesExisting(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.UpsertScript(record("a.gml", "old", 1)))
	require.NoError(t, s.UpsertScript(record("a.gml", "new", 3)))

	all, err := s.Scripts()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ContentHash("new"), all[0].Hash)
	assert.Equal(t, 3, all[0].Injected)
}

func TestScriptByPath_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	got, err := s.ScriptByPath("nope.gml")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScripts_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, p := range []string{"c.gml", "a.gml", "b.gml"} {
		require.NoError(t, s.UpsertScript(record(p, p, 0)))
	}
	all, err := s.Scripts()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a.gml", all[0].Path)
	assert.Equal(t, "b.gml", all[1].Path)
	assert.Equal(t, "c.gml", all[2].Path)
}

func TestPruneScripts(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, p := range []string{"a.gml", "b.gml", "c.gml"} {
		require.NoError(t, s.UpsertScript(record(p, p, 0)))
	}

	n, err := s.PruneScripts([]string{"b.gml"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := s.Scripts()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b.gml", all[0].Path)

	n, err = s.PruneScripts(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// =============================================================================
// Metadata
// =============================================================================

func TestMetadata_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata(KeyLibraryHash)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata(KeyLibraryHash, "h1"))
	require.NoError(t, s.SetMetadata(KeyLibraryHash, "h2"))

	v, err = s.GetMetadata(KeyLibraryHash)
	require.NoError(t, err)
	assert.Equal(t, "h2", v)
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	assert.Len(t, ContentHash("x"), 64)
	assert.Equal(t, ContentHash("x"), ContentHash("x"))
	assert.NotEqual(t, ContentHash("x"), ContentHash("y"))
}

// =============================================================================
// Batched writes
// =============================================================================

func TestBatchedStore_ConcurrentAddThenCommit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatchedStore(s)

	paths := []string{"d.gml", "a.gml", "c.gml", "b.gml"}
	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			b.AddScript(record(p, p, 1))
		}(p)
	}
	wg.Wait()
	assert.Equal(t, 4, b.Len())

	// Nothing is visible before the commit.
	got, err := b.ScriptByPath("a.gml")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.CommitBatch(b, map[string]string{KeyLibraryHash: "lib"}))

	all, err := s.Scripts()
	require.NoError(t, err)
	assert.Len(t, all, 4)

	v, err := s.GetMetadata(KeyLibraryHash)
	require.NoError(t, err)
	assert.Equal(t, "lib", v)
}

func TestCommitBatch_Empty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.CommitBatch(NewBatchedStore(s), nil))

	all, err := s.Scripts()
	require.NoError(t, err)
	assert.Empty(t, all)
}
