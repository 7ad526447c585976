package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/gmlinject/internal/decl"
)

func defines(t *testing.T, pairs ...string) []decl.Declaration {
	t.Helper()
	var out []decl.Declaration
	for i := 0; i < len(pairs); i += 2 {
		d, err := decl.NewDefine(pairs[i], pairs[i+1])
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestApply_AppendsBlock(t *testing.T) {
	t.Parallel()
	ds := defines(t, "a", "x", "b", "y")

	got := Apply("script()", ds)
	want := "script()\n\n" +
		StartHeader + "\n" +
		"#define a // Version 0\n    x\n\n" +
		"#define b // Version 0\n    y\n" +
		EndHeader
	assert.Equal(t, want, got)
}

func TestApply_EmptyClosureLeavesScriptUntouched(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain script\n", Apply("plain script\n", nil))
}

func TestApply_EmptyClosureRemovesStaleBlock(t *testing.T) {
	t.Parallel()
	original := "code()"
	injected := Apply(original, defines(t, "code", "x"))
	require.NotEqual(t, original, injected)

	assert.Equal(t, original, Apply(injected, nil))
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()
	ds := defines(t, "a", "x")

	for _, original := range []string{"a()", "a()\n", "a()\n\n\n", "", "\n"} {
		first := Apply(original, ds)
		second := Apply(first, ds)
		assert.Equal(t, first, second, "original %q", original)
	}
}

func TestApply_ReplacesChangedBlock(t *testing.T) {
	t.Parallel()
	old := Apply("a()\nb()", defines(t, "a", "old"))
	updated := Apply(old, defines(t, "a", "new", "b", "y"))

	assert.Equal(t, Apply("a()\nb()", defines(t, "a", "new", "b", "y")), updated)
	assert.NotContains(t, updated, "old")
}

func TestStrip_RoundTrip(t *testing.T) {
	t.Parallel()
	ds := defines(t, "a", "x")
	original := "line one\nline two"

	injected := Apply(original, ds)
	assert.Equal(t, original, Strip(injected))
	assert.Equal(t, injected, Apply(Strip(injected), ds))
}

func TestStrip_KeepsTextAfterBlock(t *testing.T) {
	t.Parallel()
	content := "top\n\n" + StartHeader + "\nstuff\n" + EndHeader + "\nuser tail"
	assert.Equal(t, "top\nuser tail", Strip(content))
}

func TestStrip_IncompleteBlockIsLeftAlone(t *testing.T) {
	t.Parallel()
	content := "top\n\n" + StartHeader + "\nstuff"
	assert.Equal(t, content, Strip(content))
}

func TestApply_UnmatchedStartHeaderIsKept(t *testing.T) {
	t.Parallel()
	ds := defines(t, "other", "x")
	original := "other()\n\n" + StartHeader + "\nuser code kept()\n"

	first := Apply(original, ds)
	require.Contains(t, first, "user code kept()")
	assert.Equal(t, original, Strip(first))

	second := Apply(first, ds)
	assert.Equal(t, first, second)
	assert.Contains(t, second, "user code kept()")
}

func TestRender_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", Render(nil))
}
