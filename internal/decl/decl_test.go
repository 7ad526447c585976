package decl

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefine(t *testing.T, name, content string, opts ...DefineOption) *Define {
	t.Helper()
	d, err := NewDefine(name, content, opts...)
	require.NoError(t, err)
	return d
}

func mustMacro(t *testing.T, name, value string) *Macro {
	t.Helper()
	m, err := NewMacro(name, value)
	require.NoError(t, err)
	return m
}

// =============================================================================
// Rendering
// =============================================================================

func TestNewDefine_RendersHeaderDocsAndBody(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "func", "func content", WithDocs("some docs\nsome more docs"))

	want := "#define func // Version 0\n" +
		"    // some docs\n" +
		"    // some more docs\n" +
		"    func content"
	assert.Equal(t, want, d.Source())
	assert.Equal(t, "func", d.Name())
	assert.Equal(t, KindDefine, d.Kind())
}

func TestNewDefine_ParamsAndVersion(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "spawn_dust", "var x = 1;\nreturn x;", WithParams("x", "y"), WithVersion(3))

	want := "#define spawn_dust(x, y) // Version 3\n" +
		"    var x = 1;\n" +
		"    return x;"
	assert.Equal(t, want, d.Source())
	assert.Equal(t, []string{"x", "y"}, d.Params())
	assert.Equal(t, 3, d.Version())
}

func TestNewDefine_BlankDocsOmitted(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "f", "body", WithDocs(""))
	assert.Equal(t, "#define f // Version 0\n    body", d.Source())
}

func TestNewDefine_KeepsRelativeIndentation(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "f", "    if (a) {\n        b();\n    }")
	assert.Equal(t, "#define f // Version 0\n    if (a) {\n        b();\n    }", d.Source())
}

func TestNewDefine_RejectsEmptyNameAndNegativeVersion(t *testing.T) {
	t.Parallel()
	_, err := NewDefine("", "x")
	require.ErrorIs(t, err, ErrMalformedBlock)

	_, err = NewDefine("f", "x", WithVersion(-1))
	require.ErrorIs(t, err, ErrMalformedBlock)
}

func TestNewMacro_Renders(t *testing.T) {
	t.Parallel()
	m := mustMacro(t, "AT_JAB_WINDOW", "3")
	assert.Equal(t, "#macro AT_JAB_WINDOW 3", m.Source())
	assert.Equal(t, KindMacro, m.Kind())
	assert.Equal(t, "3", m.Value())
}

// =============================================================================
// Patterns
// =============================================================================

func TestDefineUsePattern(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "other", "other content", WithParams("a"))

	tests := []struct {
		text string
		want bool
	}{
		{"other()", true},
		{"x = other(1);", true},
		{"    other(2)", true},
		{"needs_other()", false},
		{"other_thing()", false},
		{"other", false},
		{"#define other(a)", false},
		{d.Source(), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UsedIn(d, tt.text), "text %q", tt.text)
	}
}

func TestMacroUsePattern(t *testing.T) {
	t.Parallel()
	m := mustMacro(t, "SPEED", "4")

	tests := []struct {
		text string
		want bool
	}{
		{"SPEED", true},
		{"hsp = SPEED;", true},
		{"x = SPEED\n", true},
		{"MAX_SPEED", false},
		{"SPEEDY", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UsedIn(m, tt.text), "text %q", tt.text)
	}
}

func TestGivePatterns(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "other", "x")
	m := mustMacro(t, "SPEED", "4")

	assert.True(t, GivenIn(d, "#define other\n    local"))
	assert.True(t, GivenIn(d, "#define other(a, b)"))
	assert.True(t, GivenIn(d, "stuff\n#define   other"))
	assert.False(t, GivenIn(d, "#define other_two"))
	assert.False(t, GivenIn(d, "#macro other 1"))

	assert.True(t, GivenIn(m, "#macro SPEED 9"))
	assert.True(t, GivenIn(m, "#macro SPEED"))
	assert.False(t, GivenIn(m, "#macro SPEEDY 9"))
	assert.False(t, GivenIn(m, "#define SPEED"))
}

func TestPatternStrings(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "f", "x")
	m := mustMacro(t, "M", "1")

	assert.Equal(t, `(?<!#define)(^|\W)f\(`, d.UsePattern().String())
	assert.Equal(t, `#define(\s)*f(\W|$)`, d.GivePattern().String())
	assert.Equal(t, `(^|\W)M($|\W)`, m.UsePattern().String())
	assert.Equal(t, `#macro(\s)*M(\W|$)`, m.GivePattern().String())
}

func TestCompilePattern_Invalid(t *testing.T) {
	t.Parallel()
	_, err := NewDefine("broken(", "x")
	require.ErrorIs(t, err, ErrInvalidPattern)
}

func TestPattern_ConcurrentMatching(t *testing.T) {
	t.Parallel()
	d := mustDefine(t, "shared", "x")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.True(t, UsedIn(d, "a = shared();"))
				assert.False(t, UsedIn(d, "a = unshared();"))
			}
		}()
	}
	wg.Wait()
}

// =============================================================================
// Identity
// =============================================================================

func TestEqual(t *testing.T) {
	t.Parallel()
	a := mustDefine(t, "f", "body")
	b := mustDefine(t, "f", "body")
	c := mustDefine(t, "f", "other body")
	m := mustMacro(t, "f", "body")

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, m))
	assert.Equal(t, KeyOf(a), KeyOf(b))
}
