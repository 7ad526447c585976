package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/gmlinject/internal/decl"
)

const atRoot = `#define func {
    // some docs
    //some more docs
    func content

}

#define another_func
    another func
    content

`

const inSubfolder = `#define needs_other {
    other()
}

#define other
    other content

`

func names(decls []decl.Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name()
	}
	return out
}

func TestSplitBlocks(t *testing.T) {
	t.Parallel()
	blocks := SplitBlocks(inSubfolder)
	require.Len(t, blocks, 2)

	assert.Equal(t, Block{Kind: "define", Header: "needs_other", Body: " {\n    other()\n}\n\n"}, blocks[0])
	assert.Equal(t, Block{Kind: "define", Header: "other", Body: "\n    other content\n\n"}, blocks[1])
}

func TestSplitBlocks_HeaderRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Block
	}{
		{"params to end of line", "#define f(a, b)\n    x\n", Block{"define", "f(a, b)", "\n    x\n"}},
		{"params then brace", "#define f(a, b) { x }", Block{"define", "f(a, b) ", "{ x }"}},
		{"brace after name", "#define f{ x }", Block{"define", "f", "{ x }"}},
		{"macro value with parens", "#macro M scr(1)\n", Block{"macro", "M", " scr(1)\n"}},
		{"no body", "#define f", Block{"define", "f", ""}},
		{"extra spaces", "#macro   M  1", Block{"macro", "M", "  1"}},
		{"space before params", "#define f (a, b)\n    a + b", Block{"define", "f (a, b)", "\n    a + b"}},
		{"macro value in parens", "#macro M (1 + 2)\n", Block{"macro", "M", " (1 + 2)\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := SplitBlocks(tt.text)
			require.Len(t, blocks, 1)
			assert.Equal(t, tt.want, blocks[0])
		})
	}
}

func TestSplitBlocks_IgnoresPreambleAndInlineHashes(t *testing.T) {
	t.Parallel()
	text := "// shared helpers\n\n#define f\n    draw_set_color($FFFFFF); // #1\n#macro M 1\n"
	blocks := SplitBlocks(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, "f", blocks[0].Header)
	assert.Contains(t, blocks[0].Body, "// #1")
	assert.Equal(t, "M", blocks[1].Header)
}

func TestScan_SpacedParamList(t *testing.T) {
	t.Parallel()
	decls, err := Scan("#define f (a, b)\n    a + b\n")
	require.NoError(t, err)
	require.Len(t, decls, 1)

	d, ok := decls[0].(*decl.Define)
	require.True(t, ok)
	assert.Equal(t, "f", d.Name())
	assert.Equal(t, []string{"a", "b"}, d.Params())
	assert.Equal(t, "#define f(a, b) // Version 0\n    a + b", d.Source())
}

func TestScan_Order(t *testing.T) {
	t.Parallel()
	decls, err := Scan(atRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"func", "another_func"}, names(decls))

	fn, ok := decls[0].(*decl.Define)
	require.True(t, ok)
	assert.Equal(t, "some docs\nsome more docs", fn.Docs())
}

func TestScan_UnknownType(t *testing.T) {
	t.Parallel()
	_, err := Scan("#region helpers\n#define f\n    x\n")
	require.ErrorIs(t, err, decl.ErrUnknownDeclarationType)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "region helpers", le.Block)
}

func TestBuild_ConcatenatesInSourceOrder(t *testing.T) {
	t.Parallel()
	lib, err := Build([]Source{
		{Path: "assistant/.inject/at_root.gml", Text: atRoot},
		{Path: "assistant/user_inject/subfolder/in_subfolder.gml", Text: inSubfolder},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, lib.Len())
	assert.Equal(t, []string{"func", "another_func", "needs_other", "other"}, names(lib.Declarations()))

	entries := lib.Entries()
	assert.Equal(t, "assistant/.inject/at_root.gml", entries[1].Path)
	assert.Equal(t, "assistant/user_inject/subfolder/in_subfolder.gml", entries[2].Path)

	want, err := decl.NewDefine("needs_other", "other()")
	require.NoError(t, err)
	assert.True(t, decl.Equal(want, lib.At(2)))
}

func TestBuild_KeepsDuplicates(t *testing.T) {
	t.Parallel()
	lib, err := Build([]Source{
		{Path: "a.gml", Text: "#macro M 1\n"},
		{Path: "b.gml", Text: "#macro M 2\n"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"M", "M"}, names(lib.Declarations()))
}

func TestBuild_ErrorNamesFile(t *testing.T) {
	t.Parallel()
	_, err := Build([]Source{
		{Path: "good.gml", Text: atRoot},
		{Path: "bad.gml", Text: "#define broken {\n    x\n"},
	})
	require.ErrorIs(t, err, decl.ErrMalformedBlock)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "bad.gml", le.Path)
	assert.Contains(t, err.Error(), "bad.gml")
}

func TestBuild_HashTracksContent(t *testing.T) {
	t.Parallel()
	a, err := Build([]Source{{Path: "a.gml", Text: "#macro M 1\n"}})
	require.NoError(t, err)
	b, err := Build([]Source{{Path: "a.gml", Text: "#macro M 1\n"}})
	require.NoError(t, err)
	c, err := Build([]Source{{Path: "a.gml", Text: "#macro M 2\n"}})
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}
