package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrn/dts-ls/internal/dts/lex"
	"github.com/dkrn/dts-ls/internal/dts/parse"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
)

func evalSrc(t *testing.T, uri, src string) runtime.Result {
	t.Helper()
	toks := lex.New(uri, src).Lex().Tokens
	res := parse.Parse(uri, toks)
	require.NotNil(t, res.Doc)
	return runtime.Evaluate([]runtime.Doc{{URI: uri, Stmts: res.Doc.Stmts}}, nil)
}

func Test_CompiledDTSOutput_rendersMergedTree(t *testing.T) {
	result := evalSrc(t, "f.dts", `/{compatible="vnd,board";cpus{};};`)
	out := CompiledDTSOutput(result.Root)
	assert.Contains(t, out, `compatible = "vnd,board";`)
	assert.Contains(t, out, "cpus {")
}

func Test_MemoryViews_decodesRegPairs(t *testing.T) {
	result := evalSrc(t, "f.dts", `/{soc{dev@1000{reg=<0x1000 0x100>;};};};`)
	views := MemoryViews(result.Root)
	require.Len(t, views, 1)
	assert.Equal(t, uint64(0x1000), views[0].Base)
	assert.Equal(t, uint64(0x100), views[0].Size)
}

func Test_ActivePath_andLocationScope(t *testing.T) {
	result := evalSrc(t, "f.dts", `/{cpus{status="okay";};};`)
	cpus, ok := result.ResolvePath("/cpus")
	require.True(t, ok)
	pos := cpus.Properties["status"].DeclSite.Start

	path, ok := ActivePath(result.Root, "f.dts", pos)
	require.True(t, ok)
	assert.Equal(t, "/cpus", path)

	scope, ok := LocationScopeInformation(result.Root, "f.dts", pos)
	require.True(t, ok)
	assert.Equal(t, "status", scope.Property)
}

func Test_FormatTextEdits_wholeDocumentReplace(t *testing.T) {
	edit, ok := FormatTextEdits("f.dts", "/{};", FormatOptions{TabSize: 4, InsertSpaces: false, TrimTrailingWhitespace: true})
	require.True(t, ok)
	assert.Equal(t, "f.dts", edit.URI)
	assert.Equal(t, "/ { };", edit.NewText)
}
