package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/lex"
)

func parseSrc(t *testing.T, src string) Result {
	t.Helper()
	lexed := lex.New("test.dts", src).Lex()
	require.Empty(t, lexed.Diags)
	return Parse("test.dts", lexed.Tokens)
}

func Test_Parse_rootNodeWithProperty(t *testing.T) {
	res := parseSrc(t, "/ {\n\tcompatible = \"acme,widget\";\n};\n")
	require.Empty(t, res.Diags)
	require.Len(t, res.Doc.Stmts, 1)

	root := res.Doc.Stmts[0].AsRootNode()
	require.Len(t, root.Body, 1)

	prop := root.Body[0].AsProperty()
	assert.Equal(t, "compatible", prop.Name)
	require.Len(t, prop.Values.Items, 1)
	str := prop.Values.Items[0].AsString()
	assert.Equal(t, "acme,widget", str.Decoded)
}

func Test_Parse_booleanProperty(t *testing.T) {
	res := parseSrc(t, "/ {\n\tdma-coherent;\n};\n")
	require.Empty(t, res.Diags)
	root := res.Doc.Stmts[0].AsRootNode()
	prop := root.Body[0].AsProperty()
	assert.Equal(t, "dma-coherent", prop.Name)
	assert.Nil(t, prop.Values)
}

func Test_Parse_childNodeWithAddressAndLabel(t *testing.T) {
	res := parseSrc(t, "/ {\n\tuart0: serial@1000 {\n\t\treg = <0x1000 0x100>;\n\t};\n};\n")
	require.Empty(t, res.Diags)
	root := res.Doc.Stmts[0].AsRootNode()
	require.Len(t, root.Body, 1)

	child := root.Body[0].AsChildNode()
	assert.Equal(t, "serial", child.BaseName)
	assert.True(t, child.HasAddress)
	assert.Equal(t, []uint64{0x1000}, child.Address)
	require.Len(t, child.Labels, 1)
	assert.Equal(t, "uart0", child.Labels[0].Name)

	reg := child.Body[0].AsProperty()
	arr := reg.Values.Items[0].AsArray()
	require.Len(t, arr.Cells, 2)
	assert.Equal(t, "0x1000", arr.Cells[0].AsExpression().Source)
	assert.Equal(t, "0x100", arr.Cells[1].AsExpression().Source)
}

func Test_Parse_refNodeByLabel(t *testing.T) {
	res := parseSrc(t, "&uart0 {\n\tstatus = \"okay\";\n};\n")
	require.Empty(t, res.Diags)
	ref := res.Doc.Stmts[0].AsRefNode()
	assert.Equal(t, ast.RefByLabel, ref.RefKind)
	assert.Equal(t, "uart0", ref.RefLabel)
}

func Test_Parse_refNodeByPath(t *testing.T) {
	res := parseSrc(t, "&{/soc/uart@1000} {\n\tstatus = \"disabled\";\n};\n")
	require.Empty(t, res.Diags)
	ref := res.Doc.Stmts[0].AsRefNode()
	assert.Equal(t, ast.RefByPath, ref.RefKind)
	assert.Equal(t, "/soc/uart@1000", ref.RefPath)
}

func Test_Parse_deleteNodeAndProperty(t *testing.T) {
	res := parseSrc(t, "/delete-node/ &uart0;\n/ {\n\t/delete-property/ status;\n};\n")
	require.Empty(t, res.Diags)
	require.Len(t, res.Doc.Stmts, 2)

	del := res.Doc.Stmts[0].AsDeleteNode()
	assert.Equal(t, ast.RefByLabel, del.TargetKind)
	assert.Equal(t, "uart0", del.Target)

	root := res.Doc.Stmts[1].AsRootNode()
	delProp := root.Body[0].AsDeleteProperty()
	assert.Equal(t, "status", delProp.Target)
}

func Test_Parse_labelRefAndPathRefValues(t *testing.T) {
	res := parseSrc(t, "/ {\n\tinterrupt-parent = <&gic>;\n\tsome-path = &{/soc/gic};\n};\n")
	require.Empty(t, res.Diags)
	root := res.Doc.Stmts[0].AsRootNode()

	arr := root.Body[0].AsProperty().Values.Items[0].AsArray()
	labelRef := arr.Cells[0].AsLabelRef()
	assert.Equal(t, "gic", labelRef.Label)

	pathRef := root.Body[1].AsProperty().Values.Items[0].AsNodePathRef()
	assert.Equal(t, "/soc/gic", pathRef.Path)
}

func Test_Parse_bytestringValue(t *testing.T) {
	res := parseSrc(t, "/ {\n\tlocal-mac-address = [00 1A 2b 3C];\n};\n")
	require.Empty(t, res.Diags)
	root := res.Doc.Stmts[0].AsRootNode()
	bs := root.Body[0].AsProperty().Values.Items[0].AsBytestring()
	assert.Equal(t, []byte{0x00, 0x1A, 0x2B, 0x3C}, bs.Bytes)
}

func Test_Parse_missingSemicolonRecoversAndReportsOneDiagnostic(t *testing.T) {
	res := parseSrc(t, "/ {\n\tcompatible = \"acme,widget\"\n\tstatus = \"okay\";\n};\n")
	require.Len(t, res.Diags, 1)
	root := res.Doc.Stmts[0].AsRootNode()
	require.Len(t, root.Body, 2)
	assert.Equal(t, "status", root.Body[1].AsProperty().Name)
}

func Test_Parse_commentsRetained(t *testing.T) {
	res := parseSrc(t, "// header\n/ {\n\t/* block */\n\tstatus = \"okay\";\n};\n")
	require.Empty(t, res.Diags)
	require.Len(t, res.Doc.Stmts, 2)
	assert.Equal(t, ast.KindCommentLine, res.Doc.Stmts[0].Kind())

	root := res.Doc.Stmts[1].AsRootNode()
	require.Len(t, root.Body, 2)
	assert.Equal(t, ast.KindCommentBlock, root.Body[0].Kind())
}

func Test_Parse_macroCallValueSurvivesUnexpanded(t *testing.T) {
	res := parseSrc(t, "/ {\n\tsome-prop = GPIO(0, 1);\n};\n")
	require.Empty(t, res.Diags)
	root := res.Doc.Stmts[0].AsRootNode()
	call := root.Body[0].AsProperty().Values.Items[0].AsMacroCall()
	assert.Equal(t, "GPIO", call.Name)
	assert.Equal(t, []string{"0", "1"}, call.Args)
}
