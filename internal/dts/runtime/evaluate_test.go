package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/lex"
	"github.com/dkrn/dts-ls/internal/dts/parse"
)

func evalSrc(t *testing.T, src string) Result {
	t.Helper()
	lexed := lex.New("test.dts", src).Lex()
	require.Empty(t, lexed.Diags)
	parsed := parse.Parse("test.dts", lexed.Tokens)
	require.Empty(t, parsed.Diags)
	return Evaluate([]Doc{{URI: "test.dts", Stmts: parsed.Doc.Stmts}}, nil)
}

func Test_Evaluate_duplicateProperty(t *testing.T) {
	res := evalSrc(t, `/{prop1;prop1;cpus{};memory{};};`)

	var dup *diag.Diagnostic
	for i := range res.Diags {
		if res.Diags[i].Kind == diag.DuplicatePropertyName {
			dup = &res.Diags[i]
		}
	}
	require.NotNil(t, dup)
	assert.Equal(t, 3, dup.Range.Start.Col)
	assert.Equal(t, 8, dup.Range.End.Col)
	require.Len(t, dup.Related, 1)
	assert.Equal(t, 9, dup.Related[0].Range.Start.Col)
	assert.Equal(t, 14, dup.Related[0].Range.End.Col)

	prop, ok := res.Root.Properties["prop1"]
	require.True(t, ok)
	require.Len(t, prop.History, 2)

	_, hasCpus := res.Root.childByName["cpus"]
	assert.True(t, hasCpus)
	_, hasMemory := res.Root.childByName["memory"]
	assert.True(t, hasMemory)
}

func Test_Evaluate_danglingLabelRef(t *testing.T) {
	res := evalSrc(t, `/{prop1=&l1;cpus{};memory{};};`)

	var unresolved *diag.Diagnostic
	for i := range res.Diags {
		if res.Diags[i].Kind == diag.UnableToResolveChildNode {
			unresolved = &res.Diags[i]
		}
	}
	require.NotNil(t, unresolved)
	assert.Equal(t, 9, unresolved.Range.Start.Col)
	assert.Equal(t, 12, unresolved.Range.End.Col)
}

func Test_Evaluate_childNodeCreatedOncePerName(t *testing.T) {
	res := evalSrc(t, `/{soc{uart0: uart@1000{status="okay";};};};`)

	soc, ok := res.Root.childByName["soc"]
	require.True(t, ok)
	uart, ok := soc.childByName["uart@1000"]
	require.True(t, ok)
	assert.Equal(t, []string{"soc", "uart@1000"}, uart.Path)
	assert.Equal(t, "/soc/uart@1000", uart.PathString())

	_, ok = res.Root.Properties["status"]
	assert.False(t, ok)
	status, ok := uart.Properties["status"]
	require.True(t, ok)
	require.Len(t, status.Values.Items, 1)
}

func Test_Evaluate_refNodeByLabelMergesIntoSameNode(t *testing.T) {
	res := evalSrc(t, `/{uart0: uart@1000{status="disabled";};};
&uart0{status="okay";clock-frequency=<100>;};`)

	uart := res.Root.childByName["uart@1000"]
	require.NotNil(t, uart)

	status, ok := uart.Properties["status"]
	require.True(t, ok)
	str := status.Values.Items[0].AsString()
	assert.Equal(t, "okay", str.Decoded)
	assert.Len(t, status.History, 2)

	_, ok = uart.Properties["clock-frequency"]
	assert.True(t, ok)
}

func Test_Evaluate_deleteNodeRemovesChildAndFreesLabel(t *testing.T) {
	res := evalSrc(t, `/{old: legacy{};};
/{/delete-node/ &old;};`)

	_, ok := res.Root.childByName["legacy"]
	assert.False(t, ok)
	_, ok = res.Labels["old"]
	assert.False(t, ok)
}

func Test_Evaluate_deletePropertyOfAbsentTargetDiagnosed(t *testing.T) {
	res := evalSrc(t, `/{/delete-property/ missing;};`)

	var found bool
	for _, d := range res.Diags {
		if d.Kind == diag.DeleteOfAbsentTarget {
			found = true
		}
	}
	assert.True(t, found)
}

func Test_Evaluate_phandleAssignedToReferencedNode(t *testing.T) {
	res := evalSrc(t, `/{ctrl: gpio@0{};consumer{gpios=<&ctrl 1 2>;};};`)

	ctrl := res.Root.childByName["gpio@0"]
	require.NotNil(t, ctrl)
	assert.True(t, ctrl.HasPhandle)
	assert.Equal(t, uint64(1), ctrl.Phandle)

	consumer := res.Root.childByName["consumer"]
	require.NotNil(t, consumer)
	assert.False(t, consumer.HasPhandle)
}

func Test_Evaluate_explicitPhandleHonoredAndConflictDiagnosed(t *testing.T) {
	res := evalSrc(t, `/{a{phandle=<5>;};b{phandle=<5>;};};`)

	var conflicts int
	for _, d := range res.Diags {
		if d.Kind == diag.NonUniquePhandle {
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts)

	a := res.Root.childByName["a"]
	b := res.Root.childByName["b"]
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, uint64(5), a.Phandle)
}

func Test_Evaluate_expressionCellsResolveOnceMacroLookupProvided(t *testing.T) {
	lookup := func(name string) (int64, bool) {
		if name == "BASE" {
			return 0x1000, true
		}
		return 0, false
	}
	lexed := lex.New("test.dts", `/{node{reg=<BASE 0x10>;};};`).Lex()
	require.Empty(t, lexed.Diags)
	parsed := parse.Parse("test.dts", lexed.Tokens)
	require.Empty(t, parsed.Diags)
	res := Evaluate([]Doc{{URI: "test.dts", Stmts: parsed.Doc.Stmts}}, lookup)

	node := res.Root.childByName["node"]
	require.NotNil(t, node)
	reg, ok := node.Properties["reg"]
	require.True(t, ok)
	cells := reg.Values.Items[0].AsArray().Cells
	require.Len(t, cells, 2)
	first := cells[0].AsExpression()
	require.NotNil(t, first.Eval)
	assert.Equal(t, int64(0x1000), *first.Eval)
}
