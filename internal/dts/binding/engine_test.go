package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/lex"
	"github.com/dkrn/dts-ls/internal/dts/parse"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
)

func evalSrc(t *testing.T, src string) runtime.Result {
	t.Helper()
	lexed := lex.New("test.dts", src).Lex()
	require.Empty(t, lexed.Diags)
	parsed := parse.Parse("test.dts", lexed.Tokens)
	require.Empty(t, parsed.Diags)
	return runtime.Evaluate([]runtime.Doc{{URI: "test.dts", Stmts: parsed.Doc.Stmts}}, nil)
}

func Test_Engine_regMatchesAddressSizeCells_noDiagnostics(t *testing.T) {
	res := evalSrc(t, `/{#address-cells=<2>;#size-cells=<1>;compatible="";model="";`+
		`node1{#address-cells=<1>;#size-cells=<2>;node2@200{reg=<0x200 0 0>;};};};`)

	eng := NewEngine(nil, nil)
	diags := eng.Run(res.Root, res.Labels)

	for _, d := range diags {
		assert.NotEqual(t, diag.AddressRegMismatch, d.Kind, d.Message())
		assert.NotEqual(t, diag.TypeMismatch, d.Kind, d.Message())
	}
}

func Test_Engine_rangesOverlap(t *testing.T) {
	res := evalSrc(t, `/{#address-cells=<1>;#size-cells=<1>;`+
		`bus{#address-cells=<1>;#size-cells=<1>;ranges=<0x0 0x0 0x100 0x80 0x100 0x100>;};};`)

	eng := NewEngine(nil, nil)
	diags := eng.Run(res.Root, res.Labels)

	var found *diag.Diagnostic
	for i := range diags {
		if diags[i].Kind == diag.RangesOverlap {
			found = &diags[i]
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Args, 1)
	assert.Equal(t, "child", found.Args[0])
}

func Test_Engine_phandleArrayCellMismatch(t *testing.T) {
	res := evalSrc(t, `/{ctrl: ctrl{#gpio-cells=<3>;};dev{gpios=<&ctrl 1 2>;};};`)

	eng := NewEngine(nil, nil)
	diags := eng.Run(res.Root, res.Labels)

	var matches []diag.Diagnostic
	for _, d := range diags {
		if d.Kind == diag.CellMissMatch {
			matches = append(matches, d)
		}
	}
	require.Len(t, matches, 1)
}

func Test_Engine_statusEnumViolation(t *testing.T) {
	res := evalSrc(t, `/{node1{status="bogus";};};`)

	eng := NewEngine(nil, nil)
	diags := eng.Run(res.Root, res.Labels)

	var found bool
	for _, d := range diags {
		if d.Kind == diag.EnumViolation {
			found = true
		}
	}
	assert.True(t, found)
}

func Test_StatusEnum_matchesSpecOrder(t *testing.T) {
	assert.Equal(t, []string{"okay", "disabled", "reserved", "fail", "fail-sss"}, StatusEnum)
}
