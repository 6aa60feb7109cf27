package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SemanticTokens_classifiesNodesPropertiesAndLabels(t *testing.T) {
	result := evalSrc(t, "f.dts", `/{soc: soc{compatible="vnd,soc";};};`)

	toks := SemanticTokens(result.Root, "f.dts")
	require.NotEmpty(t, toks)

	var gotNamespace, gotProperty, gotLabel bool
	for _, tok := range toks {
		switch tok.Type {
		case TokenNamespace:
			gotNamespace = true
		case TokenProperty:
			gotProperty = true
		case TokenLabel:
			gotLabel = true
		}
	}
	assert.True(t, gotNamespace, "expected a namespace token for the soc node")
	assert.True(t, gotProperty, "expected a property token for compatible")
	assert.True(t, gotLabel, "expected a label token for soc:")
}

func Test_SemanticTokens_ordersBySourcePosition(t *testing.T) {
	result := evalSrc(t, "f.dts", `/{a{x="";};b{y="";};};`)

	toks := SemanticTokens(result.Root, "f.dts")
	require.Len(t, toks, 4) // node a, prop x, node b, prop y

	for i := 1; i < len(toks); i++ {
		assert.True(t, toks[i-1].Range.Start.Before(toks[i].Range.Start) || toks[i-1].Range.Start == toks[i].Range.Start)
	}
}

func Test_SemanticTokens_ignoresOtherFiles(t *testing.T) {
	result := evalSrc(t, "f.dts", `/{compatible="vnd,board";};`)
	toks := SemanticTokens(result.Root, "other.dts")
	assert.Empty(t, toks)
}
