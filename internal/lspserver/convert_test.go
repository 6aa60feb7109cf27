package lspserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tliron/glsp/protocol_3_16"

	"github.com/dkrn/dts-ls/internal/dts/query"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

func Test_normalizeURI_stripsFileScheme(t *testing.T) {
	assert.Equal(t, "/a/b.dts", normalizeURI("file:///a/b.dts"))
	assert.Equal(t, "/a/b.dts", normalizeURI("/a/b.dts"))
}

func Test_posConversion_roundTrips(t *testing.T) {
	p := protocol.Position{Line: 4, Character: 7}
	tp := toPos(p)
	assert.Equal(t, 5, tp.Line)
	assert.Equal(t, 8, tp.Col)

	back := fromPos(tp)
	assert.Equal(t, p, back)
}

func Test_fullDocumentRange_spansAllLines(t *testing.T) {
	rng := fullDocumentRange("abc\ndefg\n")
	assert.Equal(t, uint32(0), rng.Start.Line)
	assert.Equal(t, uint32(2), rng.End.Line)
	assert.Equal(t, uint32(0), rng.End.Character)
}

func Test_formatOptions_readsKnownKeys(t *testing.T) {
	opts := formatOptions(protocol.FormattingOptions{
		"tabSize":                float64(2),
		"insertSpaces":           true,
		"trimTrailingWhitespace": true,
	})
	assert.Equal(t, 2, opts.TabSize)
	assert.True(t, opts.InsertSpaces)
	assert.True(t, opts.TrimTrailingWhitespace)
}

func Test_fullText_extractsMapShapedChange(t *testing.T) {
	text, ok := fullText([]interface{}{map[string]interface{}{"text": "/{};"}})
	assert.True(t, ok)
	assert.Equal(t, "/{};", text)
}

func Test_fullText_emptyChanges(t *testing.T) {
	_, ok := fullText(nil)
	assert.False(t, ok)
}

func Test_encodeSemanticTokens_deltaEncodesLineAndColumn(t *testing.T) {
	rng := func(line, startCol, endCol int) token.Range {
		return token.Range{Start: token.Pos{Line: line, Col: startCol}, End: token.Pos{Line: line, Col: endCol}}
	}
	toks := []query.SemanticToken{
		{Range: rng(1, 2, 5), Type: query.TokenNamespace},  // same line, cols 2-5
		{Range: rng(1, 7, 10), Type: query.TokenProperty},  // same line, cols 7-10
		{Range: rng(3, 1, 4), Type: query.TokenLabel},      // new line
	}

	data := encodeSemanticTokens(toks)
	assert.Equal(t, []uint32{
		0, 1, 3, uint32(query.TokenNamespace), 0, // line 0, col 1, length 3
		0, 5, 3, uint32(query.TokenProperty), 0, // same line, delta col 5, length 3
		2, 0, 3, uint32(query.TokenLabel), 0, // 2 lines down, col 0, length 3
	}, data)
}
