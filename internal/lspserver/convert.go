package lspserver

import (
	"strings"

	"github.com/tliron/glsp/protocol_3_16"

	"github.com/dkrn/dts-ls/internal/dts/token"
)

// toPos converts an LSP zero-indexed Position into token.Pos's 1-indexed
// line/column.
func toPos(p protocol.Position) token.Pos {
	return token.Pos{Line: int(p.Line) + 1, Col: int(p.Character) + 1}
}

func fromPos(p token.Pos) protocol.Position {
	line := p.Line - 1
	if line < 0 {
		line = 0
	}
	col := p.Col - 1
	if col < 0 {
		col = 0
	}
	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}

func fromRange(r token.Range) protocol.Range {
	return protocol.Range{Start: fromPos(r.Start), End: fromPos(r.End)}
}

// normalizeURI strips a "file://" scheme so it matches the plain paths
// internal/dts/context.Manager reads from disk.
func normalizeURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// posFromLineCol builds a token.Pos from a custom request's 1-indexed
// line/col params.
func posFromLineCol(p positionParams) token.Pos {
	return token.Pos{Line: p.Line, Col: p.Col}
}

// fullDocumentRange spans all of src, for a whole-document TextEdit.
func fullDocumentRange(src string) protocol.Range {
	lines := strings.Split(src, "\n")
	lastLine := len(lines) - 1
	lastCol := len(lines[lastLine])
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: uint32(lastLine), Character: uint32(lastCol)},
	}
}
