package query

import (
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// References returns every contributing site for the node or property at
// pos: every node Definitions/ReferencedBy range, or every property
// assignment in History, per spec.md §4.7's "reference search returns all
// contributing sites".
func References(root *runtime.Node, uri string, pos token.Pos) []token.Range {
	if _, prop, ok := FindProperty(root, uri, pos); ok {
		out := make([]token.Range, 0, len(prop.History))
		for _, site := range prop.History {
			out = append(out, site.Stmt.Range())
		}
		return out
	}
	if node, ok := FindNode(root, uri, pos); ok {
		out := make([]token.Range, 0, len(node.Definitions)+len(node.ReferencedBy))
		for _, d := range node.Definitions {
			out = append(out, d.Stmt.Range())
		}
		for _, d := range node.ReferencedBy {
			out = append(out, d.Stmt.Range())
		}
		return out
	}
	return nil
}
