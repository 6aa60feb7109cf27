package query

import (
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Definition returns the earliest definition site of the node or property
// at pos, per spec.md §4.7. A node's earliest site is its first Definitions
// entry (statement order, not file order, since a later-loaded file can
// define a node a later context file re-opens).
func Definition(root *runtime.Node, uri string, pos token.Pos) (token.Range, bool) {
	if _, prop, ok := FindProperty(root, uri, pos); ok {
		if len(prop.History) > 0 {
			return prop.History[0].Stmt.Range(), true
		}
		return prop.DeclSite, true
	}
	if node, ok := FindNode(root, uri, pos); ok {
		return earliestDefinition(node)
	}
	return token.Range{}, false
}

func earliestDefinition(node *runtime.Node) (token.Range, bool) {
	var best *token.Range
	var bestIdx int
	consider := func(rng token.Range, idx int) {
		if best == nil || idx < bestIdx {
			r := rng
			best, bestIdx = &r, idx
		}
	}
	for _, d := range node.Definitions {
		consider(d.Stmt.Range(), d.StatementIndex)
	}
	for _, d := range node.ReferencedBy {
		consider(d.Stmt.Range(), d.StatementIndex)
	}
	if best == nil {
		return token.Range{}, false
	}
	return *best, true
}
