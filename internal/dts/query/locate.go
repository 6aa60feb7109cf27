package query

import (
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// FindNode returns the innermost node whose own body (not a descendant's)
// contains pos in uri — the node whose `{`/`}` or ref-node span covers pos
// most tightly, found by walking every node's Definitions/ReferencedBy site
// ranges.
func FindNode(root *runtime.Node, uri string, pos token.Pos) (*runtime.Node, bool) {
	var best *runtime.Node
	var walk func(n *runtime.Node)
	walk = func(n *runtime.Node) {
		if nodeCoversPos(n, uri, pos) {
			best = n
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return best, best != nil
}

func nodeCoversPos(n *runtime.Node, uri string, pos token.Pos) bool {
	for _, d := range n.Definitions {
		if rangeCovers(d.Stmt.Range(), uri, pos) {
			return true
		}
	}
	for _, d := range n.ReferencedBy {
		if rangeCovers(d.Stmt.Range(), uri, pos) {
			return true
		}
	}
	return false
}

// FindProperty returns the node owning a property whose declaration range
// covers pos in uri, and the property itself.
func FindProperty(root *runtime.Node, uri string, pos token.Pos) (*runtime.Node, *runtime.Property, bool) {
	var foundNode *runtime.Node
	var foundProp *runtime.Property
	var walk func(n *runtime.Node)
	walk = func(n *runtime.Node) {
		for _, p := range n.Properties {
			if rangeCovers(p.DeclSite, uri, pos) {
				foundNode, foundProp = n, p
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
	return foundNode, foundProp, foundProp != nil
}

func rangeCovers(rng token.Range, uri string, pos token.Pos) bool {
	return rng.URI == uri && rng.Contains(pos)
}
