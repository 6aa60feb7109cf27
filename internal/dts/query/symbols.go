package query

import (
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Symbol is one entry in a runtime tree's symbol outline.
type Symbol struct {
	Name     string
	Path     string
	Range    token.Range
	Children []Symbol
}

// Symbols enumerates root's tree into a symbol outline (spec.md §4.7).
func Symbols(root *runtime.Node) []Symbol {
	return childSymbols(root)
}

func childSymbols(n *runtime.Node) []Symbol {
	out := make([]Symbol, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, nodeSymbol(c))
	}
	return out
}

func nodeSymbol(n *runtime.Node) Symbol {
	rng, _ := earliestDefinition(n)
	return Symbol{
		Name:     n.Path[len(n.Path)-1],
		Path:     nodePath(n),
		Range:    rng,
		Children: childSymbols(n),
	}
}
