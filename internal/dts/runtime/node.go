// Package runtime implements the runtime-tree evaluator from spec.md §4.5:
// flattening the AST fragments of every file in a context into one ordered
// statement sequence, merging them into a single runtime tree, building the
// label index, assigning phandles, and producing deterministic per-node
// definition ordering for downstream formatting/hover/symbol queries.
//
// The node/property shape generalizes server/dao's Repository-style
// aggregate-with-children modeling (GameData -> Room -> exits, in the
// teacher) to a devicetree node's path/labels/properties/children shape;
// unlike the teacher's DB-backed repositories this tree lives entirely in
// memory for one context's evaluation pass.
package runtime

import (
	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Definition is one AST fragment that contributed to a runtime node,
// alongside the file it came from and its position in the flattened
// statement sequence.
type Definition struct {
	Stmt           ast.Stmt
	OriginURI      string
	StatementIndex int
}

// Label is one label binding recorded against a node, in first-definition
// order.
type Label struct {
	Name      string
	Range     token.Range
	DefinedAt int // statement index at which the binding becomes live
}

// Node is one runtime devicetree node.
type Node struct {
	Path    []string
	Address []uint64
	Labels  []Label

	Definitions  []Definition
	ReferencedBy []Definition

	Properties map[string]*Property
	propOrder  []string // insertion order, for deterministic iteration

	Children     []*Node
	childByName  map[string]*Node
	Parent       *Node

	Phandle       uint64
	HasPhandle    bool
	DeletedAtIndex *int

	// Type is attached lazily by the binding engine; left untyped here so
	// this package never needs to import it (binding depends on runtime,
	// not the other way around).
	Type any
}

func newNode(parent *Node, name string, address []uint64) *Node {
	var path []string
	if parent != nil {
		path = append(append([]string{}, parent.Path...), name)
	} else {
		path = []string{}
	}
	return &Node{
		Path:        path,
		Address:     address,
		Properties:  make(map[string]*Property),
		childByName: make(map[string]*Node),
		Parent:      parent,
	}
}

// PropertyOrder returns property names in first-declaration order.
func (n *Node) PropertyOrder() []string {
	return append([]string{}, n.propOrder...)
}

func (n *Node) recordProperty(p *Property) {
	if _, exists := n.Properties[p.Name]; !exists {
		n.propOrder = append(n.propOrder, p.Name)
	}
	n.Properties[p.Name] = p
}

func (n *Node) isDeletedAt(idx int) bool {
	return n.DeletedAtIndex != nil && idx >= *n.DeletedAtIndex
}

// PathString renders the node's path the way devicetree tooling displays it
// ("/soc/uart@1000"), with the root node rendering as "/".
func (n *Node) PathString() string {
	if len(n.Path) == 0 {
		return "/"
	}
	s := ""
	for _, c := range n.Path {
		s += "/" + c
	}
	return s
}
