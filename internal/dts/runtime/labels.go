package runtime

import "github.com/dkrn/dts-ls/internal/dts/token"

// labelBinding is one entry in the context-wide label index: the node it
// names and the statement index at which that binding starts applying.
type labelBinding struct {
	node      *Node
	liveFrom  int
	nameRange token.Range
}

// labelIndex tracks every label definition seen during merge, keyed by
// name. The devicetree convention (and spec.md §3) is that a label names
// exactly one node for the life of a context; a second definition of the
// same name is reported, not silently layered, since unlike properties a
// label rename mid-file would make every earlier reference ambiguous.
type labelIndex struct {
	bindings map[string]labelBinding
}

func newLabelIndex() *labelIndex {
	return &labelIndex{bindings: make(map[string]labelBinding)}
}

// define records name as bound to node at statement index idx. ok is false
// if the name was already bound to a *different* node, in which case the
// first binding's range is returned for a LabelAlreadyInUse diagnostic.
func (li *labelIndex) define(name string, node *Node, idx int, rng token.Range) (first token.Range, ok bool) {
	existing, has := li.bindings[name]
	if has && existing.node != node {
		return existing.nameRange, false
	}
	li.bindings[name] = labelBinding{node: node, liveFrom: idx, nameRange: rng}
	return token.Range{}, true
}

// resolve returns the node bound to name, if any, and whether it is still
// live (not deleted) at statement index idx.
func (li *labelIndex) resolve(name string, idx int) (*Node, bool) {
	b, ok := li.bindings[name]
	if !ok {
		return nil, false
	}
	if b.node.isDeletedAt(idx) {
		return nil, false
	}
	return b.node, true
}

func (li *labelIndex) forget(name string) {
	delete(li.bindings, name)
}
