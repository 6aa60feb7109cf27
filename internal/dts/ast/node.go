package ast

import "github.com/dkrn/dts-ls/internal/dts/token"

// RefKind discriminates how a RefNode targets an existing node.
type RefKind int

const (
	RefByLabel RefKind = iota
	RefByPath
)

// RootNode is the top-level `/ { ... };` declaration. A context may contain
// more than one RootNode statement across its files (main file plus
// overlays); the evaluator merges them into a single runtime root.
type RootNode struct {
	base
	Labels []Label
	Body   []Stmt
}

func (n *RootNode) AsRootNode() *RootNode { return n }

// ChildNode is a named node nested inside some body:
// `labels? nodeName '{' body '}' ';'`.
type ChildNode struct {
	base
	Labels     []Label
	Name       string // full lexeme, e.g. "node2@200,0"
	NameRange  token.Range
	BaseName   string // name before '@', e.g. "node2"
	Address    []uint64 // parsed @-address cell(s); empty if node has no address
	HasAddress bool
	Body       []Stmt
}

func (n *ChildNode) AsChildNode() *ChildNode { return n }

// RefNode re-opens an existing node by label or path:
// `labels? ('&' ident | '&{' path '}') '{' body '}' ';'`.
type RefNode struct {
	base
	Labels   []Label
	RefKind  RefKind
	RefLabel string // set when RefKind == RefByLabel
	RefPath  string // set when RefKind == RefByPath, e.g. "/soc/uart@0"
	Body     []Stmt
}

func (n *RefNode) AsRefNode() *RefNode { return n }

// Label is one `name:` definition attached to a node declaration. A node may
// carry more than one label.
type Label struct {
	Name  string
	Range token.Range
}

func newBase(kind StmtKind, rng token.Range) base {
	return base{kind: kind, rng: rng}
}

// NewRootNode constructs a RootNode statement.
func NewRootNode(rng token.Range, labels []Label, body []Stmt) *RootNode {
	return &RootNode{base: newBase(KindRootNode, rng), Labels: labels, Body: body}
}

// NewChildNode constructs a ChildNode statement.
func NewChildNode(rng, nameRange token.Range, labels []Label, name, baseName string, addr []uint64, hasAddr bool, body []Stmt) *ChildNode {
	return &ChildNode{
		base: newBase(KindChildNode, rng), Labels: labels, Name: name, NameRange: nameRange,
		BaseName: baseName, Address: addr, HasAddress: hasAddr, Body: body,
	}
}

// NewRefNode constructs a RefNode statement.
func NewRefNode(rng token.Range, labels []Label, kind RefKind, label, path string, body []Stmt) *RefNode {
	return &RefNode{
		base: newBase(KindRefNode, rng), Labels: labels, RefKind: kind,
		RefLabel: label, RefPath: path, Body: body,
	}
}
