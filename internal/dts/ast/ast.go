// Package ast defines the concrete-syntax tree produced by the parser.
//
// The node shape — a closed set of variants behind a Kind()/As*() tagged
// interface rather than per-node type switches scattered through callers —
// is adapted from tunascript/syntax/ast.go's ASTNode, generalized from
// tunascript's {literal, func, flag, group, binaryop, unaryop, assignment}
// set to the devicetree grammar's node/property/value shapes named in
// spec.md §3.
package ast

import (
	"fmt"

	"github.com/dkrn/dts-ls/internal/dts/token"
)

// StmtKind discriminates the Stmt variant. The set is closed.
type StmtKind int

const (
	KindRootNode StmtKind = iota
	KindChildNode
	KindRefNode
	KindProperty
	KindDeleteNode
	KindDeleteProperty
	KindInclude
	KindCommentBlock
	KindCommentLine
)

func (k StmtKind) String() string {
	switch k {
	case KindRootNode:
		return "root-node"
	case KindChildNode:
		return "child-node"
	case KindRefNode:
		return "ref-node"
	case KindProperty:
		return "property"
	case KindDeleteNode:
		return "delete-node"
	case KindDeleteProperty:
		return "delete-property"
	case KindInclude:
		return "include"
	case KindCommentBlock:
		return "comment-block"
	case KindCommentLine:
		return "comment-line"
	default:
		return "unknown-stmt"
	}
}

// Document is the root of one file's parse: a sequence of top-level
// statements (root-node declarations, ref-nodes, deletes, includes), in
// source order.
type Document struct {
	URI   string
	Stmts []Stmt
}

// Stmt is any element that can appear at the top level or inside a node
// body. Implementations panic if an As*() accessor not matching Kind() is
// called — callers must switch on Kind() first, exactly as
// tunascript/syntax/ast.go's ASTNode does.
type Stmt interface {
	Kind() StmtKind
	Range() token.Range
	// StatementIndex is assigned by the parser: a monotonically increasing
	// index over the flattened statement sequence across one context's
	// files, used by the runtime evaluator for "live at this index" rules.
	StatementIndex() int
	setStatementIndex(i int)

	AsRootNode() *RootNode
	AsChildNode() *ChildNode
	AsRefNode() *RefNode
	AsProperty() *Property
	AsDeleteNode() *DeleteNode
	AsDeleteProperty() *DeleteProperty
	AsInclude() *Include
	AsCommentBlock() *CommentBlock
	AsCommentLine() *CommentLine
}

// base is embedded by every Stmt implementation to supply the common
// range/statement-index bookkeeping and panic-on-mismatch accessors.
type base struct {
	kind  StmtKind
	rng   token.Range
	index int
}

func (b *base) Kind() StmtKind             { return b.kind }
func (b *base) Range() token.Range         { return b.rng }
func (b *base) StatementIndex() int        { return b.index }
func (b *base) setStatementIndex(i int)    { b.index = i }

func mismatch(want StmtKind, have StmtKind) string {
	return fmt.Sprintf("ast: called As%s on a Stmt of kind %s", want, have)
}

func (b *base) AsRootNode() *RootNode {
	panic(mismatch(KindRootNode, b.kind))
}
func (b *base) AsChildNode() *ChildNode {
	panic(mismatch(KindChildNode, b.kind))
}
func (b *base) AsRefNode() *RefNode {
	panic(mismatch(KindRefNode, b.kind))
}
func (b *base) AsProperty() *Property {
	panic(mismatch(KindProperty, b.kind))
}
func (b *base) AsDeleteNode() *DeleteNode {
	panic(mismatch(KindDeleteNode, b.kind))
}
func (b *base) AsDeleteProperty() *DeleteProperty {
	panic(mismatch(KindDeleteProperty, b.kind))
}
func (b *base) AsInclude() *Include {
	panic(mismatch(KindInclude, b.kind))
}
func (b *base) AsCommentBlock() *CommentBlock {
	panic(mismatch(KindCommentBlock, b.kind))
}
func (b *base) AsCommentLine() *CommentLine {
	panic(mismatch(KindCommentLine, b.kind))
}

// SetStatementIndex is the exported entry point the parser/flattener uses;
// Stmt.setStatementIndex is unexported so only this package can assign it.
func SetStatementIndex(s Stmt, i int) { s.setStatementIndex(i) }
