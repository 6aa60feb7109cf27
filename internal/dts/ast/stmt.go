package ast

import "github.com/dkrn/dts-ls/internal/dts/token"

// Property is `labels? propName ( '=' values )? ';'`. A property with no
// `=` (e.g. a boolean flag like `dma-coherent;`) has a nil Values.
type Property struct {
	base
	Labels []Label
	Name   string
	NameRange token.Range
	Values *ValueList // nil for a bare boolean property
}

func (n *Property) AsProperty() *Property { return n }

// NewProperty constructs a Property statement.
func NewProperty(rng token.Range, labels []Label, name string, nameRange token.Range, values *ValueList) *Property {
	return &Property{base: newBase(KindProperty, rng), Labels: labels, Name: name, NameRange: nameRange, Values: values}
}

// DeleteNode is `/delete-node/ (ident | '&' ident);`.
type DeleteNode struct {
	base
	TargetKind RefKind
	Target     string // node name or label, depending on TargetKind
}

func (n *DeleteNode) AsDeleteNode() *DeleteNode { return n }

func NewDeleteNode(rng token.Range, kind RefKind, target string) *DeleteNode {
	return &DeleteNode{base: newBase(KindDeleteNode, rng), TargetKind: kind, Target: target}
}

// DeleteProperty is `/delete-property/ propName;`.
type DeleteProperty struct {
	base
	Target string
}

func (n *DeleteProperty) AsDeleteProperty() *DeleteProperty { return n }

func NewDeleteProperty(rng token.Range, target string) *DeleteProperty {
	return &DeleteProperty{base: newBase(KindDeleteProperty, rng), Target: target}
}

// Include is a `/include/ "path";` directive (`#include` never reaches the
// AST: internal/dts/cpp splices it into the token stream). The parser leaves
// Resolved empty; internal/dts/context replaces each resolvable Include with
// the target file's statements before evaluation, and the evaluator skips
// any Include still left in the list.
type Include struct {
	base
	Path     string
	Resolved string // absolute path the include resolved to, empty if unresolved
}

func (n *Include) AsInclude() *Include { return n }

func NewInclude(rng token.Range, path, resolved string) *Include {
	return &Include{base: newBase(KindInclude, rng), Path: path, Resolved: resolved}
}

// CommentBlock is a retained `/* ... */` comment, kept for hover-as-doc and
// the formatter.
type CommentBlock struct {
	base
	Text string
}

func (n *CommentBlock) AsCommentBlock() *CommentBlock { return n }

func NewCommentBlock(rng token.Range, text string) *CommentBlock {
	return &CommentBlock{base: newBase(KindCommentBlock, rng), Text: text}
}

// CommentLine is a retained `// ...` comment.
type CommentLine struct {
	base
	Text string
}

func (n *CommentLine) AsCommentLine() *CommentLine { return n }

func NewCommentLine(rng token.Range, text string) *CommentLine {
	return &CommentLine{base: newBase(KindCommentLine, rng), Text: text}
}
