package runtime

import (
	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// PropertySite is one assignment of a property, kept even after a later
// assignment replaces it so duplicate diagnostics can link both locations.
type PropertySite struct {
	Stmt           *ast.Property
	OriginURI      string
	StatementIndex int
}

// NexusMapEntry is one resolved phandle-array cell group — the target node
// a `<&ctrl spec...>` group points at, and which specifier space
// (`#<space>-cells`) governs its remaining cells. Nothing in this module
// fills Property.NexusMapsTo: the runtime evaluator and the binding engine
// both leave it empty.
type NexusMapEntry struct {
	CellIndex  int
	Target     *Node
	SpecSpace  string
}

// Property is one property object attached to a runtime node.
type Property struct {
	Name     string
	DeclSite token.Range

	// Values is the current (last-write-wins) value list; nil for a bare
	// boolean property.
	Values *ast.ValueList

	// History records every assignment site seen during merge, in order;
	// len(History) > 1 means a DuplicatePropertyName diagnostic was raised
	// linking History[0] (or the prior site) to the latest one.
	History []PropertySite

	NexusMapsTo []NexusMapEntry

	// Type is attached lazily by the binding engine.
	Type any

	DeletedAtIndex *int
}
