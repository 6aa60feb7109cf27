package binding

import (
	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
)

// CheckContext is the argument passed to a PropertyDef's AdditionalCheck
// hook and used internally by the standard checks: the node under
// examination plus enough of the surrounding tree (root, for path/label
// resolution) to validate cross-node constraints like phandle-array cell
// counts and interrupt-parent matching.
type CheckContext struct {
	Node   *runtime.Node
	Root   *runtime.Node
	Labels map[string]*runtime.Node
	Type   *NodeType
}

// resolveRef follows a LabelRefValue or NodePathRefValue to the runtime
// node it targets.
func (c *CheckContext) resolveRef(v ast.Value) (*runtime.Node, bool) {
	switch v.ValueKind() {
	case ast.ValueLabelRef:
		n, ok := c.Labels[v.AsLabelRef().Label]
		return n, ok
	case ast.ValueNodePathRef:
		return runtime.Result{Root: c.Root}.ResolvePath(v.AsNodePathRef().Path)
	default:
		return nil, false
	}
}

// cellInt reads the resolved constant value of an expression cell.
func cellInt(v ast.Value) (int64, bool) {
	if v.ValueKind() != ast.ValueExpression {
		return 0, false
	}
	ev := v.AsExpression()
	if ev.Eval == nil {
		return 0, false
	}
	return *ev.Eval, true
}

// specifierCells reads the `#<name>-cells` property off n, which must
// already have been evaluated to a single constant cell.
func specifierCells(n *runtime.Node, name string) (int, bool) {
	if n == nil {
		return 0, false
	}
	p, ok := n.Properties["#"+name+"-cells"]
	if !ok || p.Values == nil || len(p.Values.Items) != 1 {
		return 0, false
	}
	v, ok := cellInt(p.Values.Items[0])
	if !ok {
		return 0, false
	}
	return int(v), true
}

// stringListValues reads a property's value list as plain strings,
// ok=false if any item isn't a StringValue.
func stringListValues(p *runtime.Property) ([]string, bool) {
	if p.Values == nil {
		return nil, false
	}
	out := make([]string, 0, len(p.Values.Items))
	for _, v := range p.Values.Items {
		if v.ValueKind() != ast.ValueString {
			return nil, false
		}
		out = append(out, v.AsString().Decoded)
	}
	return out, true
}

// arrayCells flattens a property's value list into its constant cells,
// ok=false if the property isn't a single array of resolved expressions.
func arrayCells(p *runtime.Property) ([]int64, bool) {
	if p.Values == nil || len(p.Values.Items) != 1 || p.Values.Items[0].ValueKind() != ast.ValueArray {
		return nil, false
	}
	cells := p.Values.Items[0].AsArray().Cells
	out := make([]int64, 0, len(cells))
	for _, c := range cells {
		v, ok := cellInt(c)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}
