package runtime

import (
	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/diag"
)

// assignPhandles implements spec.md §4.5's phandle-assignment step: any node
// targeted by a `&label`/`&{path}` value, or carrying an explicit
// `phandle = <N>;` property, gets a phandle number. Explicit values are
// honored as-is (conflicts reported); every other referenced node is
// numbered sequentially afterward, in definition order, skipping numbers
// already claimed explicitly.
func (e *evaluator) assignPhandles() {
	referenced := map[*Node]bool{}
	e.collectReferencedNodes(e.root, referenced)

	used := map[uint64]*Node{}
	var explicit []*Node
	e.walk(e.root, func(n *Node) {
		p, ok := n.Properties["phandle"]
		if !ok || p.Values == nil || len(p.Values.Items) != 1 {
			return
		}
		arr, ok := asSingleCellArray(p.Values.Items[0])
		if !ok {
			return
		}
		n.Phandle = arr
		n.HasPhandle = true
		explicit = append(explicit, n)
	})

	for _, n := range explicit {
		if prior, ok := used[n.Phandle]; ok && prior != n {
			e.diags = append(e.diags, diag.New(diag.NonUniquePhandle, diag.SeverityError, n.Definitions[0].Stmt.Range(),
				"phandle value %d already assigned to %s", n.Phandle, prior.PathString()))
			continue
		}
		used[n.Phandle] = n
	}

	next := uint64(1)
	e.walk(e.root, func(n *Node) {
		if n.HasPhandle || !referenced[n] {
			return
		}
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		n.Phandle = next
		n.HasPhandle = true
		used[next] = n
		next++
	})
}

func asSingleCellArray(v ast.Value) (uint64, bool) {
	if v.ValueKind() != ast.ValueArray {
		return 0, false
	}
	cells := v.AsArray().Cells
	if len(cells) != 1 || cells[0].ValueKind() != ast.ValueExpression {
		return 0, false
	}
	ev := cells[0].AsExpression()
	if ev.Eval == nil {
		return 0, false
	}
	return uint64(*ev.Eval), true
}

func (e *evaluator) walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		e.walk(c, fn)
	}
}

func (e *evaluator) collectReferencedNodes(n *Node, out map[*Node]bool) {
	for _, name := range n.propOrder {
		p := n.Properties[name]
		if p.Values == nil {
			continue
		}
		for _, v := range p.Values.Items {
			e.collectReferencedValue(v, out)
		}
	}
	for _, c := range n.Children {
		e.collectReferencedNodes(c, out)
	}
}

func (e *evaluator) collectReferencedValue(v ast.Value, out map[*Node]bool) {
	switch v.ValueKind() {
	case ast.ValueArray:
		for _, c := range v.AsArray().Cells {
			e.collectReferencedValue(c, out)
		}
	case ast.ValueLabelRef:
		if n, ok := e.labels.resolve(v.AsLabelRef().Label, e.idx); ok {
			out[n] = true
		}
	case ast.ValueNodePathRef:
		if n, ok := e.resolvePath(v.AsNodePathRef().Path); ok {
			out[n] = true
		}
	}
}
