package binding

import (
	"fmt"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
)

// phandleArrayGroupCount returns the number of `<&target spec...>` groups
// in p's single array value, or -1 if p isn't shaped like a phandle-array
// at all (so callers can skip a length comparison rather than mis-flag it).
func phandleArrayGroupCount(c *CheckContext, p *runtime.Property) int {
	if !looksLikePhandleArray(p) {
		return -1
	}
	groups, ok := parsePhandleArray(c, p, "")
	if !ok {
		return -1
	}
	return len(groups)
}

// parsePhandleArray walks p's single array value left to right, splitting
// it into `<&target spec-cells...>` groups where the target's own
// `#<specifier>-cells` says how many trailing cells belong to that group.
// specifier, if empty, is derived from the property's binding definition
// (PropertyDef.SpecifierCells) or, failing that, from the property name's
// plural convention ("gpios" -> "gpio").
func parsePhandleArray(c *CheckContext, p *runtime.Property, specifier string) ([]phandleArrayRef, bool) {
	if p.Values == nil || len(p.Values.Items) != 1 || p.Values.Items[0].ValueKind() != ast.ValueArray {
		return nil, false
	}
	if specifier == "" {
		specifier = defaultSpecifierName(p.Name)
		if pd, ok := c.Type.findProperty(p.Name); ok && pd.SpecifierCells != "" {
			specifier = pd.SpecifierCells
		}
	}
	cells := p.Values.Items[0].AsArray().Cells
	var out []phandleArrayRef
	for i := 0; i < len(cells); {
		cell := cells[i]
		if cell.ValueKind() != ast.ValueLabelRef && cell.ValueKind() != ast.ValueNodePathRef {
			return out, true // not phandle-array shaped past this point; stop rather than misreport
		}
		target, targetOK := c.resolveRef(cell)
		n, nok := specifierCells(target, specifier)
		if !nok {
			n = 0
		}
		end := i + 1 + n
		truncated := end > len(cells)
		if truncated {
			end = len(cells)
		}
		out = append(out, phandleArrayRef{Target: target, TargetOK: targetOK, Start: i, SpecEnd: end, SpecCount: n, SpecCountKnown: nok, Truncated: truncated && nok})
		if end <= i {
			end = i + 1 // guarantee forward progress when the target's cell count is unknown
		}
		i = end
	}
	return out, true
}

type phandleArrayRef struct {
	Target         *runtime.Node
	TargetOK       bool
	Start          int
	SpecEnd        int
	SpecCount      int
	SpecCountKnown bool
	// Truncated is true when the target's #<specifier>-cells called for
	// more cells than remained in the array (a cell-count mismatch, not an
	// unknown specifier width).
	Truncated bool
}

// defaultSpecifierName derives the `#<name>-cells` specifier name from a
// plural property name per common devicetree convention ("gpios" ->
// "gpio", "clocks" -> "clock", "dmas" -> "dma").
func defaultSpecifierName(propName string) string {
	switch {
	case len(propName) > 1 && propName[len(propName)-1] == 's':
		return propName[:len(propName)-1]
	default:
		return propName
	}
}

// checkPhandleArrays validates every phandle-array-shaped property on the
// node: a property the resolved NodeType explicitly marks with a
// SpecifierCells name, or — absent a loaded binding — any property whose
// single array value contains at least one label/path-ref cell, treated as
// phandle-array by the plural-name convention ("gpios" -> "#gpio-cells").
// Either way, each `<&target spec...>` group's cell count must match the
// target's own `#<specifier>-cells`.
func checkPhandleArrays(c *CheckContext) []Diagnostic {
	var out []Diagnostic
	for _, name := range c.Node.PropertyOrder() {
		p := c.Node.Properties[name]
		specifier := ""
		if pd, ok := c.Type.findProperty(name); ok {
			if pd.SpecifierCells == "" {
				continue
			}
			specifier = pd.SpecifierCells
		} else if !looksLikePhandleArray(p) {
			continue
		}

		refs, ok := parsePhandleArray(c, p, specifier)
		if !ok {
			continue
		}
		for _, ref := range refs {
			if !ref.TargetOK {
				out = append(out, Diagnostic{Kind: KindNexusMapNoMatch, Severity: SevError, Range: p.DeclSite,
					Message: fmt.Sprintf("%s entry references an unresolved phandle", name)})
				continue
			}
			if ref.Truncated {
				out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
					Message: fmt.Sprintf("%s entry has %d cell(s) but its target expects %d", name, ref.SpecEnd-ref.Start-1, ref.SpecCount)})
				continue
			}
			if ref.SpecCountKnown {
				continue
			}
			out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
				Message: fmt.Sprintf("%s entry's target has no #%s-cells", name, defaultSpecifierName(name))})
		}
	}
	return out
}

// looksLikePhandleArray reports whether p's value is a single array
// containing at least one label or node-path reference cell.
func looksLikePhandleArray(p *runtime.Property) bool {
	if p.Values == nil || len(p.Values.Items) != 1 || p.Values.Items[0].ValueKind() != ast.ValueArray {
		return false
	}
	for _, cell := range p.Values.Items[0].AsArray().Cells {
		if cell.ValueKind() == ast.ValueLabelRef || cell.ValueKind() == ast.ValueNodePathRef {
			return true
		}
	}
	return false
}
