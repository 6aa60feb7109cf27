package binding

import (
	"fmt"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/runtime"
)

var statusEnum = []string{"okay", "disabled", "reserved", "fail", "fail-sss"}

// StatusEnum is exported for the query layer's completion handler (S6:
// completions at `status = |` are exactly this ordered list).
var StatusEnum = append([]string(nil), statusEnum...)

// runStandardChecks implements the fixed battery of checks spec.md §4.6
// names explicitly, in the order they're listed there. Each sub-check is
// self-contained and skips silently when the property it covers is absent
// or already malformed in a way an earlier check reported.
func runStandardChecks(c *CheckContext) []Diagnostic {
	var out []Diagnostic
	out = append(out, checkStatus(c)...)
	out = append(out, checkCompatible(c)...)
	out = append(out, checkModel(c)...)
	out = append(out, checkPhandle(c)...)
	out = append(out, checkAddressSizeCells(c)...)
	out = append(out, checkReg(c)...)
	out = append(out, checkRanges(c, "ranges")...)
	out = append(out, checkRanges(c, "dma-ranges")...)
	out = append(out, checkDeviceType(c)...)
	out = append(out, checkInterrupts(c)...)
	out = append(out, checkNamesCompanions(c)...)
	out = append(out, checkPhandleArrays(c)...)
	out = append(out, checkNexusMaps(c)...)
	out = append(out, checkBindingProperties(c)...)
	return out
}

// checkBindingProperties walks the resolved NodeType's property definitions
// (from a loaded Zephyr or devicetree.org binding) and enforces what the
// name-specific checks above don't: presence/absence per Requirement, and
// Enum/Const on whatever value is present.
func checkBindingProperties(c *CheckContext) []Diagnostic {
	if c.Type == nil {
		return nil
	}
	var out []Diagnostic
	for _, pd := range c.Type.Properties {
		if pd.Matcher {
			continue
		}
		p, has := c.Node.Properties[pd.Name]
		switch pd.Requirement {
		case Required:
			if !has {
				out = append(out, Diagnostic{Kind: KindRequiredOmitted, Severity: SevError, Range: nodeDeclSite(c.Node),
					Message: fmt.Sprintf("%q is required by %s but missing", pd.Name, c.Type.Compatible)})
				continue
			}
		case Omitted:
			if has {
				out = append(out, Diagnostic{Kind: KindUnnecessaryProperty, Severity: SevHint, Range: p.DeclSite,
					Message: fmt.Sprintf("%q must not be set on %s", pd.Name, c.Type.Compatible)})
			}
			continue
		}
		if !has {
			continue
		}

		if len(pd.Enum) > 0 {
			if vals, ok := stringListValues(p); ok && len(vals) == 1 && !stringIn(vals[0], pd.Enum) {
				out = append(out, Diagnostic{Kind: KindEnumViolation, Severity: SevError, Range: p.DeclSite,
					Args: []any{vals[0]}, Message: fmt.Sprintf("%q value %q is not one of %v", pd.Name, vals[0], pd.Enum)})
			}
		}
		if pd.Const != nil && !constMatches(p, pd.Const) {
			out = append(out, Diagnostic{Kind: KindConstViolation, Severity: SevError, Range: p.DeclSite,
				Message: fmt.Sprintf("%q must be %v", pd.Name, pd.Const)})
		}
	}
	return out
}

func stringIn(s string, list []string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func constMatches(p *runtime.Property, want any) bool {
	switch w := want.(type) {
	case string:
		vals, ok := stringListValues(p)
		return ok && len(vals) == 1 && vals[0] == w
	case int64:
		cells, ok := arrayCells(p)
		return ok && len(cells) == 1 && cells[0] == w
	case int:
		cells, ok := arrayCells(p)
		return ok && len(cells) == 1 && cells[0] == int64(w)
	default:
		return true
	}
}

func checkStatus(c *CheckContext) []Diagnostic {
	p, ok := c.Node.Properties["status"]
	if !ok {
		return nil
	}
	vals, ok := stringListValues(p)
	if !ok || len(vals) != 1 {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: "status must be a single string"}}
	}
	for _, s := range statusEnum {
		if vals[0] == s {
			return nil
		}
	}
	return []Diagnostic{{Kind: KindEnumViolation, Severity: SevError, Range: p.DeclSite,
		Args: []any{vals[0]}, Message: fmt.Sprintf("status %q is not one of %v", vals[0], statusEnum)}}
}

func checkCompatible(c *CheckContext) []Diagnostic {
	p, ok := c.Node.Properties["compatible"]
	if !ok {
		return nil
	}
	if _, ok := stringListValues(p); !ok {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: "compatible must be a string-list"}}
	}
	return nil
}

func checkModel(c *CheckContext) []Diagnostic {
	p, ok := c.Node.Properties["model"]
	if !ok {
		return nil
	}
	vals, ok := stringListValues(p)
	if !ok || len(vals) != 1 {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: "model must be a single string"}}
	}
	return nil
}

func checkPhandle(c *CheckContext) []Diagnostic {
	p, ok := c.Node.Properties["phandle"]
	if !ok {
		return nil
	}
	cells, ok := arrayCells(p)
	if !ok || len(cells) != 1 {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: "phandle must be a single u32 cell"}}
	}
	return nil
}

func checkAddressSizeCells(c *CheckContext) []Diagnostic {
	var out []Diagnostic
	for _, name := range []string{"#address-cells", "#size-cells"} {
		p, ok := c.Node.Properties[name]
		if !ok {
			continue
		}
		cells, ok := arrayCells(p)
		if !ok || len(cells) != 1 {
			out = append(out, Diagnostic{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
				Message: name + " must be a single u32 cell"})
		}
	}
	return out
}

func checkReg(c *CheckContext) []Diagnostic {
	p, ok := c.Node.Properties["reg"]
	if !ok {
		return nil
	}
	parent := c.Node.Parent
	if parent == nil {
		return nil
	}
	addrCells, aok := specifierCells(parent, "address")
	sizeCells, sok := specifierCells(parent, "size")
	if !aok {
		addrCells = 2
	}
	if !sok {
		sizeCells = 1
	}
	cells, ok := arrayCells(p)
	if !ok {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: "reg must be a cell array"}}
	}
	stride := addrCells + sizeCells
	if stride == 0 || len(cells)%stride != 0 {
		return []Diagnostic{{Kind: KindAddressRegMismatch, Severity: SevError, Range: p.DeclSite,
			Message: fmt.Sprintf("reg length %d is not a multiple of #address-cells+#size-cells (%d)", len(cells), stride)}}
	}
	if len(c.Node.Address) > 0 && addrCells > 0 && len(cells) >= addrCells {
		addr := cells[:addrCells]
		if !addressMatches(addr, c.Node.Address) {
			return []Diagnostic{{Kind: KindAddressRegMismatch, Severity: SevWarning, Range: p.DeclSite,
				Message: "reg's first address cell(s) do not match the node's unit address"}}
		}
	}
	return nil
}

func addressMatches(cells []int64, nodeAddr []uint64) bool {
	if len(nodeAddr) == 0 {
		return true
	}
	// Only the low-order cells correspond to a single-component unit
	// address (e.g. a 2-cell #address-cells node whose name carries one
	// address component still encodes it in the low cell).
	if len(cells) == 0 {
		return false
	}
	return uint64(cells[len(cells)-1]) == nodeAddr[len(nodeAddr)-1]
}

// checkRanges implements triplet arithmetic + non-overlap for "ranges"/
// "dma-ranges": each triplet is (child-addr, parent-addr, length) cells
// sized by the node's own #address-cells (child side) and the parent's
// #address-cells (parent side) plus the node's #size-cells.
func checkRanges(c *CheckContext, propName string) []Diagnostic {
	p, ok := c.Node.Properties[propName]
	if !ok {
		return nil
	}
	if p.Values == nil {
		return nil // bare "ranges;"/"dma-ranges;" is the identity-mapping boolean form
	}
	childAddrCells, _ := specifierCells(c.Node, "address")
	if childAddrCells == 0 {
		childAddrCells = 2
	}
	sizeCells, _ := specifierCells(c.Node, "size")
	if sizeCells == 0 {
		sizeCells = 1
	}
	parentAddrCells := childAddrCells
	if c.Node.Parent != nil {
		if n, ok := specifierCells(c.Node.Parent, "address"); ok {
			parentAddrCells = n
		}
	}
	cells, ok := arrayCells(p)
	if !ok {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: propName + " must be a cell array"}}
	}
	stride := childAddrCells + parentAddrCells + sizeCells
	if stride == 0 || len(cells)%stride != 0 {
		return []Diagnostic{{Kind: KindAddressRegMismatch, Severity: SevError, Range: p.DeclSite,
			Message: fmt.Sprintf("%s length %d is not a multiple of its triplet width (%d)", propName, len(cells), stride)}}
	}
	type span struct{ childLow, childHigh uint64 }
	var spans []span
	for off := 0; off+stride <= len(cells); off += stride {
		childLow := lowCells(cells[off : off+childAddrCells])
		length := lowCells(cells[off+childAddrCells+parentAddrCells : off+stride])
		spans = append(spans, span{childLow: childLow, childHigh: childLow + length})
	}
	var out []Diagnostic
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].childLow < spans[j].childHigh && spans[j].childLow < spans[i].childHigh {
				out = append(out, Diagnostic{Kind: KindRangesOverlap, Severity: SevError, Range: p.DeclSite,
					Args: []any{"child"}, Message: propName + " entries overlap in child address space"})
			}
		}
	}
	return out
}

func lowCells(cells []int64) uint64 {
	var v uint64
	for _, c := range cells {
		v = v<<32 | uint64(uint32(c))
	}
	return v
}

func checkDeviceType(c *CheckContext) []Diagnostic {
	p, ok := c.Node.Properties["device_type"]
	if !ok {
		return nil
	}
	var out []Diagnostic
	if bn := baseName(c.Node); bn != "cpu" && bn != "memory" {
		out = append(out, Diagnostic{Kind: KindDeprecated, Severity: SevHint, Range: p.DeclSite,
			Message: "device_type is deprecated outside of /cpus/* and /memory"})
	}
	vals, ok := stringListValues(p)
	if !ok || len(vals) != 1 {
		return append(out, Diagnostic{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: "device_type must be a single string"})
	}
	return out
}

// checkInterrupts validates "interrupts"/"interrupts-extended" cell counts
// against the node's effective interrupt parent's "#interrupt-cells".
func checkInterrupts(c *CheckContext) []Diagnostic {
	var out []Diagnostic
	parent := c.interruptParent()

	if p, ok := c.Node.Properties["interrupts"]; ok {
		cells, ok := arrayCells(p)
		if !ok {
			out = append(out, Diagnostic{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
				Message: "interrupts must be a cell array"})
		} else if n, ok := specifierCells(parent, "interrupt"); ok && n > 0 {
			if len(cells)%n != 0 {
				out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
					Message: fmt.Sprintf("interrupts length %d is not a multiple of #interrupt-cells (%d)", len(cells), n)})
			}
		}
	}

	if p, ok := c.Node.Properties["interrupts-extended"]; ok {
		refs, ok := parsePhandleArray(c, p, "interrupt")
		if !ok {
			out = append(out, Diagnostic{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
				Message: "interrupts-extended must be a cell array"})
		} else {
			for _, ref := range refs {
				if !ref.TargetOK {
					out = append(out, Diagnostic{Kind: KindNexusMapNoMatch, Severity: SevError, Range: p.DeclSite,
						Message: "interrupts-extended entry references an unresolved phandle"})
				} else if ref.Truncated {
					out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
						Message: "interrupts-extended entry is missing interrupt specifier cells"})
				} else if !ref.SpecCountKnown {
					out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
						Message: "interrupts-extended entry's target has no #interrupt-cells"})
				}
			}
		}
	}
	return out
}

// interruptParent resolves the node's effective interrupt controller: its
// own "interrupt-parent" property if present, else the nearest ancestor's.
func (c *CheckContext) interruptParent() *runtime.Node {
	for n := c.Node; n != nil; n = n.Parent {
		p, ok := n.Properties["interrupt-parent"]
		if !ok {
			continue
		}
		if p.Values == nil || len(p.Values.Items) != 1 {
			return nil
		}
		target, ok := c.resolveRef(p.Values.Items[0])
		if !ok {
			return nil
		}
		return target
	}
	return nil
}

// checkNamesCompanions validates every "<x>-names" property against its
// sibling "<x>" (or "<x>s") array-valued property, requiring equal entry
// counts — generic across "clock-names", "reg-names", "interrupt-names",
// "dma-names", etc.
func checkNamesCompanions(c *CheckContext) []Diagnostic {
	var out []Diagnostic
	for _, name := range c.Node.PropertyOrder() {
		if !strings.HasSuffix(name, "-names") {
			continue
		}
		p := c.Node.Properties[name]
		base := strings.TrimSuffix(name, "-names")
		companion, ok := c.Node.Properties[base]
		if !ok {
			companion, ok = c.Node.Properties[base+"s"]
		}
		if !ok {
			continue
		}
		names, ok := stringListValues(p)
		if !ok {
			out = append(out, Diagnostic{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
				Message: name + " must be a string-list"})
			continue
		}
		count := phandleArrayGroupCount(c, companion)
		if count >= 0 && count != len(names) {
			out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
				Message: fmt.Sprintf("%s has %d entries but %s has %d", name, len(names), base, count)})
		}
	}
	return out
}
