package binding

import (
	"fmt"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/ast"
)

// checkNexusMaps implements spec.md §11's generalized specifier-remapping
// checker: any property whose name ends in "-map" (interrupt-map, gpio-map,
// clock-map, ...) is a nexus table of repeating
// (child-unit-address, child-specifier, phandle, parent-unit-address,
// parent-specifier) groups. The companion "<base>-map-mask" property, if
// present, masks the child side before two entries are compared for
// duplication — the same detection interrupt-map/interrupt-map-mask uses,
// generalized to any *-map family rather than special-cased to interrupts.
func checkNexusMaps(c *CheckContext) []Diagnostic {
	var out []Diagnostic
	for _, name := range c.Node.PropertyOrder() {
		if !strings.HasSuffix(name, "-map") || strings.HasSuffix(name, "-map-mask") || strings.HasSuffix(name, "-map-pass-thru") {
			continue
		}
		base := strings.TrimSuffix(name, "-map")
		out = append(out, checkOneNexusMap(c, name, base)...)
	}
	return out
}

func checkOneNexusMap(c *CheckContext, propName, base string) []Diagnostic {
	p := c.Node.Properties[propName]
	if p.Values == nil || len(p.Values.Items) != 1 || p.Values.Items[0].ValueKind() != ast.ValueArray {
		return []Diagnostic{{Kind: KindTypeMismatch, Severity: SevError, Range: p.DeclSite,
			Message: propName + " must be a cell array"}}
	}
	cells := p.Values.Items[0].AsArray().Cells

	addrCells, aok := specifierCells(c.Node, "address")
	if !aok {
		addrCells = 0
	}
	childSpecCells, cok := specifierCells(c.Node, base)
	if !cok {
		// Without a known child specifier width there is nothing safe to
		// chunk the table into; report once and stop rather than guess.
		return []Diagnostic{{Kind: KindNexusMapNoMatch, Severity: SevWarning, Range: p.DeclSite,
			Message: fmt.Sprintf("cannot validate %s: #%s-cells is not known for this node", propName, base)}}
	}
	keyWidth := addrCells + childSpecCells

	var mask []int64
	if mp, ok := c.Node.Properties[base+"-map-mask"]; ok {
		if mp.Values != nil && len(mp.Values.Items) == 1 && mp.Values.Items[0].ValueKind() == ast.ValueArray {
			for _, mc := range mp.Values.Items[0].AsArray().Cells {
				v, _ := cellInt(mc)
				mask = append(mask, v)
			}
		}
	}

	var out []Diagnostic
	seen := map[string]bool{}
	i := 0
	for i < len(cells) {
		if i+keyWidth > len(cells) {
			out = append(out, Diagnostic{Kind: KindMappingAddressOverflow, Severity: SevError, Range: p.DeclSite,
				Message: propName + " entry is truncated before its child specifier ends"})
			break
		}
		key := make([]int64, keyWidth)
		for k := 0; k < keyWidth; k++ {
			key[k], _ = cellInt(cells[i+k])
		}
		i += keyWidth

		if i >= len(cells) {
			out = append(out, Diagnostic{Kind: KindMappingAddressOverflow, Severity: SevError, Range: p.DeclSite,
				Message: propName + " entry is missing its phandle cell"})
			break
		}
		phandleCell := cells[i]
		i++
		target, targetOK := c.resolveRef(phandleCell)
		if !targetOK {
			out = append(out, Diagnostic{Kind: KindNexusMapNoMatch, Severity: SevError, Range: p.DeclSite,
				Message: propName + " entry references an unresolved phandle"})
		}

		parentAddrCells, _ := specifierCells(target, "address")
		parentSpecCells, pok := specifierCells(target, base)
		if targetOK && !pok {
			out = append(out, Diagnostic{Kind: KindCellMissMatch, Severity: SevError, Range: p.DeclSite,
				Message: fmt.Sprintf("%s entry's target has no #%s-cells", propName, base)})
		}
		skip := parentAddrCells + parentSpecCells
		if i+skip > len(cells) {
			skip = len(cells) - i
		}
		i += skip

		maskedKey := maskKey(key, mask)
		if seen[maskedKey] {
			out = append(out, Diagnostic{Kind: KindDuplicateMapEntry, Severity: SevError, Range: p.DeclSite,
				Message: propName + " has a duplicate entry after masking"})
		}
		seen[maskedKey] = true
	}
	return out
}

func maskKey(key []int64, mask []int64) string {
	var b strings.Builder
	for i, k := range key {
		v := k
		if i < len(mask) {
			v &= mask[i]
		}
		fmt.Fprintf(&b, "%x,", v)
	}
	return b.String()
}
