package binding

import (
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
)

// Loader is the subset of ZephyrLoader/SchemaLoader the engine needs; kept
// as an interface so Run can be exercised with a fake in tests without
// touching the filesystem.
type Loader interface {
	LoadByCompatible(compatible string, bus string) (*NodeType, bool)
}

// schemaLoaderAdapter drops SchemaLoader's bus parameter, since
// devicetree.org schemas aren't bus-restricted the way Zephyr bindings are.
type schemaLoaderAdapter struct{ *SchemaLoader }

func (a schemaLoaderAdapter) LoadByCompatible(compatible, _ string) (*NodeType, bool) {
	return a.SchemaLoader.LoadByCompatible(compatible)
}

// Engine resolves a NodeType for every node in a merged runtime tree and
// runs the standard checks (plus any schema/zephyr AdditionalCheck hooks)
// against each, in a single pass.
type Engine struct {
	Zephyr Loader
	Schema Loader
}

func NewEngine(zephyr *ZephyrLoader, schema *SchemaLoader) *Engine {
	e := &Engine{}
	if zephyr != nil {
		e.Zephyr = zephyr
	}
	if schema != nil {
		e.Schema = schemaLoaderAdapter{schema}
	}
	return e
}

// Run resolves and checks every node reachable from root, attaching each
// node's resolved NodeType to its Type field and returning the accumulated
// diagnostics as diag.Diagnostic, translated from this package's internal
// Diagnostic via toDiag.
func (e *Engine) Run(root *runtime.Node, labels map[string]*runtime.Node) []diag.Diagnostic {
	var out []diag.Diagnostic
	e.walk(root, labels, "", &out)
	return out
}

func (e *Engine) walk(n *runtime.Node, labels map[string]*runtime.Node, parentBus string, out *[]diag.Diagnostic) {
	nt := e.resolveType(n, parentBus)
	n.Type = nt

	c := &CheckContext{Node: n, Root: rootOf(n), Labels: labels, Type: nt}
	for _, d := range runStandardChecks(c) {
		*out = append(*out, toDiag(d))
	}
	if nt != nil {
		for _, pd := range nt.Properties {
			if pd.AdditionalCheck == nil {
				continue
			}
			for _, d := range pd.AdditionalCheck(c) {
				*out = append(*out, toDiag(d))
			}
		}
	}

	childBus := ""
	if nt != nil {
		childBus = nt.Bus
	}
	for _, child := range n.Children {
		e.walk(child, labels, childBus, out)
	}
}

// resolveType picks a node's NodeType: the loaded binding for its primary
// compatible string (compatible[0], filtered by parentBus when the node
// declares a bus restriction), falling back to a standard default keyed by
// the node's base name.
func (e *Engine) resolveType(n *runtime.Node, parentBus string) *NodeType {
	if p, ok := n.Properties["compatible"]; ok {
		if vals, ok := stringListValues(p); ok && len(vals) > 0 {
			compatible := vals[0]
			if e.Zephyr != nil {
				if nt, ok := e.Zephyr.LoadByCompatible(compatible, parentBus); ok {
					return nt
				}
			}
			if e.Schema != nil {
				if nt, ok := e.Schema.LoadByCompatible(compatible, parentBus); ok {
					return nt
				}
			}
		}
	}
	if nt, ok := standardDefault(baseName(n)); ok {
		return nt
	}
	return nil
}

// baseName returns a node's name with any "@<address>" suffix stripped, or
// "" for the root node.
func baseName(n *runtime.Node) string {
	if len(n.Path) == 0 {
		return ""
	}
	name := n.Path[len(n.Path)-1]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[:i]
	}
	return name
}

func rootOf(n *runtime.Node) *runtime.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func toDiag(d Diagnostic) diag.Diagnostic {
	out := diag.New(toDiagKind(d.Kind), toDiagSeverity(d.Severity), d.Range, "%s", d.Message)
	out.Args = d.Args
	return out
}

func toDiagKind(k DiagKind) diag.Kind {
	switch k {
	case KindTypeMismatch:
		return diag.TypeMismatch
	case KindCellMissMatch:
		return diag.CellMissMatch
	case KindEnumViolation:
		return diag.EnumViolation
	case KindConstViolation:
		return diag.ConstViolation
	case KindRequiredOmitted:
		return diag.RequiredOmitted
	case KindUnnecessaryProperty:
		return diag.UnnecessaryProperty
	case KindDeprecated:
		return diag.Deprecated
	case KindAddressRegMismatch:
		return diag.AddressRegMismatch
	case KindRangesOverlap:
		return diag.RangesOverlap
	case KindMappingAddressOverflow:
		return diag.MappingAddressOverflow
	case KindNexusMapNoMatch:
		return diag.NexusMapNoMatch
	case KindDuplicateMapEntry:
		return diag.DuplicateMapEntry
	case KindMissingBinding:
		return diag.MissingBinding
	case KindBusMismatch:
		return diag.BusMismatch
	case KindSchemaValidationFailure:
		return diag.SchemaValidationFailure
	default:
		return diag.TypeMismatch
	}
}

func toDiagSeverity(s Severity) diag.Severity {
	switch s {
	case SevError:
		return diag.SeverityError
	case SevWarning:
		return diag.SeverityWarning
	case SevHint:
		return diag.SeverityHint
	default:
		return diag.SeverityError
	}
}
