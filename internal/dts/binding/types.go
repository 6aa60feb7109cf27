// Package binding implements the two-dialect binding/type engine from
// spec.md §4.6: resolving, per runtime node, a NodeType (a tree-shaped
// Zephyr-style YAML binding or a schema-shaped devicetree.org-style
// JSON-Schema document) and running the standard property checks against
// it. There is no teacher analog for either dialect — `NodeType`'s
// ordered-property-definition shape is new, though its Kind()-tagged
// dispatch over PropertyType follows the same closed-variant style as
// internal/dts/ast.
package binding

import "github.com/dkrn/dts-ls/internal/dts/token"

// PropertyType is the set of value shapes a property definition can
// require, per spec.md §3/§4.6.
type PropertyType int

const (
	TypeBoolean PropertyType = iota
	TypeU32
	TypeU64
	TypeString
	TypeStringList
	TypeArray   // a bare <...> cell array, e.g. "reg"
	TypeUint8Array
	TypePhandle
	TypePhandleArray
	TypeCompound // mixed-type property, e.g. a phandle-array with trailing strings
)

func (t PropertyType) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeU32:
		return "u32"
	case TypeU64:
		return "u64"
	case TypeString:
		return "string"
	case TypeStringList:
		return "string-array"
	case TypeArray:
		return "array"
	case TypeUint8Array:
		return "uint8-array"
	case TypePhandle:
		return "phandle"
	case TypePhandleArray:
		return "phandle-array"
	case TypeCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Requirement is how mandatory a property is for a given node type.
type Requirement int

const (
	Optional Requirement = iota
	Required
	Omitted // the property must NOT appear
)

// PropertyDef is one entry in a NodeType's ordered property-definition
// list.
type PropertyDef struct {
	// Name is either a literal property name or, if Matcher is true, a
	// prefix matched against any property not otherwise named (used for
	// the generic "*-names"/"*-map" families).
	Name    string
	Matcher bool

	Types []PropertyType // allowed type union; validation passes if any matches

	Requirement Requirement

	Enum  []string // allowed string values, if non-empty
	Const any      // fixed required value, if non-nil

	Default any

	Description string

	// SpecifierCells names the `#<name>-cells` property that governs this
	// property's phandle-array cell arithmetic (e.g. "gpio" for a
	// "gpios"/"gpio-map" family), empty if not a phandle-array.
	SpecifierCells string

	// AdditionalCheck, if set, runs after the standard type/enum/const
	// checks and may append further diagnostics; composes with (does not
	// replace) the standard check.
	AdditionalCheck func(ctx *CheckContext) []Diagnostic
}

// NodeType is the resolved binding for one runtime node: its compatible
// string (or standard-default name), ordered property definitions, bus
// membership, and nested child-binding type.
type NodeType struct {
	// Compatible is the compatible string this type was selected for, or a
	// standard-default name (e.g. "cpus") if no binding file matched.
	Compatible string

	Properties []PropertyDef

	// Bus is the bus this node type exposes to its children (e.g. "i2c"),
	// empty if none.
	Bus string
	// OnBus restricts this type to only apply under a parent exposing this
	// bus, empty if unrestricted.
	OnBus string

	// CellSpecifiers maps a specifier name (without the "#"/"-cells"
	// wrapping, e.g. "gpio") to its cell count, gathered from this node's
	// own `#<name>-cells` properties once evaluated.
	CellSpecifiers map[string]int

	// Child is the binding applied to this node's children, if the
	// binding file declared a nested "child-binding".
	Child *NodeType

	// Source names the binding file (or "<standard>") this type came
	// from, for hover/diagnostic provenance.
	Source string
}

func (nt *NodeType) findProperty(name string) (PropertyDef, bool) {
	if nt == nil {
		return PropertyDef{}, false
	}
	for _, pd := range nt.Properties {
		if !pd.Matcher && pd.Name == name {
			return pd, true
		}
	}
	for _, pd := range nt.Properties {
		if pd.Matcher && len(name) >= len(pd.Name) && name[:len(pd.Name)] == pd.Name {
			return pd, true
		}
	}
	return PropertyDef{}, false
}

// Diagnostic mirrors diag.Diagnostic's shape without importing diag
// directly at this layer's construction sites — checks build these, and
// the engine translates them to diag.Diagnostic once, keeping this
// package's check functions free of the diag.Kind taxonomy's import.
type Diagnostic struct {
	Kind     DiagKind
	Severity Severity
	Range    token.Range
	Args     []any
	Message  string
}

type Severity int

const (
	SevError Severity = iota
	SevWarning
	SevHint
)

// DiagKind names which diag.Kind a binding Diagnostic maps to; kept as a
// small local enum (rather than importing diag.Kind directly) so this
// package's check functions can be unit tested without constructing a
// diag.Diagnostic.
type DiagKind int

const (
	KindTypeMismatch DiagKind = iota
	KindCellMissMatch
	KindEnumViolation
	KindConstViolation
	KindRequiredOmitted
	KindUnnecessaryProperty
	KindDeprecated
	KindAddressRegMismatch
	KindRangesOverlap
	KindMappingAddressOverflow
	KindNexusMapNoMatch
	KindDuplicateMapEntry
	KindMissingBinding
	KindBusMismatch
	KindSchemaValidationFailure
)
