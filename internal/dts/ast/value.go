package ast

import "github.com/dkrn/dts-ls/internal/dts/token"

// ValueKind discriminates the Value variant. The same closed set serves
// both a property's comma-separated value list (array/string/bytestring/
// label-ref/node-path-ref/macro-call) and the cell items inside one `<...>`
// array (which additionally allows bare expressions and label definitions);
// the grammar in spec.md §4.3 treats these as overlapping alternatives of
// one production family, so one variant type serves both.
type ValueKind int

const (
	ValueArray ValueKind = iota
	ValueString
	ValueBytestring
	ValueLabelRef
	ValueNodePathRef
	ValueMacroCall
	ValueExpression
	ValueLabelDef
)

func (k ValueKind) String() string {
	switch k {
	case ValueArray:
		return "array"
	case ValueString:
		return "string"
	case ValueBytestring:
		return "bytestring"
	case ValueLabelRef:
		return "label-ref"
	case ValueNodePathRef:
		return "node-path-ref"
	case ValueMacroCall:
		return "macro-call"
	case ValueExpression:
		return "expression"
	case ValueLabelDef:
		return "label-def"
	default:
		return "unknown-value"
	}
}

// Value is any element that can appear as a property value or as a cell
// inside an array value.
type Value interface {
	ValueKind() ValueKind
	Range() token.Range

	AsArray() *ArrayValue
	AsString() *StringValue
	AsBytestring() *BytestringValue
	AsLabelRef() *LabelRefValue
	AsNodePathRef() *NodePathRefValue
	AsMacroCall() *MacroCallValue
	AsExpression() *ExpressionValue
	AsLabelDef() *LabelDefValue
}

type valueBase struct {
	kind ValueKind
	rng  token.Range
}

func (b valueBase) ValueKind() ValueKind { return b.kind }
func (b valueBase) Range() token.Range   { return b.rng }

func valueMismatch(want ValueKind, have ValueKind) string {
	return "ast: called As" + want.String() + " on a Value of kind " + have.String()
}

func (b valueBase) AsArray() *ArrayValue             { panic(valueMismatch(ValueArray, b.kind)) }
func (b valueBase) AsString() *StringValue           { panic(valueMismatch(ValueString, b.kind)) }
func (b valueBase) AsBytestring() *BytestringValue   { panic(valueMismatch(ValueBytestring, b.kind)) }
func (b valueBase) AsLabelRef() *LabelRefValue       { panic(valueMismatch(ValueLabelRef, b.kind)) }
func (b valueBase) AsNodePathRef() *NodePathRefValue { panic(valueMismatch(ValueNodePathRef, b.kind)) }
func (b valueBase) AsMacroCall() *MacroCallValue     { panic(valueMismatch(ValueMacroCall, b.kind)) }
func (b valueBase) AsExpression() *ExpressionValue   { panic(valueMismatch(ValueExpression, b.kind)) }
func (b valueBase) AsLabelDef() *LabelDefValue       { panic(valueMismatch(ValueLabelDef, b.kind)) }

// ValueList is the full comma-separated right-hand side of a property
// assignment: `values := value (',' value)*`.
type ValueList struct {
	Items []Value
	Rng   token.Range
}

func (vl *ValueList) Range() token.Range { return vl.Rng }

// ArrayValue is one `< cellValue* >` group.
type ArrayValue struct {
	valueBase
	Cells []Value
}

func (v *ArrayValue) AsArray() *ArrayValue { return v }

func NewArrayValue(rng token.Range, cells []Value) *ArrayValue {
	return &ArrayValue{valueBase: valueBase{kind: ValueArray, rng: rng}, Cells: cells}
}

// StringValue is a `"..."` value.
type StringValue struct {
	valueBase
	Raw     string // as it appeared in source, including quotes
	Decoded string // escapes resolved
}

func (v *StringValue) AsString() *StringValue { return v }

func NewStringValue(rng token.Range, raw, decoded string) *StringValue {
	return &StringValue{valueBase: valueBase{kind: ValueString, rng: rng}, Raw: raw, Decoded: decoded}
}

// BytestringValue is a `[ hexPair+ ]` value.
type BytestringValue struct {
	valueBase
	Bytes []byte
}

func (v *BytestringValue) AsBytestring() *BytestringValue { return v }

func NewBytestringValue(rng token.Range, bytes []byte) *BytestringValue {
	return &BytestringValue{valueBase: valueBase{kind: ValueBytestring, rng: rng}, Bytes: bytes}
}

// LabelRefValue is `&name`.
type LabelRefValue struct {
	valueBase
	Label string
}

func (v *LabelRefValue) AsLabelRef() *LabelRefValue { return v }

func NewLabelRefValue(rng token.Range, label string) *LabelRefValue {
	return &LabelRefValue{valueBase: valueBase{kind: ValueLabelRef, rng: rng}, Label: label}
}

// NodePathRefValue is `&{/absolute/path}`.
type NodePathRefValue struct {
	valueBase
	Path string
}

func (v *NodePathRefValue) AsNodePathRef() *NodePathRefValue { return v }

func NewNodePathRefValue(rng token.Range, path string) *NodePathRefValue {
	return &NodePathRefValue{valueBase: valueBase{kind: ValueNodePathRef, rng: rng}, Path: path}
}

// MacroCallValue is a function-like C-preprocessor macro invocation that
// survived to the AST because it could not be expanded at preprocessing
// time (e.g. referenced an undefined macro) — kept so the query layer can
// still report something sensible rather than dropping the site.
type MacroCallValue struct {
	valueBase
	Name string
	Args []string
}

func (v *MacroCallValue) AsMacroCall() *MacroCallValue { return v }

func NewMacroCallValue(rng token.Range, name string, args []string) *MacroCallValue {
	return &MacroCallValue{valueBase: valueBase{kind: ValueMacroCall, rng: rng}, Name: name, Args: args}
}

// ExpressionValue is a constant-arithmetic expression (a bare number or an
// operator expression over numbers/macros), evaluated by internal/dts/expr.
type ExpressionValue struct {
	valueBase
	Source string
	// Eval is populated by the evaluator once the expression is resolved;
	// nil if evaluation failed (a diagnostic will have been recorded).
	Eval *int64
}

func (v *ExpressionValue) AsExpression() *ExpressionValue { return v }

func NewExpressionValue(rng token.Range, source string, eval *int64) *ExpressionValue {
	return &ExpressionValue{valueBase: valueBase{kind: ValueExpression, rng: rng}, Source: source, Eval: eval}
}

// LabelDefValue is a bare `label:` appearing inside an array value, used to
// label a specific cell position (phandle cross-labeling).
type LabelDefValue struct {
	valueBase
	Name string
}

func (v *LabelDefValue) AsLabelDef() *LabelDefValue { return v }

func NewLabelDefValue(rng token.Range, name string) *LabelDefValue {
	return &LabelDefValue{valueBase: valueBase{kind: ValueLabelDef, rng: rng}, Name: name}
}
