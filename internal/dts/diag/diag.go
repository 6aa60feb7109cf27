// Package diag defines the structured diagnostic type shared by every stage
// of the pipeline (lexer through binding engine) and the error-sentinel
// wrapper for I/O-class failures, grounded on server/serr's cause-chain
// Error type.
package diag

import (
	"fmt"

	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Severity mirrors the LSP DiagnosticSeverity levels.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// Tag is an auxiliary marker attached to a Diagnostic (e.g. Deprecated,
// Unnecessary) independent of its Kind/Severity.
type Tag int

const (
	TagDeprecated Tag = iota
	TagUnnecessary
)

// Kind is the closed taxonomy of diagnostic kinds from spec.md §7. Spellings
// are canonicalized ("Omitted", "Deprecated") per §9's Open Question, while
// kinds that carried genuinely distinct severities under the two spellings
// are kept distinct (RequiredOmitted vs UnnecessaryProperty).
type Kind int

const (
	// Lexical
	UnterminatedString Kind = iota
	UnterminatedChar
	UnterminatedComment
	InvalidEscape
	UnexpectedByte

	// Syntactic
	MissingToken
	MisplacedToken
	RecoverySkip

	// Context / merge
	DuplicatePropertyName
	DuplicateNodeName
	DeleteOfAbsentTarget
	UnableToResolveChildNode
	UnableToResolveNodePath
	LabelAlreadyInUse
	MissingMandatoryNode
	NonUniquePhandle

	// Semantic-type (standard)
	TypeMismatch
	CellMissMatch
	EnumViolation
	ConstViolation
	RequiredOmitted
	UnnecessaryProperty
	Deprecated
	AddressRegMismatch
	RangesOverlap
	MappingAddressOverflow
	NexusMapNoMatch
	DuplicateMapEntry

	// Binding
	MissingBinding
	BusMismatch
	SchemaValidationFailure

	// I/O
	MissingInclude
	MissingBindingFile
	ReadFailure
)

// RelatedInfo links a diagnostic to a secondary location, e.g. the first
// definition site of a duplicate.
type RelatedInfo struct {
	Range   token.Range
	Message string
}

// Diagnostic is one finding attached to a precise source range.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Range    token.Range
	Tags     []Tag
	Related  []RelatedInfo
	// Args are the ordered template arguments for localized rendering
	// (e.g. RangesOverlap's single argument is the literal "child"/"parent").
	Args []any
	// message is the already-rendered English text (fmt.Sprintf of a
	// template + Args), kept alongside Args so callers needn't re-render.
	message string
}

// New builds a Diagnostic with a rendered message.
func New(kind Kind, sev Severity, rng token.Range, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: sev,
		Range:    rng,
		Args:     args,
		message:  fmt.Sprintf(format, args...),
	}
}

// WithRelated returns a copy of d with related locations attached.
func (d Diagnostic) WithRelated(related ...RelatedInfo) Diagnostic {
	d.Related = append(append([]RelatedInfo{}, d.Related...), related...)
	return d
}

// WithTags returns a copy of d with tags attached.
func (d Diagnostic) WithTags(tags ...Tag) Diagnostic {
	d.Tags = append(append([]Tag{}, d.Tags...), tags...)
	return d
}

// Message is the rendered English message for this diagnostic.
func (d Diagnostic) Message() string {
	return d.message
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Range, d.Severity, d.message)
}
