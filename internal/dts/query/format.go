package query

import (
	"fmt"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/lex"
	"github.com/dkrn/dts-ls/internal/dts/parse"
)

// FormatOptions mirrors the LSP formatting-options fields named in
// spec.md §6 (tabSize, insertSpaces, trimTrailingWhitespace).
type FormatOptions struct {
	TabSize                int
	InsertSpaces           bool
	TrimTrailingWhitespace bool
}

// Format re-lexes and re-parses src and reprints it with normalized
// whitespace (S7: `"/{};"` with tab size 4, insert-spaces false,
// trim-trailing true formats to `"/ { };"`). Reprinting from the AST
// rather than patching the original token stream is what makes the
// result idempotent: formatting already-formatted output re-parses to
// the same tree and reprints identically.
func Format(uri, src string, opts FormatOptions) (string, bool) {
	toks := lex.New(uri, src).Lex().Tokens
	res := parse.Parse(uri, toks)
	if res.Doc == nil {
		return "", false
	}
	out := printStmts(res.Doc.Stmts, 0, opts)
	if opts.TrimTrailingWhitespace {
		out = trimTrailingWhitespace(out)
	}
	return out, true
}

func trimTrailingWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

func indentUnit(opts FormatOptions, depth int) string {
	if opts.InsertSpaces {
		n := opts.TabSize
		if n <= 0 {
			n = 4
		}
		return strings.Repeat(" ", n*depth)
	}
	return strings.Repeat("\t", depth)
}

func printStmts(stmts []ast.Stmt, depth int, opts FormatOptions) string {
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = indentUnit(opts, depth) + printStmt(s, depth, opts)
	}
	return strings.Join(lines, "\n")
}

func printBody(body []ast.Stmt, depth int, opts FormatOptions) string {
	if len(body) == 0 {
		return " }"
	}
	return "\n" + printStmts(body, depth+1, opts) + "\n" + indentUnit(opts, depth) + "}"
}

func printLabels(labels []ast.Label) string {
	var sb strings.Builder
	for _, l := range labels {
		sb.WriteString(l.Name)
		sb.WriteString(": ")
	}
	return sb.String()
}

func printStmt(s ast.Stmt, depth int, opts FormatOptions) string {
	switch s.Kind() {
	case ast.KindRootNode:
		n := s.AsRootNode()
		return printLabels(n.Labels) + "/ {" + printBody(n.Body, depth, opts) + ";"
	case ast.KindChildNode:
		n := s.AsChildNode()
		return printLabels(n.Labels) + n.Name + " {" + printBody(n.Body, depth, opts) + ";"
	case ast.KindRefNode:
		n := s.AsRefNode()
		head := "&" + n.RefLabel
		if n.RefKind == ast.RefByPath {
			head = "&{" + n.RefPath + "}"
		}
		return printLabels(n.Labels) + head + " {" + printBody(n.Body, depth, opts) + ";"
	case ast.KindProperty:
		p := s.AsProperty()
		if p.Values == nil {
			return printLabels(p.Labels) + p.Name + ";"
		}
		return printLabels(p.Labels) + p.Name + " = " + printValueList(p.Values) + ";"
	case ast.KindDeleteNode:
		d := s.AsDeleteNode()
		if d.TargetKind == ast.RefByLabel {
			return "/delete-node/ &" + d.Target + ";"
		}
		return "/delete-node/ " + d.Target + ";"
	case ast.KindDeleteProperty:
		d := s.AsDeleteProperty()
		return "/delete-property/ " + d.Target + ";"
	case ast.KindInclude:
		inc := s.AsInclude()
		return "/include/ \"" + inc.Path + "\";"
	case ast.KindCommentBlock:
		return s.AsCommentBlock().Text
	case ast.KindCommentLine:
		return s.AsCommentLine().Text
	default:
		return ""
	}
}

func printValueList(vl *ast.ValueList) string {
	parts := make([]string, len(vl.Items))
	for i, v := range vl.Items {
		parts[i] = printValue(v)
	}
	return strings.Join(parts, ", ")
}

func printValue(v ast.Value) string {
	switch v.ValueKind() {
	case ast.ValueArray:
		a := v.AsArray()
		cells := make([]string, len(a.Cells))
		for i, c := range a.Cells {
			cells[i] = printValue(c)
		}
		return "<" + strings.Join(cells, " ") + ">"
	case ast.ValueString:
		return v.AsString().Raw
	case ast.ValueBytestring:
		b := v.AsBytestring()
		parts := make([]string, len(b.Bytes))
		for i, by := range b.Bytes {
			parts[i] = fmt.Sprintf("%02x", by)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case ast.ValueLabelRef:
		return "&" + v.AsLabelRef().Label
	case ast.ValueNodePathRef:
		return "&{" + v.AsNodePathRef().Path + "}"
	case ast.ValueMacroCall:
		m := v.AsMacroCall()
		return m.Name + "(" + strings.Join(m.Args, ", ") + ")"
	case ast.ValueExpression:
		return v.AsExpression().Source
	case ast.ValueLabelDef:
		return v.AsLabelDef().Name + ":"
	default:
		return ""
	}
}
