// Package parse implements the top-down recursive-descent parser that turns
// a preprocessed token stream into an internal/dts/ast.Document.
//
// The recursive-descent shape (one function per grammar production, each
// recording a diagnostic and recovering to the next synchronization token on
// failure rather than aborting) is adapted from
// internal/tunascript/parser.go's hand-written parser, generalized from its
// Pratt-only expression grammar to the full devicetree statement grammar;
// the expression sub-grammar inside `<...>` cells reuses the same
// binding-power idea but is kept local to this package since it only needs
// to capture an expression's *source span* for later evaluation by
// internal/dts/expr, not compute a value itself.
package parse

import (
	"strconv"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Result is the output of parsing one file's preprocessed token stream.
type Result struct {
	Doc   *ast.Document
	Diags []diag.Diagnostic
}

// Parse builds a Document from an already-lexed-and-preprocessed token
// stream. Whitespace and EOL tokens are dropped first; the parser has no use
// for them (the formatter re-derives layout from ranges separately).
func Parse(uri string, toks []token.Token) Result {
	p := &parser{uri: uri, toks: significant(toks)}
	doc := p.parseDocument()
	return Result{Doc: doc, Diags: p.diags}
}

func significant(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Class == token.Whitespace || t.Class == token.EOL {
			continue
		}
		out = append(out, t)
	}
	return out
}

type parser struct {
	uri   string
	toks  []token.Token
	pos   int
	diags []diag.Diagnostic
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF, always present
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i < 0 {
		i = 0
	}
	if i >= len(p.toks) {
		i = len(p.toks) - 1
	}
	return p.toks[i]
}

func (p *parser) peekIs(c token.Class) bool { return p.peek().Class == c }

func (p *parser) atEOF() bool { return p.peek().Class == token.EOF }

func (p *parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) errorf(rng token.Range, format string, args ...any) {
	p.diags = append(p.diags, diag.New(diag.MisplacedToken, diag.SeverityError, rng, format, args...))
}

// expect consumes the next token if it has class c, else records a
// MissingToken diagnostic and returns the zero Token with ok=false, leaving
// the cursor in place for the caller's recovery strategy.
func (p *parser) expect(c token.Class) (token.Token, bool) {
	if p.peekIs(c) {
		return p.advance(), true
	}
	t := p.peek()
	p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError, t.Range,
		"expected %s, found %s", c.Human(), t.Class.Human()))
	return token.Token{}, false
}

// syncTo advances past tokens until one of the given classes is next (and
// consumes it if it's Semi/RBrace, since those terminate the broken
// statement), or EOF is reached. This bounds the damage one malformed
// statement does to the rest of the file.
func (p *parser) syncTo(classes ...token.Class) {
	for !p.atEOF() {
		for _, c := range classes {
			if p.peekIs(c) {
				if c == token.Semi {
					p.advance()
				}
				return
			}
		}
		p.advance()
	}
}

func (p *parser) gatherLabels() []ast.Label {
	var labels []ast.Label
	for p.peekIs(token.LabelDef) {
		t := p.advance()
		name, _ := t.Decoded.(string)
		labels = append(labels, ast.Label{Name: name, Range: t.Range})
	}
	return labels
}

func rangeSpan(start, end token.Token) token.Range {
	return token.Range{URI: start.Range.URI, Start: start.Range.Start, End: end.Range.End}
}

// parseDocument implements `doc := (rootNode | refNode | deleteNode |
// include | comment)*`. Top-level comments are a pragmatic extension beyond
// the formal grammar (file header comments are universal in real sources)
// and are otherwise inert statements carried through for the formatter.
func (p *parser) parseDocument() *ast.Document {
	doc := &ast.Document{URI: p.uri}
	for !p.atEOF() {
		if s := p.tryComment(); s != nil {
			doc.Stmts = append(doc.Stmts, s)
			continue
		}

		start := p.peek()
		labels := p.gatherLabels()

		switch {
		case p.peekIs(token.Slash) && p.peekAt(1).Class == token.LBrace:
			doc.Stmts = append(doc.Stmts, p.rootNode(labels, start))
		case p.peekIs(token.LabelRef) && p.peekAt(1).Class == token.LBrace:
			doc.Stmts = append(doc.Stmts, p.refNodeByLabel(labels, start))
		case p.peekIs(token.Amp) && p.peekAt(1).Class == token.LBrace:
			doc.Stmts = append(doc.Stmts, p.refNodeByPath(labels, start))
		case p.peekIs(token.DeleteNode):
			doc.Stmts = append(doc.Stmts, p.deleteNode())
		case p.peekIs(token.Include):
			doc.Stmts = append(doc.Stmts, p.includeStmt())
		case len(labels) > 0:
			p.errorf(p.peek().Range, "expected a node after label definition")
			p.syncTo(token.Semi, token.RBrace)
		default:
			p.errorf(p.peek().Range, "unexpected %s at top level", p.peek().Class.Human())
			p.advance()
		}
	}
	return doc
}

func (p *parser) tryComment() ast.Stmt {
	switch p.peek().Class {
	case token.CommentBlock:
		t := p.advance()
		return ast.NewCommentBlock(t.Range, t.Lexeme)
	case token.CommentLine:
		t := p.advance()
		return ast.NewCommentLine(t.Range, t.Lexeme)
	}
	return nil
}

func (p *parser) rootNode(labels []ast.Label, start token.Token) ast.Stmt {
	p.advance() // '/'
	p.advance() // '{'
	body := p.parseBody()
	end := p.peek()
	if _, ok := p.expect(token.RBrace); !ok {
		p.syncTo(token.Semi)
	} else if _, ok := p.expect(token.Semi); !ok {
		p.syncTo(token.Semi)
	}
	return ast.NewRootNode(rangeSpan(start, end), labels, body)
}

func (p *parser) refNodeByLabel(labels []ast.Label, start token.Token) ast.Stmt {
	ref := p.advance() // LabelRef, Lexeme "&name"
	name, _ := ref.Decoded.(string)
	p.advance() // '{'
	body := p.parseBody()
	end := p.peek()
	if _, ok := p.expect(token.RBrace); !ok {
		p.syncTo(token.Semi)
	} else if _, ok := p.expect(token.Semi); !ok {
		p.syncTo(token.Semi)
	}
	return ast.NewRefNode(rangeSpan(start, end), labels, ast.RefByLabel, name, "", body)
}

func (p *parser) refNodeByPath(labels []ast.Label, start token.Token) ast.Stmt {
	p.advance() // '&'
	p.advance() // '{'
	path := p.parsePathUntil(token.RBrace)
	p.expect(token.RBrace)
	p.advance() // '{' of the node body
	body := p.parseBody()
	end := p.peek()
	if _, ok := p.expect(token.RBrace); !ok {
		p.syncTo(token.Semi)
	} else if _, ok := p.expect(token.Semi); !ok {
		p.syncTo(token.Semi)
	}
	return ast.NewRefNode(rangeSpan(start, end), labels, ast.RefByPath, "", path, body)
}

// parsePathUntil consumes raw path text (identifiers, '/', ',', '@', '-')
// until the given closing class, without requiring the path's internal
// structure to be a well-formed node-name sequence — malformed paths are
// still captured verbatim so the runtime evaluator can report a precise
// UnableToResolveNodePath diagnostic instead of a parse failure.
func (p *parser) parsePathUntil(closing token.Class) string {
	var sb strings.Builder
	for !p.atEOF() && !p.peekIs(closing) {
		sb.WriteString(p.advance().Lexeme)
	}
	return sb.String()
}

func (p *parser) deleteNode() ast.Stmt {
	head := p.advance() // DeleteNode
	var kind ast.RefKind
	var target string
	if p.peekIs(token.LabelRef) {
		t := p.advance()
		target, _ = t.Decoded.(string)
		kind = ast.RefByLabel
	} else if p.peekIs(token.Identifier) || p.peekIs(token.NodeName) {
		t := p.advance()
		target = t.Lexeme
		kind = ast.RefByPath
	} else {
		p.errorf(p.peek().Range, "expected a label or node name after /delete-node/")
	}
	end := p.peek()
	p.expect(token.Semi)
	return ast.NewDeleteNode(rangeSpan(head, end), kind, target)
}

func (p *parser) deleteProperty() ast.Stmt {
	head := p.advance() // DeleteProperty
	var target string
	if p.peekIs(token.Identifier) {
		target = p.advance().Lexeme
	} else {
		p.errorf(p.peek().Range, "expected a property name after /delete-property/")
	}
	end := p.peek()
	p.expect(token.Semi)
	return ast.NewDeleteProperty(rangeSpan(head, end), target)
}

// includeStmt handles the legacy `/include/ "path";` directive form. Unlike
// `#include` (spliced away by internal/dts/cpp before the parser ever sees
// it), this form is a lexer-level token class that survives to here; the
// context manager resolves and splices it the same way cpp does for the
// C-style form, keeping a single resolution policy instead of two.
func (p *parser) includeStmt() ast.Stmt {
	head := p.advance() // Include
	var path string
	if p.peekIs(token.StringLit) {
		t := p.advance()
		path, _ = t.Decoded.(string)
	} else {
		p.errorf(p.peek().Range, "expected a quoted path after /include/")
	}
	end := p.peek()
	p.expect(token.Semi)
	return ast.NewInclude(rangeSpan(head, end), path, "")
}

// parseBody implements `body := (childNode | property | deleteNode |
// deleteProp | include | comment)*`, stopping at (without consuming) the
// closing '}'.
func (p *parser) parseBody() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.atEOF() && !p.peekIs(token.RBrace) {
		if s := p.tryComment(); s != nil {
			stmts = append(stmts, s)
			continue
		}
		if p.peekIs(token.DeleteNode) {
			stmts = append(stmts, p.deleteNode())
			continue
		}
		if p.peekIs(token.DeleteProperty) {
			stmts = append(stmts, p.deleteProperty())
			continue
		}
		if p.peekIs(token.Include) {
			stmts = append(stmts, p.includeStmt())
			continue
		}

		start := p.peek()
		labels := p.gatherLabels()

		if p.peekIs(token.NodeName) || (p.peekIs(token.Identifier) && p.peekAt(1).Class == token.LBrace) {
			stmts = append(stmts, p.childNode(labels, start))
			continue
		}
		if p.peekIs(token.Identifier) {
			stmts = append(stmts, p.property(labels, start))
			continue
		}
		if len(labels) > 0 {
			p.errorf(p.peek().Range, "expected a node or property after label definition")
			p.syncTo(token.Semi, token.RBrace)
			continue
		}
		p.errorf(p.peek().Range, "unexpected %s in node body", p.peek().Class.Human())
		p.advance()
	}
	return stmts
}

func (p *parser) childNode(labels []ast.Label, start token.Token) ast.Stmt {
	nameTok := p.advance()
	baseName, addrs, hasAddr := splitNodeName(nameTok.Lexeme)
	p.expect(token.LBrace)
	body := p.parseBody()
	end := p.peek()
	if _, ok := p.expect(token.RBrace); !ok {
		p.syncTo(token.Semi)
	} else if _, ok := p.expect(token.Semi); !ok {
		p.syncTo(token.Semi)
	}
	return ast.NewChildNode(rangeSpan(start, end), nameTok.Range, labels, nameTok.Lexeme, baseName, addrs, hasAddr, body)
}

// splitNodeName parses the lexer's fused `name@addr[,addr2]` NodeName
// lexeme into its base identifier and address components.
func splitNodeName(lexeme string) (base string, addrs []uint64, hasAddr bool) {
	at := strings.IndexByte(lexeme, '@')
	if at < 0 {
		return lexeme, nil, false
	}
	base = lexeme[:at]
	rest := lexeme[at+1:]
	for _, part := range strings.Split(rest, ",") {
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 16, 64)
		if err == nil {
			addrs = append(addrs, v)
		}
	}
	return base, addrs, true
}

func (p *parser) property(labels []ast.Label, start token.Token) ast.Stmt {
	nameTok := p.advance()
	var values *ast.ValueList
	if p.peekIs(token.Equals) {
		p.advance()
		values = p.valueList()
	}
	end := p.peek()
	p.expect(token.Semi)
	return ast.NewProperty(rangeSpan(start, end), labels, nameTok.Lexeme, nameTok.Range, values)
}

// valueList implements `values := value (',' value)*`.
func (p *parser) valueList() *ast.ValueList {
	start := p.peek()
	var items []ast.Value
	items = append(items, p.value())
	for p.peekIs(token.Comma) {
		p.advance()
		items = append(items, p.value())
	}
	end := p.peekAt(-1)
	return &ast.ValueList{Items: items, Rng: rangeSpan(start, end)}
}

// value implements the `value` production.
func (p *parser) value() ast.Value {
	switch p.peek().Class {
	case token.LAngle:
		return p.arrayValue()
	case token.StringLit:
		t := p.advance()
		decoded, _ := t.Decoded.(string)
		return ast.NewStringValue(t.Range, t.Lexeme, decoded)
	case token.LBracket:
		return p.bytestringValue()
	case token.LabelRef:
		t := p.advance()
		name, _ := t.Decoded.(string)
		return ast.NewLabelRefValue(t.Range, name)
	case token.Amp:
		start := p.advance() // '&'
		p.expect(token.LBrace)
		path := p.parsePathUntil(token.RBrace)
		end := p.peek()
		p.expect(token.RBrace)
		return ast.NewNodePathRefValue(rangeSpan(start, end), path)
	case token.Identifier:
		if p.peekAt(1).Class == token.LParen {
			return p.macroCallValue()
		}
	}
	t := p.peek()
	p.errorf(t.Range, "expected a property value, found %s", t.Class.Human())
	p.advance()
	return ast.NewStringValue(t.Range, "", "")
}

// arrayValue implements `'<' (cellValue | labelDef)* '>'`.
func (p *parser) arrayValue() ast.Value {
	start := p.advance() // '<'
	var cells []ast.Value
	for !p.atEOF() && !p.peekIs(token.RAngle) {
		cells = append(cells, p.cellValue())
	}
	end := p.peek()
	p.expect(token.RAngle)
	return ast.NewArrayValue(rangeSpan(start, end), cells)
}

// cellValue implements `number | expression | '&' ident | '&{' path '}' |
// cMacroCall | labelDef`.
func (p *parser) cellValue() ast.Value {
	switch p.peek().Class {
	case token.LabelDef:
		t := p.advance()
		name, _ := t.Decoded.(string)
		return ast.NewLabelDefValue(t.Range, name)
	case token.LabelRef:
		t := p.advance()
		name, _ := t.Decoded.(string)
		return ast.NewLabelRefValue(t.Range, name)
	case token.Amp:
		start := p.advance()
		p.expect(token.LBrace)
		path := p.parsePathUntil(token.RBrace)
		end := p.peek()
		p.expect(token.RBrace)
		return ast.NewNodePathRefValue(rangeSpan(start, end), path)
	case token.Identifier:
		if p.peekAt(1).Class == token.LParen {
			return p.macroCallValue()
		}
	}
	return p.expressionCell()
}

// expressionCell captures one constant-expression cell's source span
// (a number, a parenthesized sub-expression, or a chain of those joined by
// binary operators) without evaluating it; internal/dts/expr evaluates the
// captured source once macro values are known.
func (p *parser) expressionCell() ast.Value {
	start := p.pos
	if !p.consumeAtom() {
		t := p.peek()
		p.errorf(t.Range, "expected a number or expression in cell array, found %s", t.Class.Human())
		p.advance()
		src := joinTokenLexemes(p.toks[start:p.pos])
		return ast.NewExpressionValue(t.Range, src, nil)
	}
	for cellLBP(p.peek().Class) > 0 {
		p.advance() // operator
		if !p.consumeAtom() {
			break
		}
	}
	span := p.toks[start:p.pos]
	rng := rangeSpan(span[0], span[len(span)-1])
	return ast.NewExpressionValue(rng, joinTokenLexemes(span), nil)
}

// consumeAtom consumes one expression atom: an optional unary prefix
// operator followed by a literal, identifier, or parenthesized
// sub-expression. Returns false (consuming nothing) if the next token can't
// start an atom.
func (p *parser) consumeAtom() bool {
	switch p.peek().Class {
	case token.Plus, token.Minus, token.Tilde, token.Bang:
		p.advance()
		return p.consumeAtom()
	case token.IntLiteral, token.Identifier:
		p.advance()
		return true
	case token.LParen:
		p.advance()
		depth := 1
		for !p.atEOF() && depth > 0 {
			switch p.peek().Class {
			case token.LParen:
				depth++
			case token.RParen:
				depth--
			}
			p.advance()
		}
		return true
	}
	return false
}

// cellLBP is the token-class left-binding-power table for the cell
// expression grammar, mirroring internal/dts/expr's string-keyed table.
func cellLBP(c token.Class) int {
	switch c {
	case token.PipePipe:
		return 1
	case token.AmpAmp:
		return 2
	case token.Pipe:
		return 3
	case token.Caret:
		return 4
	// bare '&' is ambiguous with a label/path reference cell and is never
	// treated as bitwise-and continuation here; an expression needing
	// bitwise-and must be parenthesized.
	case token.EqEq, token.NotEq:
		return 6
	case token.LAngle, token.RAngle, token.LtEq, token.GtEq:
		return 7
	case token.ShiftL, token.ShiftR:
		return 8
	case token.Plus, token.Minus:
		return 9
	case token.Star, token.Slash, token.Percent:
		return 10
	default:
		return 0
	}
}

func (p *parser) macroCallValue() ast.Value {
	name := p.advance() // Identifier
	p.advance()          // '('
	var args []string
	var cur strings.Builder
	depth := 1
	for !p.atEOF() && depth > 0 {
		t := p.peek()
		switch t.Class {
		case token.LParen:
			depth++
			cur.WriteString(t.Lexeme)
			p.advance()
		case token.RParen:
			depth--
			p.advance()
			if depth > 0 {
				cur.WriteString(t.Lexeme)
			}
		case token.Comma:
			if depth == 1 {
				args = append(args, cur.String())
				cur.Reset()
			} else {
				cur.WriteString(t.Lexeme)
			}
			p.advance()
		default:
			if cur.Len() > 0 {
				cur.WriteRune(' ')
			}
			cur.WriteString(t.Lexeme)
			p.advance()
		}
	}
	if cur.Len() > 0 || len(args) > 0 {
		args = append(args, cur.String())
	}
	end := p.peekAt(-1)
	return ast.NewMacroCallValue(rangeSpan(name, end), name.Lexeme, args)
}

func (p *parser) bytestringValue() ast.Value {
	start := p.advance() // '['
	var bytes []byte
	for !p.atEOF() && !p.peekIs(token.RBracket) {
		t := p.advance()
		// the lexer can split one hex pair ("1A" into "1" and "A"); tokens
		// with no space between them are joined back into one pair
		text := t.Lexeme
		for !p.atEOF() && !p.peekIs(token.RBracket) && p.peek().Range.Start == p.peekAt(-1).Range.End {
			text += p.advance().Lexeme
		}
		v, err := strconv.ParseUint(text, 16, 8)
		if err != nil {
			p.errorf(t.Range, "invalid hex byte %q in bytestring", text)
			continue
		}
		bytes = append(bytes, byte(v))
	}
	end := p.peek()
	p.expect(token.RBracket)
	return ast.NewBytestringValue(rangeSpan(start, end), bytes)
}

func joinTokenLexemes(toks []token.Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteRune(' ')
		}
		sb.WriteString(t.Lexeme)
	}
	return sb.String()
}
