package cpp

import (
	"strconv"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/expr"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// IncludeResolver resolves an `#include`/`/include/` path against the
// context's configured include-path list. ok is false if the target could
// not be found on any configured root.
type IncludeResolver interface {
	Resolve(fromURI, path string, angled bool) (uri string, content string, ok bool)
}

// Result is the output of running the preprocessor over one file's token
// stream: the expanded token stream (ready for the parser), the macro
// registry snapshot, and any diagnostics (missing includes, arity
// mismatches, unterminated conditionals).
type Result struct {
	Tokens []token.Token
	Reg    *Registry
	Diags  []diag.Diagnostic
	// Includes records every `#include` directive processed in an active
	// region, resolved or not; an included file's own includes are listed
	// before the entry of the directive that pulled it in.
	Includes []IncludeRef
}

// IncludeRef is one `#include`/`/include/` site.
type IncludeRef struct {
	Range    token.Range
	Path     string
	Angled   bool
	Resolved string // resolved URI, empty if unresolved
}

type condFrame struct {
	// active is whether this branch's tokens should be emitted, considering
	// both this frame's own condition and every enclosing frame's activity.
	active bool
	// taken is whether any branch of this #if/#elif/#else chain has been
	// taken yet (so a later #elif/#else on an already-satisfied chain stays
	// inactive).
	taken bool
	// parentActive is the enclosing frame's active state, needed because an
	// inner #else/#elif must never activate inside an inactive outer frame.
	parentActive bool
}

type preprocessor struct {
	uri      string
	toks     []token.Token
	pos      int
	resolver IncludeResolver
	reg      *Registry
	out      []token.Token
	diags    []diag.Diagnostic
	includes []IncludeRef
	conds    []condFrame
	expanding map[string]bool // recursion guard: macro name -> currently expanding
}

// Run preprocesses one file's already-lexed token stream.
func Run(uri string, toks []token.Token, resolver IncludeResolver, reg *Registry) Result {
	if reg == nil {
		reg = NewRegistry()
	}
	p := &preprocessor{
		uri: uri, toks: toks, resolver: resolver, reg: reg,
		expanding: make(map[string]bool),
	}
	p.run()
	return Result{Tokens: p.out, Reg: p.reg, Diags: p.diags, Includes: p.includes}
}

func (p *preprocessor) active() bool {
	for _, f := range p.conds {
		if !f.active {
			return false
		}
	}
	return true
}

func (p *preprocessor) run() {
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.Class == token.CppDirective {
			p.directive()
			continue
		}
		if !p.active() {
			p.pos++
			continue
		}
		if t.Class == token.Identifier {
			if consumed := p.tryExpand(t); consumed {
				continue
			}
		}
		p.out = append(p.out, t)
		p.pos++
	}
	if len(p.conds) > 0 {
		p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError,
			p.toks[len(p.toks)-1].Range, "unterminated conditional: missing #endif"))
	}
}

// restOfLine returns all tokens up to (not including) the next EOL/EOF,
// skipping whitespace, and advances past them (but not past the EOL).
func (p *preprocessor) restOfLine() []token.Token {
	var line []token.Token
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.Class == token.EOL || t.Class == token.EOF {
			break
		}
		if t.Class != token.Whitespace {
			line = append(line, t)
		}
		p.pos++
	}
	return line
}

func (p *preprocessor) directive() {
	head := p.toks[p.pos]
	p.pos++
	name := strings.TrimPrefix(strings.TrimSpace(head.Lexeme), "#")
	name = strings.TrimSpace(name)

	switch {
	case strings.HasPrefix(name, "include"):
		p.doInclude(head)
	case strings.HasPrefix(name, "define"):
		p.doDefine(head)
	case strings.HasPrefix(name, "undef"):
		rest := p.restOfLine()
		if len(rest) > 0 {
			p.reg.Undefine(rest[0].Lexeme)
		}
	case strings.HasPrefix(name, "ifdef"):
		rest := p.restOfLine()
		cond := len(rest) > 0
		if cond {
			_, cond = p.reg.Lookup(rest[0].Lexeme)
		}
		p.pushCond(cond)
	case strings.HasPrefix(name, "ifndef"):
		rest := p.restOfLine()
		cond := true
		if len(rest) > 0 {
			_, defined := p.reg.Lookup(rest[0].Lexeme)
			cond = !defined
		}
		p.pushCond(cond)
	case name == "if":
		rest := p.restOfLine()
		cond := p.evalCondTokens(rest, head.Range)
		p.pushCond(cond)
	case name == "elif":
		rest := p.restOfLine()
		p.elifCond(func() bool { return p.evalCondTokens(rest, head.Range) }, head.Range)
	case name == "else":
		p.restOfLine()
		p.elseCond(head.Range)
	case name == "endif":
		p.restOfLine()
		p.popCond(head.Range)
	case name == "pragma":
		p.restOfLine()
	default:
		p.restOfLine()
	}
	// the trailing EOL is left in place; run() handles it like any other
	// token.
}

func (p *preprocessor) pushCond(selfTrue bool) {
	parentActive := p.active()
	p.conds = append(p.conds, condFrame{
		active:       parentActive && selfTrue,
		taken:        selfTrue,
		parentActive: parentActive,
	})
}

func (p *preprocessor) elifCond(eval func() bool, rng token.Range) {
	if len(p.conds) == 0 {
		p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError, rng, "#elif without matching #if"))
		return
	}
	top := &p.conds[len(p.conds)-1]
	if top.taken {
		top.active = false
		return
	}
	cond := eval()
	top.active = top.parentActive && cond
	top.taken = cond
}

func (p *preprocessor) elseCond(rng token.Range) {
	if len(p.conds) == 0 {
		p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError, rng, "#else without matching #if"))
		return
	}
	top := &p.conds[len(p.conds)-1]
	top.active = top.parentActive && !top.taken
	top.taken = true
}

func (p *preprocessor) popCond(rng token.Range) {
	if len(p.conds) == 0 {
		p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError, rng, "#endif without matching #if"))
		return
	}
	p.conds = p.conds[:len(p.conds)-1]
}

// evalCondTokens renders an `#if`/`#elif` condition to source text and hands
// it to expr.Eval, resolving identifiers against the macro registry. The
// `defined(NAME)`/`defined NAME` operator is handled here rather than in
// expr, since "is this name defined" is a preprocessor-level question the
// constant-expression evaluator has no other reason to know about.
func (p *preprocessor) evalCondTokens(toks []token.Token, rng token.Range) bool {
	var sb strings.Builder
	i := 0
	for i < len(toks) {
		if i > 0 {
			sb.WriteRune(' ')
		}
		t := toks[i]
		if t.Class == token.Identifier && t.Lexeme == "defined" {
			j := i + 1
			wrapped := j < len(toks) && toks[j].Class == token.LParen
			if wrapped {
				j++
			}
			if j < len(toks) && toks[j].Class == token.Identifier {
				_, ok := p.reg.Lookup(toks[j].Lexeme)
				sb.WriteString(boolLiteral(ok))
				j++
				if wrapped && j < len(toks) && toks[j].Class == token.RParen {
					j++
				}
				i = j
				continue
			}
		}
		sb.WriteString(t.Lexeme)
		i++
	}
	v, err := expr.Eval(sb.String(), p.reg.IntLookup)
	if err != nil {
		p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError, rng,
			"invalid #if condition: %s", err))
		return false
	}
	return v != 0
}

func boolLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func evalConstantBody(body []token.Token, reg *Registry) (int64, bool) {
	var sb strings.Builder
	for i, t := range body {
		if i > 0 {
			sb.WriteRune(' ')
		}
		sb.WriteString(t.Lexeme)
	}
	v, err := expr.Eval(sb.String(), reg.IntLookup)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *preprocessor) doInclude(head token.Token) {
	rest := p.restOfLine()
	if len(rest) == 0 {
		p.diags = append(p.diags, diag.New(diag.MissingInclude, diag.SeverityError, head.Range, "missing include path"))
		return
	}
	var path string
	angled := false
	first := rest[0]
	if first.Class == token.StringLit {
		path, _ = first.Decoded.(string)
	} else if first.Class == token.LtEq || first.Class == token.LAngle || first.Lexeme == "<" {
		angled = true
		var sb strings.Builder
		for _, t := range rest[1:] {
			if t.Lexeme == ">" {
				break
			}
			sb.WriteString(t.Lexeme)
		}
		path = sb.String()
	} else {
		for _, t := range rest {
			path += t.Lexeme
		}
	}

	if !p.active() {
		return
	}

	ref := IncludeRef{Range: head.Range, Path: path, Angled: angled}
	if p.resolver != nil {
		if uri, content, ok := p.resolver.Resolve(p.uri, path, angled); ok {
			ref.Resolved = uri
			sub := lexAndExpandInclude(uri, content, p.resolver, p.reg)
			p.out = append(p.out, sub.Tokens...)
			p.diags = append(p.diags, sub.Diags...)
			p.includes = append(p.includes, sub.Includes...)
		} else {
			p.diags = append(p.diags, diag.New(diag.MissingInclude, diag.SeverityError, head.Range,
				"cannot resolve include %q", path))
		}
	}
	p.includes = append(p.includes, ref)
}

// LexFn lexes an included file's content for the preprocessor. The context
// package sets it at init (this package's tests set it too). When it is
// nil, an included file contributes no tokens.
var LexFn func(uri, content string) []token.Token

func lexAndExpandInclude(uri, content string, resolver IncludeResolver, reg *Registry) Result {
	var toks []token.Token
	if LexFn != nil {
		toks = LexFn(uri, content)
	}
	return Run(uri, toks, resolver, reg)
}

func (p *preprocessor) doDefine(head token.Token) {
	// consume name (and optional immediate '(' params ')')
	var name token.Token
	foundName := false
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		if t.Class == token.EOL || t.Class == token.EOF {
			break
		}
		if t.Class == token.Whitespace {
			p.pos++
			continue
		}
		name = t
		foundName = true
		p.pos++
		break
	}
	if !foundName {
		p.diags = append(p.diags, diag.New(diag.MissingToken, diag.SeverityError, head.Range, "#define missing macro name"))
		return
	}

	m := &Macro{Name: name.Lexeme, DefSite: head.Range}

	// function-like iff '(' immediately follows the name with no space.
	if p.pos < len(p.toks) && p.toks[p.pos].Class == token.LParen &&
		p.toks[p.pos].Range.Start == name.Range.End {
		p.pos++ // consume (
		m.FunctionLike = true
		for p.pos < len(p.toks) {
			t := p.toks[p.pos]
			if t.Class == token.RParen {
				p.pos++
				break
			}
			if t.Class == token.Identifier {
				m.Params = append(m.Params, t.Lexeme)
			}
			p.pos++
		}
	}

	body := p.restOfLine()
	m.Body = body
	if p.active() {
		p.reg.Define(m)
	}
}

func paramIndex(params []string, name string) int {
	for i, p := range params {
		if p == name {
			return i
		}
	}
	return -1
}

// tryExpand attempts to expand the macro named by t at the current
// position. Returns false (leaving p.pos untouched) if t is not a macro
// name, or is a function-like macro not immediately followed by '(' (C
// leaves such references un-expanded).
func (p *preprocessor) tryExpand(t token.Token) bool {
	m, ok := p.reg.Lookup(t.Lexeme)
	if !ok || p.expanding[t.Lexeme] {
		return false
	}

	if m.FunctionLike {
		save := p.pos
		p.pos++ // past name
		for p.pos < len(p.toks) && p.toks[p.pos].Class == token.Whitespace {
			p.pos++
		}
		if p.pos >= len(p.toks) || p.toks[p.pos].Class != token.LParen {
			p.pos = save
			return false
		}
		args, endPos, ok := p.readArgs(p.pos)
		if !ok {
			p.pos = save
			return false
		}
		if len(args) != len(m.Params) {
			p.diags = append(p.diags, diag.New(diag.MisplacedToken, diag.SeverityError, t.Range,
				"macro %q expects %d argument(s), got %d", m.Name, len(m.Params), len(args)))
			p.pos = endPos
			return true
		}
		callRange := token.Range{URI: t.Range.URI, Start: t.Range.Start, End: p.toks[endPos-1].Range.End}
		expanded := expandFunctionLike(m, args, callRange)
		p.reg.recordCall(CallSite{MacroName: m.Name, CallRange: callRange, Args: args})
		p.pos = endPos
		p.expanding[m.Name] = true
		p.injectAndRescan(expanded)
		p.expanding[m.Name] = false
		return true
	}

	p.pos++
	p.reg.recordCall(CallSite{MacroName: m.Name, CallRange: t.Range})
	p.expanding[m.Name] = true
	p.injectAndRescan(m.Body)
	p.expanding[m.Name] = false
	return true
}

// injectAndRescan splices replacement tokens back into the input stream at
// the current position so further macro references inside the expansion
// (and anything following it) get a chance to expand too, bounded by the
// expanding-set recursion guard.
func (p *preprocessor) injectAndRescan(repl []token.Token) {
	tail := append([]token.Token{}, p.toks[p.pos:]...)
	p.toks = append(append([]token.Token{}, repl...), tail...)
	p.pos = 0
}

func (p *preprocessor) readArgs(lparenPos int) (args [][]token.Token, endPos int, ok bool) {
	depth := 0
	i := lparenPos
	var cur []token.Token
	for i < len(p.toks) {
		t := p.toks[i]
		switch t.Class {
		case token.LParen:
			depth++
			if depth > 1 {
				cur = append(cur, t)
			}
		case token.RParen:
			depth--
			if depth == 0 {
				if len(cur) > 0 || len(args) > 0 {
					args = append(args, cur)
				}
				return args, i + 1, true
			}
			cur = append(cur, t)
		case token.Comma:
			if depth == 1 {
				args = append(args, cur)
				cur = nil
			} else {
				cur = append(cur, t)
			}
		case token.Whitespace, token.EOL:
			// drop
		default:
			cur = append(cur, t)
		}
		i++
	}
	return nil, lparenPos, false
}

// expandFunctionLike substitutes params with args in the macro body,
// honoring stringification (#param) and token pasting (a ## b). Every output
// token's Origin records callRange, the range of the call in the source.
func expandFunctionLike(m *Macro, args [][]token.Token, callRange token.Range) []token.Token {
	var out []token.Token
	body := m.Body
	for i := 0; i < len(body); i++ {
		t := body[i]

		if t.Class == token.Hash && i+1 < len(body) && body[i+1].Class == token.Identifier {
			if idx := paramIndex(m.Params, body[i+1].Lexeme); idx >= 0 && idx < len(args) {
				str := stringifyArg(args[idx])
				out = append(out, token.Token{Class: token.StringLit, Lexeme: strconv.Quote(str), Decoded: str, Range: t.Range})
				i++
				continue
			}
		}

		if t.Class == token.Identifier {
			if idx := paramIndex(m.Params, t.Lexeme); idx >= 0 && idx < len(args) {
				// every parameter is replaced by its raw argument tokens;
				// macros inside them expand when the result is rescanned.
				out = append(out, args[idx]...)
				continue
			}
		}

		if t.Class == token.HashHash && len(out) > 0 {
			// paste: merge last emitted token's lexeme with the next token
			// (which may itself be a parameter, substituted first).
			var nextLexeme string
			var nextRange token.Range
			if i+1 < len(body) {
				nt := body[i+1]
				if idx := paramIndex(m.Params, nt.Lexeme); idx >= 0 && idx < len(args) && len(args[idx]) > 0 {
					nextLexeme = joinLexemes(args[idx])
					nextRange = args[idx][0].Range
				} else {
					nextLexeme = nt.Lexeme
					nextRange = nt.Range
				}
				i++
			}
			last := out[len(out)-1]
			pasted := last.Lexeme + nextLexeme
			out[len(out)-1] = token.Token{Class: token.Identifier, Lexeme: pasted, Range: unionRange(last.Range, nextRange)}
			continue
		}

		out = append(out, t)
	}
	for i := range out {
		out[i].Origin = &token.ExpansionOrigin{MacroName: m.Name, CallRange: callRange}
	}
	return out
}

func stringifyArg(toks []token.Token) string {
	return joinLexemes(toks)
}

func joinLexemes(toks []token.Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 {
			sb.WriteRune(' ')
		}
		sb.WriteString(t.Lexeme)
	}
	return sb.String()
}

func unionRange(a, b token.Range) token.Range {
	r := a
	if b.End.Line > r.End.Line || (b.End.Line == r.End.Line && b.End.Col > r.End.Col) {
		r.End = b.End
	}
	return r
}
