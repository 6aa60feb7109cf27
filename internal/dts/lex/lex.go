// Package lex turns devicetree source bytes into a finite token stream.
//
// The scanning approach (a buffered rune reader tracking line/column and full
// source lines for cursor-style error rendering) is adapted from
// internal/ictiobus/lex's lazyLex, generalized from that package's
// configurable per-state regex table to the fixed DTS+CPP lexical grammar
// this language actually has (see SPEC_FULL.md / DESIGN.md: a generic
// lexer-generator table has no component left to serve once the grammar is
// fixed).
package lex

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Result is the output of a single-file lex pass: a finite token stream plus
// any lexical diagnostics. Lexing never panics and never fails outright;
// every byte of input is consumed into either a token or an Error token.
type Result struct {
	Tokens []token.Token
	Diags  []diag.Diagnostic
}

// Lexer scans one file's contents into a Result. It holds no state between
// calls to Lex; a fresh Lexer (or a reused one, they're equivalent) is cheap.
type Lexer struct {
	uri  string
	src  []rune
	pos  int // index into src
	line int // 1-indexed
	col  int // 1-indexed
	lines []string
}

// New constructs a Lexer for the given file URI and full source text.
func New(uri, src string) *Lexer {
	lx := &Lexer{
		uri:   uri,
		src:   []rune(src),
		line:  1,
		col:   1,
		lines: strings.Split(src, "\n"),
	}
	return lx
}

func (lx *Lexer) curLine() string {
	if lx.line-1 < len(lx.lines) {
		return lx.lines[lx.line-1]
	}
	return ""
}

type pos = token.Pos

func (lx *Lexer) here() pos { return pos{Line: lx.line, Col: lx.col} }

func (lx *Lexer) eof() bool { return lx.pos >= len(lx.src) }

func (lx *Lexer) peek() rune {
	if lx.eof() {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *Lexer) peekAt(off int) rune {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *Lexer) advance() rune {
	r := lx.src[lx.pos]
	lx.pos++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *Lexer) rangeFrom(start pos) token.Range {
	return token.Range{URI: lx.uri, Start: start, End: lx.here()}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("-,._+?#", r)
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Lex scans the entire source into a finite token stream terminated by EOF.
func (lx *Lexer) Lex() Result {
	var res Result

	for !lx.eof() {
		r := lx.peek()

		switch {
		case r == '\n':
			start := lx.here()
			fullLine := lx.curLine()
			lx.advance()
			res.Tokens = append(res.Tokens, token.Token{
				Class: token.EOL, Lexeme: "\n",
				Range: lx.rangeFrom(start), FullLine: fullLine,
			})
		case r == ' ' || r == '\t' || r == '\r':
			start := lx.here()
			fullLine := lx.curLine()
			var sb strings.Builder
			for !lx.eof() && (lx.peek() == ' ' || lx.peek() == '\t' || lx.peek() == '\r') {
				sb.WriteRune(lx.advance())
			}
			res.Tokens = append(res.Tokens, token.Token{
				Class: token.Whitespace, Lexeme: sb.String(),
				Range: lx.rangeFrom(start), FullLine: fullLine,
			})
		case r == '/' && lx.peekAt(1) == '*':
			lx.lexBlockComment(&res)
		case r == '/' && lx.peekAt(1) == '/':
			lx.lexLineComment(&res)
		case r == '/' && lx.matchKeyword("/delete-node/"):
			lx.lexKeyword(&res, "/delete-node/", token.DeleteNode)
		case r == '/' && lx.matchKeyword("/delete-property/"):
			lx.lexKeyword(&res, "/delete-property/", token.DeleteProperty)
		case r == '/' && lx.matchKeyword("/include/"):
			lx.lexKeyword(&res, "/include/", token.Include)
		case r == '#' && isCppDirectiveHead(lx):
			lx.lexCppDirective(&res)
		case r == '"':
			lx.lexString(&res)
		case r == '\'':
			lx.lexChar(&res)
		case r == '&':
			lx.lexAmpOrLabelRef(&res)
		case unicode.IsDigit(r):
			lx.lexNumber(&res)
		case isIdentStart(r):
			lx.lexIdentOrNodeName(&res)
		default:
			lx.lexPunct(&res)
		}
	}

	res.Tokens = append(res.Tokens, token.EOFToken(lx.uri, lx.here(), lx.curLine()))
	return res
}

func (lx *Lexer) matchKeyword(kw string) bool {
	rs := []rune(kw)
	for i, want := range rs {
		if lx.peekAt(i) != want {
			return false
		}
	}
	return true
}

func (lx *Lexer) lexKeyword(res *Result, kw string, cl token.Class) {
	start := lx.here()
	fullLine := lx.curLine()
	for range kw {
		lx.advance()
	}
	res.Tokens = append(res.Tokens, token.Token{
		Class: cl, Lexeme: kw, Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

func (lx *Lexer) lexBlockComment(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var sb strings.Builder
	sb.WriteRune(lx.advance()) // /
	sb.WriteRune(lx.advance()) // *
	closed := false
	for !lx.eof() {
		if lx.peek() == '*' && lx.peekAt(1) == '/' {
			sb.WriteRune(lx.advance())
			sb.WriteRune(lx.advance())
			closed = true
			break
		}
		sb.WriteRune(lx.advance())
	}
	if !closed {
		res.Diags = append(res.Diags, diag.New(diag.UnterminatedComment, diag.SeverityError,
			lx.rangeFrom(start), "unterminated block comment"))
	}
	res.Tokens = append(res.Tokens, token.Token{
		Class: token.CommentBlock, Lexeme: sb.String(), Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

func (lx *Lexer) lexLineComment(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var sb strings.Builder
	for !lx.eof() && lx.peek() != '\n' {
		sb.WriteRune(lx.advance())
	}
	res.Tokens = append(res.Tokens, token.Token{
		Class: token.CommentLine, Lexeme: sb.String(), Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

func (lx *Lexer) lexString(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var raw strings.Builder
	var decoded strings.Builder
	raw.WriteRune(lx.advance()) // opening quote
	closed := false
	for !lx.eof() {
		r := lx.peek()
		if r == '"' {
			raw.WriteRune(lx.advance())
			closed = true
			break
		}
		if r == '\n' {
			break // unterminated; never consume across a line
		}
		if r == '\\' {
			raw.WriteRune(lx.advance())
			if lx.eof() {
				break
			}
			esc := lx.peek()
			raw.WriteRune(lx.advance())
			d, ok := decodeEscape(esc)
			if !ok {
				res.Diags = append(res.Diags, diag.New(diag.InvalidEscape, diag.SeverityError,
					lx.rangeFrom(start), "invalid escape sequence '\\%c'", esc))
			}
			decoded.WriteRune(d)
			continue
		}
		decoded.WriteRune(r)
		raw.WriteRune(lx.advance())
	}
	if !closed {
		res.Diags = append(res.Diags, diag.New(diag.UnterminatedString, diag.SeverityError,
			lx.rangeFrom(start), "unterminated string literal"))
	}
	res.Tokens = append(res.Tokens, token.Token{
		Class: token.StringLit, Lexeme: raw.String(), Decoded: decoded.String(),
		Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

func decodeEscape(r rune) (rune, bool) {
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	default:
		return r, false
	}
}

func (lx *Lexer) lexChar(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var sb strings.Builder
	sb.WriteRune(lx.advance()) // '
	var decoded rune
	if !lx.eof() && lx.peek() == '\\' {
		sb.WriteRune(lx.advance())
		esc := lx.peek()
		sb.WriteRune(lx.advance())
		d, _ := decodeEscape(esc)
		decoded = d
	} else if !lx.eof() {
		decoded = lx.peek()
		sb.WriteRune(lx.advance())
	}
	closed := false
	if !lx.eof() && lx.peek() == '\'' {
		sb.WriteRune(lx.advance())
		closed = true
	}
	if !closed {
		res.Diags = append(res.Diags, diag.New(diag.UnterminatedChar, diag.SeverityError,
			lx.rangeFrom(start), "unterminated character literal"))
	}
	res.Tokens = append(res.Tokens, token.Token{
		Class: token.CharLiteral, Lexeme: sb.String(), Decoded: decoded,
		Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

func (lx *Lexer) lexAmpOrLabelRef(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	lx.advance() // &
	if lx.peek() == '&' {
		lx.advance()
		res.Tokens = append(res.Tokens, token.Token{Class: token.AmpAmp, Lexeme: "&&", Range: lx.rangeFrom(start), FullLine: fullLine})
		return
	}
	if lx.peek() == '{' {
		// &{/path/to/node} — the parser consumes the braces itself; emit
		// Amp alone and let the path be lexed as punctuation+identifiers.
		res.Tokens = append(res.Tokens, token.Token{Class: token.Amp, Lexeme: "&", Range: lx.rangeFrom(start), FullLine: fullLine})
		return
	}
	if isIdentStart(lx.peek()) {
		var sb strings.Builder
		for !lx.eof() && isIdentCont(lx.peek()) {
			sb.WriteRune(lx.advance())
		}
		res.Tokens = append(res.Tokens, token.Token{
			Class: token.LabelRef, Lexeme: "&" + sb.String(),
			Decoded: sb.String(), Range: lx.rangeFrom(start), FullLine: fullLine,
		})
		return
	}
	res.Tokens = append(res.Tokens, token.Token{Class: token.Amp, Lexeme: "&", Range: lx.rangeFrom(start), FullLine: fullLine})
}

func (lx *Lexer) lexNumber(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var sb strings.Builder

	base := 10
	if lx.peek() == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X') {
		base = 16
		sb.WriteRune(lx.advance())
		sb.WriteRune(lx.advance())
		for !lx.eof() && isHex(lx.peek()) {
			sb.WriteRune(lx.advance())
		}
	} else if lx.peek() == '0' && isDigit(lx.peekAt(1)) {
		base = 8
		sb.WriteRune(lx.advance())
		for !lx.eof() && lx.peek() >= '0' && lx.peek() <= '7' {
			sb.WriteRune(lx.advance())
		}
	} else {
		for !lx.eof() && unicode.IsDigit(lx.peek()) {
			sb.WriteRune(lx.advance())
		}
	}
	// integer suffixes U/L in any combination/case, as DTC accepts.
	for !lx.eof() && strings.ContainsRune("uUlL", lx.peek()) {
		sb.WriteRune(lx.advance())
	}

	lexeme := sb.String()
	trimmed := strings.TrimRight(lexeme, "uUlL")
	var val int64
	switch base {
	case 16:
		val, _ = strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X"), 16, 64)
	case 8:
		val, _ = strconv.ParseInt(trimmed, 8, 64)
	default:
		val, _ = strconv.ParseInt(trimmed, 10, 64)
	}

	res.Tokens = append(res.Tokens, token.Token{
		Class: token.IntLiteral, Lexeme: lexeme, Decoded: val,
		Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func (lx *Lexer) lexIdentOrNodeName(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var sb strings.Builder
	for !lx.eof() && isIdentCont(lx.peek()) {
		sb.WriteRune(lx.advance())
	}
	name := sb.String()

	// label definition: ident immediately followed by ':' (not '::')
	if lx.peek() == ':' && lx.peekAt(1) != ':' {
		lx.advance()
		res.Tokens = append(res.Tokens, token.Token{
			Class: token.LabelDef, Lexeme: name + ":", Decoded: name,
			Range: lx.rangeFrom(start), FullLine: fullLine,
		})
		return
	}

	// node name: ident@addr[,addr2]
	if lx.peek() == '@' {
		sb.WriteRune(lx.advance())
		for !lx.eof() && isHex(lx.peek()) {
			sb.WriteRune(lx.advance())
		}
		if lx.peek() == ',' && isHex(lx.peekAt(1)) {
			sb.WriteRune(lx.advance())
			for !lx.eof() && isHex(lx.peek()) {
				sb.WriteRune(lx.advance())
			}
		}
		res.Tokens = append(res.Tokens, token.Token{
			Class: token.NodeName, Lexeme: sb.String(),
			Range: lx.rangeFrom(start), FullLine: fullLine,
		})
		return
	}

	res.Tokens = append(res.Tokens, token.Token{
		Class: token.Identifier, Lexeme: name,
		Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}

var punctTwo = map[string]token.Class{
	"&&": token.AmpAmp,
	"||": token.PipePipe,
	"==": token.EqEq,
	"!=": token.NotEq,
	"<=": token.LtEq,
	">=": token.GtEq,
	"<<": token.ShiftL,
	">>": token.ShiftR,
	"##": token.HashHash,
}

var punctOne = map[rune]token.Class{
	'{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket,
	'<': token.LAngle, '>': token.RAngle,
	'(': token.LParen, ')': token.RParen,
	';': token.Semi, ',': token.Comma,
	'=': token.Equals, '/': token.Slash,
	'&': token.Amp, '+': token.Plus,
	'-': token.Minus, '*': token.Star,
	'%': token.Percent, '|': token.Pipe,
	'^': token.Caret, '~': token.Tilde,
	'!': token.Bang, '?': token.Question,
	':': token.Colon, '#': token.Hash,
	'\\': token.Backslash,
}

func (lx *Lexer) lexPunct(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	two := string(lx.peek()) + string(lx.peekAt(1))
	if cl, ok := punctTwo[two]; ok {
		lx.advance()
		lx.advance()
		res.Tokens = append(res.Tokens, token.Token{Class: cl, Lexeme: two, Range: lx.rangeFrom(start), FullLine: fullLine})
		return
	}
	r := lx.peek()
	if cl, ok := punctOne[r]; ok {
		lx.advance()
		res.Tokens = append(res.Tokens, token.Token{Class: cl, Lexeme: string(r), Range: lx.rangeFrom(start), FullLine: fullLine})
		return
	}
	// unknown byte: emit an Error token covering exactly it, and continue.
	lx.advance()
	res.Diags = append(res.Diags, diag.New(diag.UnexpectedByte, diag.SeverityError,
		lx.rangeFrom(start), "unexpected byte %q", r))
	res.Tokens = append(res.Tokens, token.Token{Class: token.Error, Lexeme: string(r), Range: lx.rangeFrom(start), FullLine: fullLine})
}

func isCppDirectiveHead(lx *Lexer) bool {
	// only a directive at the start of a logical line (ignoring leading
	// whitespace) counts; DTS itself never uses a bare leading '#' outside
	// of this.
	heads := []string{"include", "define", "undef", "ifdef", "ifndef", "if", "else", "elif", "endif", "pragma"}
	// peek past the '#'
	i := 1
	for unicode.IsSpace(lx.peekAt(i)) && lx.peekAt(i) != '\n' {
		i++
	}
	var sb strings.Builder
	j := i
	for isIdentStart(lx.peekAt(j)) || (sb.Len() > 0 && unicode.IsDigit(lx.peekAt(j))) {
		sb.WriteRune(lx.peekAt(j))
		j++
	}
	word := sb.String()
	for _, h := range heads {
		if word == h {
			return true
		}
	}
	return false
}

func (lx *Lexer) lexCppDirective(res *Result) {
	start := lx.here()
	fullLine := lx.curLine()
	var sb strings.Builder
	sb.WriteRune(lx.advance()) // #
	for unicode.IsSpace(lx.peek()) && lx.peek() != '\n' {
		sb.WriteRune(lx.advance())
	}
	for !lx.eof() && isIdentStart(lx.peek()) {
		sb.WriteRune(lx.advance())
	}
	res.Tokens = append(res.Tokens, token.Token{
		Class: token.CppDirective, Lexeme: sb.String(),
		Range: lx.rangeFrom(start), FullLine: fullLine,
	})
}
