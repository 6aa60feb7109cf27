package cpp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkrn/dts-ls/internal/dts/lex"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

func init() {
	LexFn = func(uri, content string) []token.Token {
		return lex.New(uri, content).Lex().Tokens
	}
}

func lexSrc(src string) []token.Token {
	return lex.New("test.dts", src).Lex().Tokens
}

func lexemes(toks []token.Token) []string {
	var out []string
	for _, t := range toks {
		switch t.Class {
		case token.EOF, token.EOL, token.Whitespace:
			continue
		}
		out = append(out, t.Lexeme)
	}
	return out
}

func Test_Run_objectLikeMacro(t *testing.T) {
	src := "#define FOO 42\nval = FOO;\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Empty(t, res.Diags)
	assert.Equal(t, []string{"val", "=", "42", ";"}, lexemes(res.Tokens))
}

func Test_Run_functionLikeMacro(t *testing.T) {
	src := "#define ADD(a, b) (a + b)\nval = ADD(1, 2);\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Empty(t, res.Diags)
	assert.Equal(t, []string{"val", "=", "(", "1", "+", "2", ")", ";"}, lexemes(res.Tokens))
}

func Test_Run_functionLikeMacroArityMismatch(t *testing.T) {
	src := "#define ADD(a, b) (a + b)\nval = ADD(1);\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.NotEmpty(t, res.Diags)
}

func Test_Run_ifdefTakenBranch(t *testing.T) {
	src := "#define FOO\n#ifdef FOO\nval = 1;\n#else\nval = 2;\n#endif\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Equal(t, []string{"val", "=", "1", ";"}, lexemes(res.Tokens))
}

func Test_Run_ifdefNotTakenBranch(t *testing.T) {
	src := "#ifdef FOO\nval = 1;\n#else\nval = 2;\n#endif\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Equal(t, []string{"val", "=", "2", ";"}, lexemes(res.Tokens))
}

func Test_Run_ifConstantExpression(t *testing.T) {
	src := "#define VER 2\n#if VER > 1\nval = 1;\n#elif VER == 1\nval = 2;\n#else\nval = 3;\n#endif\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Equal(t, []string{"val", "=", "1", ";"}, lexemes(res.Tokens))
}

func Test_Run_unterminatedConditionalIsDiagnosed(t *testing.T) {
	src := "#ifdef FOO\nval = 1;\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.NotEmpty(t, res.Diags)
}

func Test_Run_stringification(t *testing.T) {
	src := "#define STR(x) #x\nval = STR(hello);\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Empty(t, res.Diags)
	lex := lexemes(res.Tokens)
	assert.Equal(t, []string{"val", "=", `"hello"`, ";"}, lex)
}

func Test_Run_tokenPasting(t *testing.T) {
	src := "#define CAT(a, b) a ## b\nval = CAT(foo, bar);\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Empty(t, res.Diags)
	assert.Equal(t, []string{"val", "=", "foobar", ";"}, lexemes(res.Tokens))
}

type fakeResolver struct {
	files map[string]string
}

func (f fakeResolver) Resolve(fromURI, path string, angled bool) (string, string, bool) {
	content, ok := f.files[path]
	if !ok {
		return "", "", false
	}
	return "file://" + path, content, true
}

func Test_Run_includeResolved(t *testing.T) {
	resolver := fakeResolver{files: map[string]string{
		"common.dtsi": "#define SHARED 7\n",
	}}
	src := "#include \"common.dtsi\"\nval = SHARED;\n"
	res := Run("test.dts", lexSrc(src), resolver, nil)
	assert.Empty(t, res.Diags)
	assert.Equal(t, []string{"val", "=", "7", ";"}, lexemes(res.Tokens))
	assert.Len(t, res.Includes, 1)
	assert.Equal(t, "common.dtsi", res.Includes[0].Path)
	assert.NotEmpty(t, res.Includes[0].Resolved)
}

func Test_Run_includeUnresolved(t *testing.T) {
	src := "#include \"missing.dtsi\"\n"
	res := Run("test.dts", lexSrc(src), fakeResolver{files: map[string]string{}}, nil)
	assert.NotEmpty(t, res.Diags)
}

func Test_Run_undef(t *testing.T) {
	src := "#define FOO 1\n#undef FOO\n#ifdef FOO\nval = 1;\n#else\nval = 2;\n#endif\n"
	res := Run("test.dts", lexSrc(src), nil, nil)
	assert.Equal(t, []string{"val", "=", "2", ";"}, lexemes(res.Tokens))
}

func Test_Registry_IntLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Define(&Macro{Name: "FOO", Body: lexemesToBody("1 + 2")})
	v, ok := reg.IntLookup("FOO")
	assert.True(t, ok)
	assert.EqualValues(t, 3, v)
}

func lexemesToBody(src string) []token.Token {
	return lexSrc(src)
}
