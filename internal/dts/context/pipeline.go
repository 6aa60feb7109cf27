package context

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/binding"
	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/cpp"
	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/lex"
	"github.com/dkrn/dts-ls/internal/dts/parse"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/settings"
	"github.com/dkrn/dts-ls/internal/dts/token"
)

// init wires cpp.LexFn so the preprocessor can lex a `#include` target's
// content inline.
func init() {
	cpp.LexFn = func(uri, content string) []token.Token {
		return lex.New(uri, content).Lex().Tokens
	}
}

// builder runs one context's full pipeline: reading every reachable file,
// lexing, preprocessing (shared registry across the whole context, same as
// a single C translation unit), splicing `/include/` statement lists, and
// finally merging and binding-checking the result.
type builder struct {
	settings settings.Settings
	readFile func(uri string) (string, bool)
	resolver *pathResolver
	cache    cache.Store

	reg     *cpp.Registry
	diags   []diag.Diagnostic
	visited map[string]bool // dedup for docURIs, separate from spliceIncludes' cycle-guard visited
	docURIs []string
}

func newBuilder(s settings.Settings, readFile func(uri string) (string, bool), c cache.Store) *builder {
	return &builder{
		settings: s,
		readFile: readFile,
		resolver: newPathResolver(s.DefaultIncludePaths, readFile),
		cache:    c,
		reg:      cpp.NewRegistry(),
		visited:  make(map[string]bool),
	}
}

// build runs the full pipeline for rootURI and returns the merged runtime
// result plus every diagnostic the pipeline raised (lexical, preprocessor,
// parse, merge, and binding, in that order).
func (b *builder) build(rootURI string) (runtime.Result, *cpp.Registry, []diag.Diagnostic, []string) {
	content, ok := b.readFile(rootURI)
	if !ok {
		b.diags = append(b.diags, diag.New(diag.ReadFailure, diag.SeverityError,
			token.Range{}, "cannot read root file %q", rootURI))
		return runtime.Result{}, b.reg, b.diags, b.docURIs
	}
	b.recordVisit(rootURI)

	rootStmts, ok := b.loadRaw(rootURI, content)
	if !ok {
		return runtime.Result{}, b.reg, b.diags, b.docURIs
	}
	finalStmts := b.spliceIncludes(rootStmts, rootURI, map[string]bool{rootURI: true})

	docs := []runtime.Doc{{URI: rootURI, Stmts: finalStmts}}
	result := runtime.Evaluate(docs, b.reg.IntLookup)
	b.diags = append(b.diags, result.Diags...)

	engine := newEngineFor(b.settings)
	b.diags = append(b.diags, engine.Run(result.Root, result.Labels)...)

	return result, b.reg, b.diags, b.docURIs
}

// loadRaw lexes and preprocesses one file's content (consulting/populating
// the token cache by content hash) and parses the result, appending any
// diagnostics from all three stages to b.diags. The returned statements
// still contain unresolved ast.Include nodes for any `/include/` directives
// the file itself contains; splicing those is the caller's job.
func (b *builder) loadRaw(uri, content string) ([]ast.Stmt, bool) {
	toks := b.lexCached(uri, content)

	cppRes := cpp.Run(uri, toks, b.resolver, b.reg)
	b.diags = append(b.diags, cppRes.Diags...)

	parseRes := parse.Parse(uri, cppRes.Tokens)
	b.diags = append(b.diags, parseRes.Diags...)
	if parseRes.Doc == nil {
		return nil, false
	}
	return parseRes.Doc.Stmts, true
}

func (b *builder) lexCached(uri, content string) []token.Token {
	key := contentHash(content)
	if b.cache != nil {
		if toks, ok := b.cache.GetTokens(key); ok {
			return toks
		}
	}
	res := lex.New(uri, content).Lex()
	b.diags = append(b.diags, res.Diags...)
	// only diagnostic-free results are cached: a cache hit returns tokens
	// alone, so a file with lexical errors is re-lexed to report them again
	if b.cache != nil && len(res.Diags) == 0 {
		b.cache.PutTokens(key, res.Tokens)
	}
	return res.Tokens
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (b *builder) recordVisit(uri string) {
	if b.visited[uri] {
		return
	}
	b.visited[uri] = true
	b.docURIs = append(b.docURIs, uri)
}

func (b *builder) diagMissingInclude(inc *ast.Include) {
	b.diags = append(b.diags, diag.New(diag.MissingInclude, diag.SeverityError,
		inc.Range(), "cannot resolve include %q", inc.Path))
}

func (b *builder) diagIncludeCycle(inc *ast.Include, resolvedURI string) {
	b.diags = append(b.diags, diag.New(diag.MissingInclude, diag.SeverityError,
		inc.Range(), "include cycle: %q already included on this path", resolvedURI))
}

// newEngineFor builds a binding.Engine from a Settings' configured binding
// roots. A loader whose dialect isn't selected (or has no configured roots)
// is left nil, so resolveType falls through to the other dialect or the
// standard defaults.
func newEngineFor(s settings.Settings) *binding.Engine {
	var zephyr *binding.ZephyrLoader
	var schema *binding.SchemaLoader
	switch s.DefaultBindingType {
	case settings.BindingZephyr:
		if len(s.ZephyrBindings) > 0 {
			zephyr = binding.NewZephyrLoader(s.ZephyrBindings)
		}
	case settings.BindingDeviceOrg:
		if len(s.DeviceOrgTreeBindings) > 0 {
			schema = binding.NewSchemaLoader(s.DeviceOrgTreeBindings, firstOrEmpty(s.DeviceOrgBindingsMetaSchema))
		}
	}
	return binding.NewEngine(zephyr, schema)
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
