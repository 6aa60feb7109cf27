package context

import (
	"path/filepath"
	"strings"

	"github.com/dkrn/dts-ls/internal/dts/ast"
	"github.com/dkrn/dts-ls/internal/dts/cpp"
)

// pathResolver implements cpp.IncludeResolver for both `#include` (used
// directly by cpp.Run) and the DTS-native `/include/` directive (used by
// spliceIncludes below) against one ordered search-path list, matching
// preprocessor convention: a quoted include ("path") is first tried
// relative to the including file's own directory, then every configured
// root in order; an angled include (<path>) skips the including file's
// directory and only searches configured roots.
type pathResolver struct {
	searchPaths []string
	readFile    func(uri string) (string, bool)
}

func newPathResolver(searchPaths []string, readFile func(uri string) (string, bool)) *pathResolver {
	return &pathResolver{searchPaths: searchPaths, readFile: readFile}
}

func (r *pathResolver) Resolve(fromURI, path string, angled bool) (uri string, content string, ok bool) {
	var candidates []string
	if !angled {
		candidates = append(candidates, filepath.Join(filepath.Dir(fromURI), path))
	}
	for _, root := range r.searchPaths {
		candidates = append(candidates, filepath.Join(root, path))
	}
	if filepath.IsAbs(path) {
		candidates = append([]string{path}, candidates...)
	}
	for _, cand := range candidates {
		if content, ok := r.readFile(cand); ok {
			return cand, content, true
		}
	}
	return "", "", false
}

var _ cpp.IncludeResolver = (*pathResolver)(nil)

// spliceIncludes walks stmts looking for `/include/` directives (ast.Include
// nodes the parser leaves inert, Resolved always empty — see
// internal/dts/parse's Open Question note) and recursively replaces each
// one with the target file's own (recursively spliced) statement list.
// visited guards against an include cycle; a file already on the current
// path is left as an unresolved Include rather than recursed into again.
func (b *builder) spliceIncludes(stmts []ast.Stmt, fromURI string, visited map[string]bool) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		inc, ok := s.(*ast.Include)
		if !ok {
			out = append(out, s)
			continue
		}
		resolvedURI, content, found := b.resolver.Resolve(fromURI, inc.Path, false)
		if !found {
			b.diagMissingInclude(inc)
			out = append(out, s)
			continue
		}
		if visited[resolvedURI] {
			b.diagIncludeCycle(inc, resolvedURI)
			out = append(out, s)
			continue
		}
		childStmts, ok := b.loadRaw(resolvedURI, content)
		if !ok {
			out = append(out, s)
			continue
		}
		nextVisited := make(map[string]bool, len(visited)+1)
		for k := range visited {
			nextVisited[k] = true
		}
		nextVisited[resolvedURI] = true
		out = append(out, b.spliceIncludes(childStmts, resolvedURI, nextVisited)...)
		b.recordVisit(resolvedURI)
	}
	return out
}

// stripScheme trims a "file://" prefix some clients send on document URIs;
// paths used internally (include search, cache keys) are plain filesystem
// paths.
func stripScheme(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
