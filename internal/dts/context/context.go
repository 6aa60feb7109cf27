package context

import (
	"sync"

	"github.com/dkrn/dts-ls/internal/dts/binding"
	"github.com/dkrn/dts-ls/internal/dts/cpp"
	"github.com/dkrn/dts-ls/internal/dts/diag"
	"github.com/dkrn/dts-ls/internal/dts/runtime"
	"github.com/dkrn/dts-ls/internal/dts/settings"
)

// Context is one independently-evaluated devicetree root: a primary file
// plus every file reachable from it through `#include`/`/include/`, merged
// into a single runtime tree and checked against its configured binding
// dialect.
type Context struct {
	mu sync.RWMutex

	ID       string
	Name     string
	RootURI  string
	Settings settings.Settings

	generation uint64
	stable     bool

	result  runtime.Result
	reg     *cpp.Registry
	diags   []diag.Diagnostic
	docURIs []string // every file this context's pipeline visited, in visit order
}

// Generation returns the context's rebuild counter, bumped on every
// RequestContext/settings change that invalidates its current result.
// Callers can use it to detect a stale snapshot taken before a concurrent
// rebuild.
func (c *Context) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Stable reports whether the context's current result reflects its latest
// requested generation (no rebuild in flight or pending).
func (c *Context) Stable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stable
}

// Result returns the context's most recently published runtime tree. It is
// safe to call while a rebuild is in progress; it returns the previous
// stable snapshot until the new one is published.
func (c *Context) Result() runtime.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Diagnostics returns every diagnostic from the context's last rebuild:
// lexical, preprocessor, parse, merge, and binding, in pipeline order.
func (c *Context) Diagnostics() []diag.Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]diag.Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// MacroRegistry returns the preprocessor macro table built while evaluating
// the context's primary file, for the query layer's contextMacroNames and
// evalMacros custom requests.
func (c *Context) MacroRegistry() *cpp.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg
}

// Files returns every file URI visited while building this context, in the
// order they were first reached (root first, then each include the first
// time it's encountered).
func (c *Context) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.docURIs))
	copy(out, c.docURIs)
	return out
}

func (c *Context) publish(res runtime.Result, reg *cpp.Registry, diags []diag.Diagnostic, docURIs []string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.generation {
		// a newer rebuild already published; this one raced and lost.
		return
	}
	c.result = res
	c.reg = reg
	c.diags = diags
	c.docURIs = docURIs
	c.generation = gen
	c.stable = true
}

func (c *Context) beginRebuild() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.stable = false
	return c.generation
}

// bindingEngine builds a binding.Engine from the context's current
// Settings.
func (c *Context) bindingEngine() *binding.Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return newEngineFor(c.Settings)
}
