// Package context implements the context manager from spec.md §4.4/§5: the
// component that owns one or more independently-evaluated devicetree
// contexts (a root file plus its transitive includes and binding set),
// resolves both `#include` and `/include/` against a context's configured
// search paths, and runs the full lex -> preprocess -> parse -> merge ->
// bind pipeline to produce a stable runtime.Result per context.
//
// Each Context is single-threaded-cooperative: its own pipeline runs in
// source order with no internal concurrency. The Manager may hold several
// Contexts and rebuild them independently (spec.md §5's "no shared state
// across contexts"), but never runs two rebuilds of the same Context at
// once.
package context
