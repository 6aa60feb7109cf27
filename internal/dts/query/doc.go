// Package query implements spec.md §4.7's read-only feature layer:
// type-directed completions, hover, go-to-definition, reference search,
// symbol enumeration, and whitespace-normalizing format edits, plus the
// custom request handlers from spec.md §6 that expose context-manager
// state directly (compiledDtsOutput, serializedContext, evalMacros,
// memoryViews, zephyrTypeBindings, contextMacroNames,
// locationScopeInformation).
//
// Every operation here takes an already-stable *context.Context (the
// caller — internal/lspserver — awaits parse stable before dispatching, per
// spec.md §5) and only reads its published runtime.Result; nothing in this
// package mutates a context.
package query
