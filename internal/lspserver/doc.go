// Package lspserver wires internal/dts/context.Manager and internal/dts/query
// to a JSON-RPC transport via github.com/tliron/glsp: the standard LSP
// methods (completion, hover, definition, references, documentSymbol,
// formatting, semanticTokens/full) plus the custom requests and
// notifications from spec.md §6
// (compiledDtsOutput, serializedContext, activePath, customActions,
// activeFileUri, evalMacros, memoryViews, zephyrTypeBindings,
// contextMacroNames, locationScopeInformation, formatTextEdits,
// setDefaultSettings, getContexts, setActive, getActiveContext,
// requestContext, removeContext, and the contextCreated/contextDeleted/
// newActiveContext/contextStable/activeContextStable/settingsChanged
// notifications).
//
// No file in the retrieved example pack demonstrates tliron/glsp usage
// beyond a single indirect-dependency line in an unrelated repo's go.mod,
// so the transport wiring here follows the library's public API rather
// than an in-pack pattern.
package lspserver
