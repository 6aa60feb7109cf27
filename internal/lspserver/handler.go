package lspserver

import (
	"sync"

	"github.com/tliron/glsp"
	"github.com/tliron/glsp/protocol_3_16"

	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/util"
)

// customFunc handles one of spec.md §6's non-standard request methods.
// params is the request's raw JSON arguments.
type customFunc func(ctx *glsp.Context, params []byte) (any, error)

// handler owns the context manager, the open-document overlay, and both
// the generated protocol.Handler (standard LSP methods) and the custom
// method table the dispatcher in server.go consults first.
type handler struct {
	mgr      *context.Manager
	protocol protocol.Handler
	custom   map[string]customFunc

	docsMu sync.Mutex
	docs   map[string]string // open buffer text, by normalized URI

	clientMu sync.Mutex
	client   *glsp.Context // captured at initialize, used to push notifications

	watchedMu sync.Mutex
	watched   util.StringSet // URIs the client has already been told to watch
}

func newHandler(mgr *context.Manager) *handler {
	h := &handler{
		mgr:     mgr,
		docs:    make(map[string]string),
		watched: util.NewStringSet(),
	}

	h.protocol.Initialize = h.initialize
	h.protocol.Initialized = h.initialized
	h.protocol.Shutdown = h.shutdown
	h.protocol.SetTrace = h.setTrace

	h.protocol.TextDocumentDidOpen = h.didOpen
	h.protocol.TextDocumentDidChange = h.didChange
	h.protocol.TextDocumentDidSave = h.didSave
	h.protocol.TextDocumentDidClose = h.didClose

	h.protocol.TextDocumentCompletion = h.completion
	h.protocol.TextDocumentHover = h.hover
	h.protocol.TextDocumentDefinition = h.definition
	h.protocol.TextDocumentReferences = h.references
	h.protocol.TextDocumentDocumentSymbol = h.documentSymbol
	h.protocol.TextDocumentFormatting = h.formatting
	h.protocol.TextDocumentSemanticTokensFull = h.semanticTokensFull

	h.custom = map[string]customFunc{
		"setDefaultSettings":       h.cSetDefaultSettings,
		"getContexts":              h.cGetContexts,
		"setActive":                h.cSetActive,
		"getActiveContext":         h.cGetActiveContext,
		"requestContext":           h.cRequestContext,
		"removeContext":            h.cRemoveContext,
		"compiledDtsOutput":        h.cCompiledDTSOutput,
		"serializedContext":        h.cSerializedContext,
		"activePath":               h.cActivePath,
		"customActions":            h.cCustomActions,
		"activeFileUri":            h.cActiveFileURI,
		"evalMacros":               h.cEvalMacros,
		"memoryViews":              h.cMemoryViews,
		"zephyrTypeBindings":       h.cZephyrTypeBindings,
		"contextMacroNames":        h.cContextMacroNames,
		"locationScopeInformation": h.cLocationScopeInformation,
		"formatTextEdits":          h.cFormatTextEdits,
	}

	return h
}

// contextForURI returns the context that owns uri: the one whose visited
// file set contains it, preferring the active context on a tie.
func (h *handler) contextForURI(uri string) (*context.Context, bool) {
	uri = normalizeURI(uri)

	if active, ok := h.mgr.ActiveContext(); ok {
		for _, f := range active.Files() {
			if f == uri {
				return active, true
			}
		}
	}

	for _, c := range h.mgr.GetContexts() {
		for _, f := range c.Files() {
			if f == uri {
				return c, true
			}
		}
	}
	return nil, false
}

func (h *handler) bufferText(uri string) (string, bool) {
	h.docsMu.Lock()
	defer h.docsMu.Unlock()
	text, ok := h.docs[normalizeURI(uri)]
	return text, ok
}

// markWatched records uri as watched and reports whether this is the first
// time it's been seen, so wireNotifications doesn't spam the client with a
// watchFile notification for a URI it's already been told about.
func (h *handler) markWatched(uri string) bool {
	h.watchedMu.Lock()
	defer h.watchedMu.Unlock()
	if h.watched.Has(uri) {
		return false
	}
	h.watched.Add(uri)
	return true
}

// clearWatched is the inverse of markWatched, for OnUnwatch.
func (h *handler) clearWatched(uri string) bool {
	h.watchedMu.Lock()
	defer h.watchedMu.Unlock()
	if !h.watched.Has(uri) {
		return false
	}
	h.watched.Remove(uri)
	return true
}
