package lspserver

import (
	"github.com/tliron/glsp"
	"github.com/tliron/glsp/protocol_3_16"
)

func (h *handler) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.clientMu.Lock()
	h.client = ctx
	h.clientMu.Unlock()

	capabilities := h.protocol.CreateServerCapabilities()

	full := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = full

	trueVal := true
	capabilities.DocumentFormattingProvider = trueVal
	capabilities.DefinitionProvider = trueVal
	capabilities.HoverProvider = trueVal
	capabilities.DocumentSymbolProvider = trueVal
	capabilities.ReferencesProvider = trueVal
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: semanticTokensLegend,
		Full:   trueVal,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name: serverName,
		},
	}, nil
}

func (h *handler) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (h *handler) shutdown(ctx *glsp.Context) error {
	return nil
}

func (h *handler) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}
