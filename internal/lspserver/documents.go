package lspserver

import (
	"github.com/tliron/glsp"
	"github.com/tliron/glsp/protocol_3_16"
)

func (h *handler) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.setBuffer(string(params.TextDocument.URI), params.TextDocument.Text)
	return nil
}

func (h *handler) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	text, ok := fullText(params.ContentChanges)
	if !ok {
		return nil
	}
	h.setBuffer(string(params.TextDocument.URI), text)
	return nil
}

func (h *handler) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		h.setBuffer(string(params.TextDocument.URI), *params.Text)
	}
	if c, ok := h.contextForURI(string(params.TextDocument.URI)); ok {
		h.mgr.RequestContext(c.ID, "", "", nil)
	}
	return nil
}

func (h *handler) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.docsMu.Lock()
	delete(h.docs, normalizeURI(string(params.TextDocument.URI)))
	h.docsMu.Unlock()
	return nil
}

func (h *handler) setBuffer(uri, text string) {
	h.docsMu.Lock()
	h.docs[normalizeURI(uri)] = text
	h.docsMu.Unlock()
}

// fullText extracts whole-document text out of a full-sync
// didChange's ContentChanges, whatever concrete shape glsp decoded it as.
func fullText(changes []interface{}) (string, bool) {
	if len(changes) == 0 {
		return "", false
	}
	last := changes[len(changes)-1]

	switch v := last.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return v.Text, true
	case *protocol.TextDocumentContentChangeEventWhole:
		return v.Text, true
	case map[string]interface{}:
		if text, ok := v["text"].(string); ok {
			return text, true
		}
	}
	return "", false
}
