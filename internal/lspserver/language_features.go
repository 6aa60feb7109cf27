package lspserver

import (
	"os"

	"github.com/tliron/glsp"
	"github.com/tliron/glsp/protocol_3_16"

	"github.com/dkrn/dts-ls/internal/dts/query"
)

func (h *handler) completion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	c, ok := h.contextForURI(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	items := query.Complete(c.Result().Root, normalizeURI(string(params.TextDocument.URI)), toPos(params.Position))

	out := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		kind := completionItemKind(item.Kind)
		detail := item.Detail
		out[i] = protocol.CompletionItem{
			Label:  item.Label,
			Kind:   &kind,
			Detail: &detail,
		}
	}
	return out, nil
}

func completionItemKind(k query.CompletionKind) protocol.CompletionItemKind {
	if k == query.CompletionProperty {
		return protocol.CompletionItemKindProperty
	}
	return protocol.CompletionItemKindValue
}

func (h *handler) hover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	c, ok := h.contextForURI(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	text, found := query.Hover(c.Result().Root, normalizeURI(string(params.TextDocument.URI)), toPos(params.Position))
	if !found {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: text},
	}, nil
}

func (h *handler) definition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	c, ok := h.contextForURI(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	rng, found := query.Definition(c.Result().Root, normalizeURI(string(params.TextDocument.URI)), toPos(params.Position))
	if !found {
		return nil, nil
	}
	return protocol.Location{URI: protocol.DocumentUri(rng.URI), Range: fromRange(rng)}, nil
}

func (h *handler) references(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	c, ok := h.contextForURI(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	rngs := query.References(c.Result().Root, normalizeURI(string(params.TextDocument.URI)), toPos(params.Position))
	out := make([]protocol.Location, len(rngs))
	for i, r := range rngs {
		out[i] = protocol.Location{URI: protocol.DocumentUri(r.URI), Range: fromRange(r)}
	}
	return out, nil
}

func (h *handler) documentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	c, ok := h.contextForURI(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	syms := query.Symbols(c.Result().Root)
	out := make([]protocol.DocumentSymbol, len(syms))
	for i, s := range syms {
		out[i] = toDocumentSymbol(s)
	}
	return out, nil
}

func toDocumentSymbol(s query.Symbol) protocol.DocumentSymbol {
	rng := fromRange(s.Range)
	children := make([]protocol.DocumentSymbol, len(s.Children))
	for i, c := range s.Children {
		children[i] = toDocumentSymbol(c)
	}
	return protocol.DocumentSymbol{
		Name:           s.Name,
		Detail:         &s.Path,
		Kind:           protocol.SymbolKindModule,
		Range:          rng,
		SelectionRange: rng,
		Children:       children,
	}
}

// semanticTokensLegend is the fixed type legend advertised at initialize
// time and relied on by semanticTokensFull's type indices; it must stay in
// the same order as query.SemanticTokenTypeNames.
var semanticTokensLegend = protocol.SemanticTokensLegend{
	TokenTypes:     query.SemanticTokenTypeNames,
	TokenModifiers: []string{},
}

func (h *handler) semanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (any, error) {
	c, ok := h.contextForURI(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	toks := query.SemanticTokens(c.Result().Root, normalizeURI(string(params.TextDocument.URI)))
	return &protocol.SemanticTokens{Data: encodeSemanticTokens(toks)}, nil
}

// encodeSemanticTokens converts toks (already in source order) into the LSP
// wire format: each token is five uint32s (deltaLine, deltaStartChar,
// length, tokenType, tokenModifiers) relative to the previous token on the
// same line, or to column zero on a new line.
func encodeSemanticTokens(toks []query.SemanticToken) []uint32 {
	data := make([]uint32, 0, len(toks)*5)
	prevLine, prevStart := 0, 0
	for _, t := range toks {
		line := t.Range.Start.Line - 1
		start := t.Range.Start.Col - 1
		length := t.Range.End.Col - t.Range.Start.Col

		deltaLine := line - prevLine
		deltaStart := start
		if deltaLine == 0 {
			deltaStart = start - prevStart
		}

		data = append(data, uint32(deltaLine), uint32(deltaStart), uint32(length), uint32(t.Type), 0)
		prevLine, prevStart = line, start
	}
	return data
}

func (h *handler) formatting(ctx *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	uri := string(params.TextDocument.URI)
	src, ok := h.bufferText(uri)
	if !ok {
		data, err := os.ReadFile(normalizeURI(uri))
		if err != nil {
			return nil, nil
		}
		src = string(data)
	}

	opts := formatOptions(params.Options)
	edit, ok := query.FormatTextEdits(normalizeURI(uri), src, opts)
	if !ok {
		return nil, nil
	}
	return []protocol.TextEdit{{
		Range:   fullDocumentRange(src),
		NewText: edit.NewText,
	}}, nil
}

func formatOptions(o protocol.FormattingOptions) query.FormatOptions {
	opts := query.FormatOptions{TabSize: 4, InsertSpaces: false, TrimTrailingWhitespace: true}
	if v, ok := o["tabSize"]; ok {
		if n, ok := toInt(v); ok {
			opts.TabSize = n
		}
	}
	if v, ok := o["insertSpaces"].(bool); ok {
		opts.InsertSpaces = v
	}
	if v, ok := o["trimTrailingWhitespace"].(bool); ok {
		opts.TrimTrailingWhitespace = v
	}
	return opts
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
