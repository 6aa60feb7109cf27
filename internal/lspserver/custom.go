package lspserver

import (
	"encoding/json"
	"fmt"

	"github.com/tliron/glsp"

	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/query"
	"github.com/dkrn/dts-ls/internal/dts/settings"
)

type idParams struct {
	ID string `json:"id"`
}

// requestContextParams identifies a context either by an ID the client
// already has, or by Name/RootURI to create (or find) one. ID takes
// priority when both are given.
type requestContextParams struct {
	ID       string             `json:"id,omitempty"`
	Name     string             `json:"name,omitempty"`
	RootURI  string             `json:"rootUri,omitempty"`
	Settings *settings.Settings `json:"settings,omitempty"`
}

type idOrNameParams struct {
	IDOrName string `json:"idOrName"`
}

type positionParams struct {
	URI  string `json:"uri"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func contextSummaryJSON(c *context.Context) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"name":            c.Name,
		"rootUri":         c.RootURI,
		"generation":      c.Generation(),
		"stable":          c.Stable(),
		"files":           c.Files(),
		"diagnosticCount": len(c.Diagnostics()),
	}
}

func (h *handler) cSetDefaultSettings(ctx *glsp.Context, raw []byte) (any, error) {
	var s settings.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if err := h.mgr.SetDefaultSettings(s); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *handler) cGetContexts(ctx *glsp.Context, raw []byte) (any, error) {
	ctxs := h.mgr.GetContexts()
	out := make([]map[string]any, len(ctxs))
	for i, c := range ctxs {
		out[i] = contextSummaryJSON(c)
	}
	return out, nil
}

func (h *handler) cSetActive(ctx *glsp.Context, raw []byte) (any, error) {
	var p idOrNameParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, err := h.mgr.SetActive(p.IDOrName)
	if err != nil {
		return nil, err
	}
	return contextSummaryJSON(c), nil
}

func (h *handler) cGetActiveContext(ctx *glsp.Context, raw []byte) (any, error) {
	c, ok := h.mgr.ActiveContext()
	if !ok {
		return nil, nil
	}
	return contextSummaryJSON(c), nil
}

// cRequestContext is the idempotent create-or-return requestContext
// request: a known ID is rebuilt and returned, a known rootUri's existing
// context is rebuilt and returned, and anything else creates a new
// context, so a client can call this unconditionally when opening a file
// without first checking whether a context for it already exists.
func (h *handler) cRequestContext(ctx *glsp.Context, raw []byte) (any, error) {
	var p requestContextParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, err := h.mgr.RequestContext(p.ID, p.Name, p.RootURI, p.Settings)
	if err != nil {
		return nil, err
	}
	return contextSummaryJSON(c), nil
}

func (h *handler) cRemoveContext(ctx *glsp.Context, raw []byte) (any, error) {
	var p idParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return nil, h.mgr.RemoveContext(p.ID)
}

func (h *handler) contextByID(id string) (*context.Context, bool) {
	for _, c := range h.mgr.GetContexts() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (h *handler) cCompiledDTSOutput(ctx *glsp.Context, raw []byte) (any, error) {
	var p idParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextByID(p.ID)
	if !ok {
		return nil, fmt.Errorf("no such context %q", p.ID)
	}
	return query.CompiledDTSOutput(c.Result().Root), nil
}

func (h *handler) cSerializedContext(ctx *glsp.Context, raw []byte) (any, error) {
	var p idParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextByID(p.ID)
	if !ok {
		return nil, fmt.Errorf("no such context %q", p.ID)
	}
	return query.SerializedContext(c)
}

func (h *handler) cActivePath(ctx *glsp.Context, raw []byte) (any, error) {
	var p positionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextForURI(p.URI)
	if !ok {
		return nil, nil
	}
	path, ok := query.ActivePath(c.Result().Root, normalizeURI(p.URI), posFromLineCol(p))
	if !ok {
		return nil, nil
	}
	return path, nil
}

func (h *handler) cCustomActions(ctx *glsp.Context, raw []byte) (any, error) {
	var p positionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextForURI(p.URI)
	if !ok {
		return nil, nil
	}
	return query.CustomActions(c.Result().Root, normalizeURI(p.URI), posFromLineCol(p)), nil
}

func (h *handler) cActiveFileURI(ctx *glsp.Context, raw []byte) (any, error) {
	c, ok := h.mgr.ActiveContext()
	if !ok {
		return nil, nil
	}
	files := c.Files()
	if len(files) == 0 {
		return nil, nil
	}
	return files[0], nil
}

type evalMacrosParams struct {
	ID    string   `json:"id"`
	Names []string `json:"names"`
}

func (h *handler) cEvalMacros(ctx *glsp.Context, raw []byte) (any, error) {
	var p evalMacrosParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextByID(p.ID)
	if !ok {
		return nil, fmt.Errorf("no such context %q", p.ID)
	}
	return query.EvalMacros(c.MacroRegistry(), p.Names), nil
}

func (h *handler) cMemoryViews(ctx *glsp.Context, raw []byte) (any, error) {
	var p idParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextByID(p.ID)
	if !ok {
		return nil, fmt.Errorf("no such context %q", p.ID)
	}
	return query.MemoryViews(c.Result().Root), nil
}

type zephyrBindingsParams struct {
	SearchPaths []string `json:"searchPaths"`
}

func (h *handler) cZephyrTypeBindings(ctx *glsp.Context, raw []byte) (any, error) {
	var p zephyrBindingsParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return query.ZephyrTypeBindings(p.SearchPaths), nil
}

func (h *handler) cContextMacroNames(ctx *glsp.Context, raw []byte) (any, error) {
	var p idParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextByID(p.ID)
	if !ok {
		return nil, fmt.Errorf("no such context %q", p.ID)
	}
	return query.ContextMacroNames(c.MacroRegistry()), nil
}

func (h *handler) cLocationScopeInformation(ctx *glsp.Context, raw []byte) (any, error) {
	var p positionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	c, ok := h.contextForURI(p.URI)
	if !ok {
		return nil, nil
	}
	scope, ok := query.LocationScopeInformation(c.Result().Root, normalizeURI(p.URI), posFromLineCol(p))
	if !ok {
		return nil, nil
	}
	return scope, nil
}

type formatTextEditsParams struct {
	URI                    string `json:"uri"`
	Source                 string `json:"source"`
	TabSize                int    `json:"tabSize"`
	InsertSpaces           bool   `json:"insertSpaces"`
	TrimTrailingWhitespace bool   `json:"trimTrailingWhitespace"`
}

func (h *handler) cFormatTextEdits(ctx *glsp.Context, raw []byte) (any, error) {
	var p formatTextEditsParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	opts := query.FormatOptions{
		TabSize:                p.TabSize,
		InsertSpaces:           p.InsertSpaces,
		TrimTrailingWhitespace: p.TrimTrailingWhitespace,
	}
	edit, ok := query.FormatTextEdits(normalizeURI(p.URI), p.Source, opts)
	if !ok {
		return nil, fmt.Errorf("%q did not parse", p.URI)
	}
	return edit, nil
}
