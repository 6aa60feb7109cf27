package lspserver

import (
	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/settings"
)

// wireNotifications hooks mgr's On* callbacks (spec.md §6's
// contextCreated/contextDeleted/newActiveContext/contextStable/
// activeContextStable/settingsChanged) to client-bound LSP notifications.
// Hooks fire on the manager's own goroutine, so notify must not block.
func (h *handler) wireNotifications(srv *Server) {
	mgr := h.mgr

	mgr.OnContextCreated = func(c *context.Context) {
		h.notify("contextCreated", contextSummaryJSON(c))
	}
	mgr.OnContextDeleted = func(id string) {
		h.notify("contextDeleted", map[string]any{"id": id})
	}
	mgr.OnNewActiveContext = func(c *context.Context) {
		h.notify("newActiveContext", contextSummaryJSON(c))
	}
	mgr.OnContextStable = func(c *context.Context) {
		h.notify("contextStable", contextSummaryJSON(c))
	}
	mgr.OnActiveContextStable = func(c *context.Context) {
		h.notify("activeContextStable", contextSummaryJSON(c))
	}
	mgr.OnSettingsChanged = func(s settings.Settings) {
		h.notify("settingsChanged", s)
	}

	// OnWatch/OnUnwatch fire as files transition into/out of being
	// referenced by at least one context; forward them as custom
	// notifications so a client can register/deregister its own
	// didChangeWatchedFiles subscriptions. The handler's watched set
	// collapses the manager's potential repeat calls for the same URI
	// into a single notification per actual state transition.
	mgr.OnWatch = func(uri string) {
		if h.markWatched(uri) {
			h.notify("watchFile", map[string]any{"uri": uri})
		}
	}
	mgr.OnUnwatch = func(uri string) {
		if h.clearWatched(uri) {
			h.notify("unwatchFile", map[string]any{"uri": uri})
		}
	}
}

func (h *handler) notify(method string, params any) {
	h.clientMu.Lock()
	client := h.client
	h.clientMu.Unlock()
	if client == nil {
		return
	}
	client.Notify(method, params)
}
