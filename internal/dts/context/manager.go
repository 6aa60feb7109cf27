package context

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/settings"
)

// Manager owns every Context for one server session: creating, rebuilding,
// and tearing them down, tracking which one is active, and notifying a
// wired-up transport (internal/lspserver) of the
// contextCreated/contextDeleted/newActiveContext/contextStable/
// activeContextStable/settingsChanged events from spec.md §6.
type Manager struct {
	mu       sync.Mutex
	settings settings.Settings
	contexts map[string]*Context
	order    []string
	activeID string
	nextID   uint64

	cache    cache.Store
	readFile func(uri string) (string, bool)
	watchers *watchSet

	// Notification hooks. Each defaults to a no-op; internal/lspserver
	// assigns these to push the corresponding LSP notification once it's
	// wired to a Manager.
	OnContextCreated      func(*Context)
	OnContextDeleted      func(id string)
	OnNewActiveContext    func(*Context)
	OnContextStable       func(*Context)
	OnActiveContextStable func(*Context)
	OnSettingsChanged     func(settings.Settings)

	// OnWatch/OnUnwatch are called as files transition into/out of being
	// referenced by at least one context, for a transport to register/
	// deregister client-side file watchers (didChangeWatchedFiles).
	OnWatch   func(uri string)
	OnUnwatch func(uri string)
}

// NewManager builds a Manager with the given default Settings and token
// cache. Pass cache.NewMemory() for an in-process-only cache, or a *cache.
// SQLite for one persisted across server restarts.
func NewManager(defaultSettings settings.Settings, c cache.Store) *Manager {
	m := &Manager{
		settings: defaultSettings.FillDefaults(),
		contexts: make(map[string]*Context),
		cache:    c,
		readFile: readFileFromDisk,
	}
	m.watchers = newWatchSet(
		func(uri string) {
			if m.OnWatch != nil {
				m.OnWatch(uri)
			}
		},
		func(uri string) {
			if m.OnUnwatch != nil {
				m.OnUnwatch(uri)
			}
		},
	)
	return m
}

func readFileFromDisk(uri string) (string, bool) {
	b, err := os.ReadFile(stripScheme(uri))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// SetDefaultSettings validates and replaces the Manager's default Settings,
// used by every context created afterward (existing contexts keep whatever
// Settings they were created or last rebuilt with). Fires
// OnSettingsChanged on success.
func (m *Manager) SetDefaultSettings(s settings.Settings) error {
	filled := s.FillDefaults()
	if err := filled.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = filled
	m.mu.Unlock()
	if m.OnSettingsChanged != nil {
		m.OnSettingsChanged(filled)
	}
	return nil
}

// AddContext creates and builds a new Context named name rooted at rootURI.
// overrides, if non-nil, replaces the Manager's default Settings for this
// context only.
func (m *Manager) AddContext(name, rootURI string, overrides *settings.Settings) (*Context, error) {
	s := m.defaultSettings()
	if overrides != nil {
		filled := overrides.FillDefaults()
		if err := filled.Validate(); err != nil {
			return nil, err
		}
		s = filled
	}

	id := fmt.Sprintf("ctx-%d", atomic.AddUint64(&m.nextID, 1))
	ctx := &Context{ID: id, Name: name, RootURI: rootURI, Settings: s}

	m.mu.Lock()
	m.contexts[id] = ctx
	m.order = append(m.order, id)
	first := len(m.order) == 1
	m.mu.Unlock()

	if m.OnContextCreated != nil {
		m.OnContextCreated(ctx)
	}
	if first {
		m.setActiveLocked(id)
	}

	m.rebuild(ctx)
	return ctx, nil
}

// RemoveContext tears down a context by ID, releasing its file watches. If
// it was active, no context is left active until the caller calls
// SetActive again.
func (m *Manager) RemoveContext(id string) error {
	m.mu.Lock()
	ctx, ok := m.contexts[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("no such context %q", id)
	}
	delete(m.contexts, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.activeID == id {
		m.activeID = ""
	}
	m.mu.Unlock()

	m.watchers.reconcile(ctx.Files(), nil)
	if m.OnContextDeleted != nil {
		m.OnContextDeleted(id)
	}
	return nil
}

// SetActive selects the active context by ID or by Name (ID checked first).
func (m *Manager) SetActive(idOrName string) (*Context, error) {
	m.mu.Lock()
	ctx, ok := m.contexts[idOrName]
	if !ok {
		for _, c := range m.contexts {
			if c.Name == idOrName {
				ctx, ok = c, true
				break
			}
		}
	}
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("no such context %q", idOrName)
	}
	m.activeID = ctx.ID
	m.mu.Unlock()

	if m.OnNewActiveContext != nil {
		m.OnNewActiveContext(ctx)
	}
	return ctx, nil
}

func (m *Manager) setActiveLocked(id string) {
	m.mu.Lock()
	m.activeID = id
	ctx := m.contexts[id]
	m.mu.Unlock()
	if ctx != nil && m.OnNewActiveContext != nil {
		m.OnNewActiveContext(ctx)
	}
}

// ActiveContext returns the currently active context, if any.
func (m *Manager) ActiveContext() (*Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeID == "" {
		return nil, false
	}
	ctx, ok := m.contexts[m.activeID]
	return ctx, ok
}

// GetContexts returns every live context, in creation order.
func (m *Manager) GetContexts() []*Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Context, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.contexts[id])
	}
	return out
}

// RequestContext is the idempotent create-or-return entry point for
// contexts: an existing context matched by id, or failing that by rootURI,
// is rebuilt from scratch and returned; otherwise a new context is created
// exactly as AddContext(name, rootURI, overrides) would, so calling it
// again with the same rootURI never creates a duplicate.
//
// id may be empty when the caller doesn't know a context's ID yet (e.g. a
// client opening a file for the first time). rootURI may be empty when the
// caller only wants to rebuild a context it already has the ID for; in
// that case a miss on id is an error rather than an attempt to create,
// since there's nothing to root a new context at.
func (m *Manager) RequestContext(id, name, rootURI string, overrides *settings.Settings) (*Context, error) {
	m.mu.Lock()
	if id != "" {
		if ctx, ok := m.contexts[id]; ok {
			m.mu.Unlock()
			m.rebuild(ctx)
			return ctx, nil
		}
		if rootURI == "" {
			m.mu.Unlock()
			return nil, fmt.Errorf("no such context %q", id)
		}
	}
	if rootURI != "" {
		for _, cid := range m.order {
			if ctx := m.contexts[cid]; ctx.RootURI == rootURI {
				m.mu.Unlock()
				m.rebuild(ctx)
				return ctx, nil
			}
		}
	}
	m.mu.Unlock()

	if rootURI == "" {
		return nil, fmt.Errorf("no such context %q", id)
	}
	return m.AddContext(name, rootURI, overrides)
}

func (m *Manager) defaultSettings() settings.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// rebuild runs ctx's pipeline to completion and publishes the result,
// reconciling file watches and firing the stable notifications. It never
// returns an error: pipeline failures become diagnostics on the context
// instead (a read failure on the root file, an unresolved include, a parse
// error), consistent with spec.md's "never abort the file" recovery stance.
func (m *Manager) rebuild(ctx *Context) {
	gen := ctx.beginRebuild()
	oldFiles := ctx.Files()

	b := newBuilder(ctx.Settings, m.readFile, m.cache)
	result, reg, diags, docURIs := b.build(ctx.RootURI)

	ctx.publish(result, reg, diags, docURIs, gen)
	m.watchers.reconcile(oldFiles, ctx.Files())

	if m.OnContextStable != nil {
		m.OnContextStable(ctx)
	}
	m.mu.Lock()
	isActive := m.activeID == ctx.ID
	m.mu.Unlock()
	if isActive && m.OnActiveContextStable != nil {
		m.OnActiveContextStable(ctx)
	}
}

// ResetCache drops every cached token entry. Nothing in this module calls
// it; no memory-threshold monitor is wired to it.
func (m *Manager) ResetCache() {
	if m.cache != nil {
		m.cache.Reset()
	}
}
