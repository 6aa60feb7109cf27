// Package cache implements the context manager's content-addressed token
// cache (spec.md §5: "caches are content-hash-keyed, immutable-after-
// publication"). Only the lex stage is cached — preprocessing and parsing
// are cheap relative to disk I/O and lexing, and re-running them over a
// cached token slice costs far less than re-reading and re-lexing an
// unchanged file on every keystroke in a different included file.
package cache

import (
	"sync"

	"github.com/dkrn/dts-ls/internal/dts/token"
)

// Store is a content-hash-keyed token cache. Entries are immutable once
// published: a writer publishes a whole new entry under a new hash rather
// than mutating one in place, so readers never need a lock beyond the map
// lookup itself.
type Store interface {
	GetTokens(hash string) ([]token.Token, bool)
	PutTokens(hash string, toks []token.Token)

	// Reset drops every cached entry (see Manager.ResetCache).
	Reset()
}

// Memory is an in-process Store backed by a plain map. It's the default
// Store for a Manager that isn't configured with a persistence directory.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]token.Token
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]token.Token)}
}

func (m *Memory) GetTokens(hash string) ([]token.Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	toks, ok := m.entries[hash]
	return toks, ok
}

func (m *Memory) PutTokens(hash string, toks []token.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash] = toks
}

func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]token.Token)
}

var _ Store = (*Memory)(nil)
