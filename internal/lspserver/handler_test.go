package lspserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/settings"
)

func Test_contextForURI_findsOwningContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "root.dts")
	require.NoError(t, os.WriteFile(path, []byte(`/{model="vnd,board";};`), 0644))

	mgr := context.NewManager(settings.Settings{}, cache.NewMemory())
	ctx, err := mgr.AddContext("root", path, nil)
	require.NoError(t, err)

	h := newHandler(mgr)

	found, ok := h.contextForURI(path)
	require.True(t, ok)
	assert.Equal(t, ctx.ID, found.ID)

	_, ok = h.contextForURI(filepath.Join(dir, "missing.dts"))
	assert.False(t, ok)
}

func Test_bufferText_tracksOpenDocuments(t *testing.T) {
	mgr := context.NewManager(settings.Settings{}, cache.NewMemory())
	h := newHandler(mgr)

	_, ok := h.bufferText("/a.dts")
	assert.False(t, ok)

	h.setBuffer("file:///a.dts", "/{};")
	text, ok := h.bufferText("/a.dts")
	require.True(t, ok)
	assert.Equal(t, "/{};", text)
}
