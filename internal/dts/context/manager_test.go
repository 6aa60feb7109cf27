package context

import (
	"testing"

	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeReadFile(files map[string]string) func(string) (string, bool) {
	return func(uri string) (string, bool) {
		c, ok := files[uri]
		return c, ok
	}
}

func Test_Manager_AddContext_splicesInclude(t *testing.T) {
	files := map[string]string{
		"/root.dts": `/include/ "/child.dtsi";
/ {
	compatible = "";
	model = "";
};
`,
		"/child.dtsi": `&{/} {
	extra = <1>;
};
`,
	}

	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	ctx, err := m.AddContext("root", "/root.dts", nil)
	require.NoError(t, err)
	require.True(t, ctx.Stable())

	root := ctx.Result().Root
	require.NotNil(t, root)
	_, hasExtra := root.Properties["extra"]
	assert.True(t, hasExtra, "property from spliced /include/ target should be merged into root")

	assert.ElementsMatch(t, []string{"/root.dts", "/child.dtsi"}, ctx.Files())
}

func Test_Manager_SetActive_byName(t *testing.T) {
	files := map[string]string{
		"/a.dts": `/ { compatible = ""; model = ""; };`,
		"/b.dts": `/ { compatible = ""; model = ""; };`,
	}
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	_, err := m.AddContext("a", "/a.dts", nil)
	require.NoError(t, err)
	_, err = m.AddContext("b", "/b.dts", nil)
	require.NoError(t, err)

	active, err := m.SetActive("a")
	require.NoError(t, err)
	assert.Equal(t, "a", active.Name)

	got, ok := m.ActiveContext()
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)
}

func Test_Manager_RemoveContext(t *testing.T) {
	files := map[string]string{"/a.dts": `/ { compatible = ""; model = ""; };`}
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	ctx, err := m.AddContext("a", "/a.dts", nil)
	require.NoError(t, err)

	require.NoError(t, m.RemoveContext(ctx.ID))
	assert.Empty(t, m.GetContexts())

	_, ok := m.ActiveContext()
	assert.False(t, ok)
}

func Test_Manager_missingRootFile_becomesDiagnostic(t *testing.T) {
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(map[string]string{})

	ctx, err := m.AddContext("missing", "/nope.dts", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ctx.Diagnostics())
}

func Test_Manager_RequestContext_createsWhenNoMatch(t *testing.T) {
	files := map[string]string{"/a.dts": `/ { compatible = ""; model = ""; };`}
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	ctx, err := m.RequestContext("", "a", "/a.dts", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", ctx.Name)
	assert.True(t, ctx.Stable())
	assert.Len(t, m.GetContexts(), 1)
}

func Test_Manager_RequestContext_isIdempotentByRootURI(t *testing.T) {
	files := map[string]string{"/a.dts": `/ { compatible = ""; model = ""; };`}
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	first, err := m.RequestContext("", "a", "/a.dts", nil)
	require.NoError(t, err)

	second, err := m.RequestContext("", "a", "/a.dts", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, m.GetContexts(), 1, "a second request for the same rootURI must not create a duplicate")
}

func Test_Manager_RequestContext_rebuildsByID(t *testing.T) {
	files := map[string]string{"/a.dts": `/ { compatible = ""; model = ""; };`}
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	ctx, err := m.AddContext("a", "/a.dts", nil)
	require.NoError(t, err)
	genBefore := ctx.Generation()

	rebuilt, err := m.RequestContext(ctx.ID, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, ctx.ID, rebuilt.ID)
	assert.Greater(t, rebuilt.Generation(), genBefore)
}

func Test_Manager_RequestContext_unknownIDWithoutRootURI_errors(t *testing.T) {
	m := NewManager(settings.Settings{}, cache.NewMemory())
	_, err := m.RequestContext("ctx-404", "", "", nil)
	assert.Error(t, err)
}

func Test_Manager_notifications_fire(t *testing.T) {
	files := map[string]string{"/a.dts": `/ { compatible = ""; model = ""; };`}
	m := NewManager(settings.Settings{}, cache.NewMemory())
	m.readFile = fakeReadFile(files)

	var created, stable, activeStable bool
	m.OnContextCreated = func(c *Context) { created = true }
	m.OnContextStable = func(c *Context) { stable = true }
	m.OnActiveContextStable = func(c *Context) { activeStable = true }

	_, err := m.AddContext("a", "/a.dts", nil)
	require.NoError(t, err)

	assert.True(t, created)
	assert.True(t, stable)
	assert.True(t, activeStable)
}
