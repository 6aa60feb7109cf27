package adminapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/settings"
)

func newTestAPI(t *testing.T) (API, *context.Context) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "root.dts")
	require.NoError(t, os.WriteFile(path, []byte(`/{model="vnd,board";};`), 0644))

	mgr := context.NewManager(settings.Settings{}, cache.NewMemory())
	ctx, err := mgr.AddContext("root", path, nil)
	require.NoError(t, err)

	hash, err := HashSecret("s3cret")
	require.NoError(t, err)

	api := API{
		Manager: mgr,
		Creds:   Credentials{SecretHash: hash, JWTSecret: []byte("test-signing-key")},
	}
	return api, ctx
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Test_API_contextsRequireAuth(t *testing.T) {
	api, _ := newTestAPI(t)
	rec := doJSON(t, api.Router(), http.MethodGet, "/contexts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_API_loginThenListContexts(t *testing.T) {
	api, ctx := newTestAPI(t)
	router := api.Router()

	rec := doJSON(t, router, http.MethodPost, "/login", "", loginRequest{Secret: "s3cret"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var login loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = doJSON(t, router, http.MethodGet, "/contexts", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []contextSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, ctx.ID, summaries[0].ID)
}

func Test_API_loginRejectsWrongSecret(t *testing.T) {
	api, _ := newTestAPI(t)
	rec := doJSON(t, api.Router(), http.MethodPost, "/login", "", loginRequest{Secret: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_API_getCompiledOutput(t *testing.T) {
	api, ctx := newTestAPI(t)
	router := api.Router()

	rec := doJSON(t, router, http.MethodPost, "/login", "", loginRequest{Secret: "s3cret"})
	var login loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = doJSON(t, router, http.MethodGet, "/contexts/"+ctx.ID+"/compiled", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp compiledResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Source, `model = "vnd,board";`)
}

func Test_API_deleteUnknownContext_notFound(t *testing.T) {
	api, _ := newTestAPI(t)
	router := api.Router()

	rec := doJSON(t, router, http.MethodPost, "/login", "", loginRequest{Secret: "s3cret"})
	var login loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = doJSON(t, router, http.MethodDelete, "/contexts/nope", login.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
