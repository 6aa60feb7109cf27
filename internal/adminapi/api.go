package adminapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/query"
)

// API wires an internal/dts/context.Manager up to the admin HTTP surface.
type API struct {
	Manager *context.Manager
	Creds   Credentials
}

// Router builds the chi router for the admin surface. Every route under
// /contexts requires a valid bearer token; /login does not.
func (a API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverPanic, logRequest)

	r.Post("/login", a.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return requireAuth(a.Creds, next) })

		r.Get("/contexts", a.handleListContexts)
		r.Post("/contexts", a.handleRequestContext)
		r.Get("/contexts/{id}", a.handleGetContext)
		r.Post("/contexts/{id}/rebuild", a.handleRebuildContext)
		r.Delete("/contexts/{id}", a.handleDeleteContext)
		r.Get("/contexts/{id}/diagnostics", a.handleDiagnostics)
		r.Get("/contexts/{id}/compiled", a.handleCompiled)
	})

	return r
}

type loginRequest struct {
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (a API) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := decodeJSON(req, &body); err != nil {
		badRequest(err.Error()).writeResponse(w)
		return
	}
	if body.Secret == "" || !a.Creds.checkSecret(body.Secret) {
		time.Sleep(250 * time.Millisecond)
		unauthorized("invalid admin secret").writeResponse(w)
		return
	}

	tok, err := a.Creds.issueToken()
	if err != nil {
		internalServerError("could not generate token: " + err.Error()).writeResponse(w)
		return
	}
	created(loginResponse{Token: tok}).writeResponse(w)
}

type contextSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	RootURI    string   `json:"rootUri"`
	Generation uint64   `json:"generation"`
	Stable     bool     `json:"stable"`
	Files      []string `json:"files"`
	Diagnostic int      `json:"diagnosticCount"`
}

func summarize(ctx *context.Context) contextSummary {
	return contextSummary{
		ID:         ctx.ID,
		Name:       ctx.Name,
		RootURI:    ctx.RootURI,
		Generation: ctx.Generation(),
		Stable:     ctx.Stable(),
		Files:      ctx.Files(),
		Diagnostic: len(ctx.Diagnostics()),
	}
}

func (a API) handleListContexts(w http.ResponseWriter, req *http.Request) {
	ctxs := a.Manager.GetContexts()
	out := make([]contextSummary, len(ctxs))
	for i, c := range ctxs {
		out[i] = summarize(c)
	}
	ok(out).writeResponse(w)
}

func (a API) findContext(id string) (*context.Context, bool) {
	for _, c := range a.Manager.GetContexts() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (a API) handleGetContext(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	c, found := a.findContext(id)
	if !found {
		notFound().writeResponse(w)
		return
	}
	ok(summarize(c)).writeResponse(w)
}

func (a API) handleRebuildContext(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	c, err := a.Manager.RequestContext(id, "", "", nil)
	if err != nil {
		notFound().writeResponse(w)
		return
	}
	ok(summarize(c)).writeResponse(w)
}

type requestContextRequest struct {
	Name    string `json:"name"`
	RootURI string `json:"rootUri"`
}

// handleRequestContext is the idempotent create-or-return entry point for
// contexts over the admin API: POSTing the same rootUri twice returns the
// same context rather than creating a duplicate.
func (a API) handleRequestContext(w http.ResponseWriter, req *http.Request) {
	var body requestContextRequest
	if err := decodeJSON(req, &body); err != nil {
		badRequest(err.Error()).writeResponse(w)
		return
	}
	if body.RootURI == "" {
		badRequest("rootUri is required").writeResponse(w)
		return
	}
	c, err := a.Manager.RequestContext("", body.Name, body.RootURI, nil)
	if err != nil {
		internalServerError(err.Error()).writeResponse(w)
		return
	}
	created(summarize(c)).writeResponse(w)
}

func (a API) handleDeleteContext(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	if err := a.Manager.RemoveContext(id); err != nil {
		notFound().writeResponse(w)
		return
	}
	noContent().writeResponse(w)
}

type diagnosticModel struct {
	Severity string `json:"severity"`
	Range    string `json:"range"`
	Message  string `json:"message"`
}

func (a API) handleDiagnostics(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	c, found := a.findContext(id)
	if !found {
		notFound().writeResponse(w)
		return
	}
	diags := c.Diagnostics()
	out := make([]diagnosticModel, len(diags))
	for i, d := range diags {
		out[i] = diagnosticModel{
			Severity: d.Severity.String(),
			Range:    d.Range.String(),
			Message:  d.Message(),
		}
	}
	ok(out).writeResponse(w)
}

type compiledResponse struct {
	Source string `json:"source"`
}

func (a API) handleCompiled(w http.ResponseWriter, req *http.Request) {
	id := chi.URLParam(req, "id")
	c, found := a.findContext(id)
	if !found {
		notFound().writeResponse(w)
		return
	}
	root := c.Result().Root
	if root == nil {
		ok(compiledResponse{}).writeResponse(w)
		return
	}
	ok(compiledResponse{Source: query.CompiledDTSOutput(root)}).writeResponse(w)
}
