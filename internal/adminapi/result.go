package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// result is a handler's outcome, built by one of the constructors below and
// written out by writeResponse. Keeping response-building as a value rather
// than writing directly to the ResponseWriter lets a handler return early
// without worrying about partial writes.
type result struct {
	status int
	isErr  bool
	body   interface{}
	hdrs   [][2]string
}

func ok(body interface{}) result {
	return result{status: http.StatusOK, body: body}
}

func created(body interface{}) result {
	return result{status: http.StatusCreated, body: body}
}

func noContent() result {
	return result{status: http.StatusNoContent}
}

func errResult(status int, userMsg string) result {
	return result{status: status, isErr: true, body: errorBody{Error: userMsg, Status: status}}
}

func badRequest(userMsg string) result {
	return errResult(http.StatusBadRequest, userMsg)
}

func notFound() result {
	return errResult(http.StatusNotFound, "the requested context was not found")
}

func unauthorized(userMsg string) result {
	if userMsg == "" {
		userMsg = "you are not authorized to do that"
	}
	return errResult(http.StatusUnauthorized, userMsg).withHeader("WWW-Authenticate", `Bearer realm="dts-ls admin"`)
}

func internalServerError(userMsg string) result {
	return errResult(http.StatusInternalServerError, userMsg)
}

func (r result) withHeader(name, val string) result {
	r.hdrs = append(append([][2]string{}, r.hdrs...), [2]string{name, val})
	return r
}

func (r result) writeResponse(w http.ResponseWriter) {
	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}

	if r.status == http.StatusNoContent {
		w.WriteHeader(r.status)
		return
	}

	respJSON, err := json.Marshal(r.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":"could not marshal response","status":500}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(r.status)
	w.Write(respJSON)
}
