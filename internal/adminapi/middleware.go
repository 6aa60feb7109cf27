package adminapi

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// requestIDHeader is echoed back on every response so a caller can
// correlate its request with the matching server log line.
const requestIDHeader = "X-Request-ID"

// requireAuth rejects any request whose bearer token doesn't validate
// against creds, with a fixed delay before responding so a brute-force
// attempt can't use response latency to learn anything.
func requireAuth(creds Credentials, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req.Header.Get("Authorization"))
		if err == nil {
			err = creds.validateToken(tok)
		}
		if err != nil {
			time.Sleep(250 * time.Millisecond)
			unauthorized(err.Error()).writeResponse(w)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// recoverPanic converts a panic in a handler into an HTTP-500 instead of
// taking down the listener.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				log.Printf("adminapi: panic: %v\n%s", p, debug.Stack())
				internalServerError(fmt.Sprintf("panic: %v", p)).writeResponse(w)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set(requestIDHeader, reqID)
		log.Printf("adminapi: [%s] %s %s", reqID, req.Method, req.URL.Path)
		next.ServeHTTP(w, req)
	})
}
