package lspserver

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	"github.com/tliron/glsp/server"

	"github.com/dkrn/dts-ls/internal/dts/context"
)

const serverName = "dts-ls"

// Server is the JSON-RPC front end for one context.Manager.
type Server struct {
	h       *handler
	glspSrv *server.Server
}

// NewServer builds a Server over mgr. verbosity is forwarded to
// commonlog.Configure (0 disables logging, higher values are noisier);
// logFile, if non-nil, is the path commonlog writes to instead of stderr.
func NewServer(mgr *context.Manager, verbosity int, logFile *string) *Server {
	commonlog.Configure(verbosity, logFile)

	h := newHandler(mgr)
	srv := &Server{h: h}
	srv.glspSrv = server.NewServer(&dispatcher{h: h}, serverName, false)
	h.wireNotifications(srv)
	return srv
}

// RunStdio serves over stdin/stdout, the transport every LSP client expects
// by default.
func (s *Server) RunStdio() error {
	return s.glspSrv.RunStdio()
}

// dispatcher implements glsp.Handler: custom requests from spec.md §6 are
// tried first by method name, everything else falls through to the
// generated protocol.Handler dispatch built in handler.go.
type dispatcher struct {
	h *handler
}

func (d *dispatcher) Handle(ctx *glsp.Context, req *glsp.Request) (result any, validMethod bool, validParams bool, err error) {
	if fn, ok := d.h.custom[req.Method]; ok {
		result, err = fn(ctx, req.Params)
		return result, true, true, err
	}
	return d.h.protocol.Handle(ctx, req)
}
