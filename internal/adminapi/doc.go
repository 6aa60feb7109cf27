// Package adminapi is a JWT-bearer-guarded HTTP surface for introspecting
// and driving the contexts owned by an internal/dts/context.Manager: list
// contexts, inspect one, force a rebuild, tear one down, and pull its
// diagnostics or compiled devicetree output. It exists alongside the LSP
// transport for debugging a running server from curl or a browser rather
// than an editor.
package adminapi
