// File: endpoint/doc.go
// Author: momentics <momentics@gmail.com>

// Package endpoint wraps sockets with per-type event state machines: plain
// and ancillary-aware UDP, TCP accept listeners with a pooled set of
// connection handlers, local (IPC) stream endpoints, and raw descriptors
// that only forward readiness upward. On every completed unit of I/O the
// endpoint invokes its registered callback with a status and a reusable
// reply context; the callback's boolean return decides between an
// immediate reply and releasing the endpoint.
//
// Endpoints belong to exactly one reactor.Base and therefore to exactly
// one dispatch goroutine. Nothing here is safe for concurrent use.
package endpoint
