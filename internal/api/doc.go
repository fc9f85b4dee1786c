// Package api implements the HTTP surface of the visitor flow service.
//
// The WebSocket endpoint is the duplex channel: clients submit events on it and
// receive every recomputed snapshot. SSE and the pull endpoint expose the same
// snapshots read-only, and POST /api/v1/events is the request/response ingest
// path for clients that cannot hold a socket open.
package api
