// Package stream adapts network connections to broadcast.Subscriber.
//
// WebSocket carries snapshots as text frames and heartbeats as ping control
// frames. SSE carries both as named events on a flushed response stream.
package stream
