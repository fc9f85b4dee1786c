//
//
package api

import (
	"context"

	"github.com/visitor-flow/vfc/internal/broadcast"
	"github.com/visitor-flow/vfc/internal/ingest"
	"github.com/visitor-flow/vfc/internal/stats"
)

// IngestPort defines the minimal interface the API needs from the ingest service.
type IngestPort interface {
	Submit(ctx context.Context, payload []byte) (stats.Snapshot, error)
	Reject(ctx context.Context, reason error)
	Current(ctx context.Context) stats.Snapshot
	CurrentMessage(ctx context.Context) (broadcast.Message, error)
}

// HubPort defines the minimal interface the API needs from the broadcast hub.
type HubPort interface {
	Subscribe(ctx context.Context, sub broadcast.Subscriber, initial *broadcast.Message) error
	Unsubscribe(id string, cause error) bool
	Connected() int
}

// Compile-time assertions for port conformance
var _ IngestPort = (*ingest.Service)(nil)
var _ HubPort = (*broadcast.Hub)(nil)
