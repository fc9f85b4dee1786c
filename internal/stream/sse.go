//
//
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/visitor-flow/vfc/internal/broadcast"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("STREAMING_UNSUPPORTED")

// SSE is a broadcast subscriber writing Server-Sent Events to an HTTP response.
type SSE struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController

	mu     sync.Mutex // protects w
	closed bool
	nextID int64
	done   chan struct{}
}

// NewSSE writes the event-stream headers and returns the subscriber.
func NewSSE(w http.ResponseWriter) (*SSE, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSE{
		id:      "sse-" + uuid.NewString(),
		w:       w,
		flusher: flusher,
		rc:      http.NewResponseController(w),
		done:    make(chan struct{}),
	}, nil
}

// ID implements broadcast.Subscriber.
func (s *SSE) ID() string { return s.id }

// Done is closed when the subscriber is closed.
func (s *SSE) Done() <-chan struct{} { return s.done }

// Send implements broadcast.Subscriber.
func (s *SSE) Send(ctx context.Context, msg broadcast.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Not every writer supports deadlines (httptest.ResponseRecorder does not).
	_ = s.rc.SetWriteDeadline(writeDeadline(ctx))

	s.nextID++
	if _, err := fmt.Fprintf(s.w, "id: %d\n", s.nextID); err != nil {
		return fmt.Errorf("failed to write event ID: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\n", msg.Type); err != nil {
		return fmt.Errorf("failed to write event type: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", msg.Data); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	s.flusher.Flush()
	return nil
}

// Close marks the stream closed and releases the handler waiting on Done.
func (s *SSE) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

var _ broadcast.Subscriber = (*SSE)(nil)
