//
//
package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/visitor-flow/vfc/internal/broadcast"
)

// DefaultWriteWait bounds a write when the context carries no deadline.
const DefaultWriteWait = 5 * time.Second

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("SUBSCRIBER_CLOSED")

// WebSocket is a broadcast subscriber backed by a WebSocket connection.
// Writes are serialised; reads belong to the caller's read loop.
type WebSocket struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

// NewWebSocket wraps conn with a fresh subscriber id.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{
		id:   "ws-" + uuid.NewString(),
		conn: conn,
	}
}

// ID implements broadcast.Subscriber.
func (s *WebSocket) ID() string { return s.id }

// Conn returns the underlying connection.
func (s *WebSocket) Conn() *websocket.Conn { return s.conn }

// Send implements broadcast.Subscriber.
func (s *WebSocket) Send(ctx context.Context, msg broadcast.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := writeDeadline(ctx)
	if msg.Type == broadcast.TypeHeartbeat {
		if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return fmt.Errorf("failed to write ping: %w", err)
		}
		return nil
	}

	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
		return fmt.Errorf("failed to write %s message: %w", msg.Type, err)
	}
	return nil
}

// Close sends a normal closure frame and closes the connection. Safe to call
// more than once.
func (s *WebSocket) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, closing, time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

func writeDeadline(ctx context.Context) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}
	return time.Now().Add(DefaultWriteWait)
}

var _ broadcast.Subscriber = (*WebSocket)(nil)
