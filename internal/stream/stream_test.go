//
//
package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitor-flow/vfc/internal/broadcast"
)

// wsPair starts a server that hands its side of the connection to the test.
func wsPair(t *testing.T) (*WebSocket, *websocket.Conn) {
	t.Helper()

	serverSide := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-serverSide:
		return NewWebSocket(conn), client
	case <-time.After(2 * time.Second):
		t.Fatal("server side of websocket not established")
		return nil, nil
	}
}

func TestWebSocketSendStats(t *testing.T) {
	sub, client := wsPair(t)
	assert.True(t, strings.HasPrefix(sub.ID(), "ws-"))

	msg := broadcast.Message{Type: broadcast.TypeStats, Data: []byte(`{"total_visitors":4}`)}
	require.NoError(t, sub.Send(context.Background(), msg))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	assert.JSONEq(t, `{"total_visitors":4}`, string(data))
}

func TestWebSocketHeartbeatIsPing(t *testing.T) {
	sub, client := wsPair(t)

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		pinged <- struct{}{}
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	require.NoError(t, sub.Send(context.Background(), broadcast.Heartbeat(time.Now())))

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("expected ping frame")
	}
}

func TestWebSocketClose(t *testing.T) {
	sub, client := wsPair(t)

	require.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	err := sub.Send(context.Background(), broadcast.Message{Type: broadcast.TypeStats, Data: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrClosed)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = client.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestWebSocketSendCancelled(t *testing.T) {
	sub, _ := wsPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sub.Send(ctx, broadcast.Message{Type: broadcast.TypeStats, Data: []byte(`{}`)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSSEFraming(t *testing.T) {
	rec := httptest.NewRecorder()
	sub, err := NewSSE(rec)
	require.NoError(t, err)

	assert.Equal(t, "text/event-stream; charset=utf-8", rec.Header().Get("Content-Type"))

	require.NoError(t, sub.Send(context.Background(), broadcast.Message{Type: broadcast.TypeStats, Data: []byte(`{"total_visitors":1}`)}))
	require.NoError(t, sub.Send(context.Background(), broadcast.Heartbeat(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))

	want := "id: 1\nevent: stats\ndata: {\"total_visitors\":1}\n\n" +
		"id: 2\nevent: heartbeat\ndata: {\"ts\":\"2025-01-01T00:00:00Z\"}\n\n"
	assert.Equal(t, want, rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestSSEClose(t *testing.T) {
	sub, err := NewSSE(httptest.NewRecorder())
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case <-sub.Done():
	default:
		t.Fatal("Done not closed")
	}
	assert.ErrorIs(t, sub.Send(context.Background(), broadcast.Message{Type: broadcast.TypeStats}), ErrClosed)
}

type plainWriter struct{ http.ResponseWriter }

func TestSSERequiresFlusher(t *testing.T) {
	_, err := NewSSE(plainWriter{httptest.NewRecorder()})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}
