//
//
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/visitor-flow/vfc/internal/audit"
	"github.com/visitor-flow/vfc/internal/broadcast"
	"github.com/visitor-flow/vfc/internal/ingest"
	"github.com/visitor-flow/vfc/internal/stream"
)

// handleWebSocket handles GET /ws. Each text frame is a submission; the
// connection receives the current snapshot on connect and every snapshot
// published afterwards.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(s.maxMessageBytes())

	sub := stream.NewWebSocket(conn)
	ctx := audit.WithSource(r.Context(), sub.ID(), "ws")
	log := s.logger.WithFields(logrus.Fields{"subscriber": sub.ID(), "remote": r.RemoteAddr})

	if err := s.hub.Subscribe(ctx, sub, s.initialMessage(ctx)); err != nil {
		log.WithError(err).Warn("Failed to subscribe WebSocket client")
		_ = sub.Close()
		return
	}
	log.Info("WebSocket client connected")

	s.readSubmissions(ctx, sub, log)
}

// readSubmissions runs the per-connection read loop. Submissions are handled
// to completion, publish included, before the next frame is read.
func (s *Server) readSubmissions(ctx context.Context, sub *stream.WebSocket, log *logrus.Entry) {
	conn := sub.Conn()
	burst := s.ingress.Burst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(s.ingressLimit(), burst)

	if s.heartbeat > 0 {
		readWait := 3 * s.heartbeat
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
	}

	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			var cause error
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				cause = err
			}
			if s.hub.Unsubscribe(sub.ID(), cause) {
				log.Info("WebSocket client disconnected")
			}
			return
		}
		if s.heartbeat > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(3 * s.heartbeat))
		}

		if kind != websocket.TextMessage {
			s.ingest.Reject(ctx, fmt.Errorf("%w: binary frame", ingest.ErrMalformed))
			continue
		}
		if !limiter.Allow() {
			s.ingest.Reject(ctx, ingest.ErrRateLimited)
			continue
		}

		if _, err := s.ingest.Submit(ctx, payload); err != nil && !errors.Is(err, ingest.ErrMalformed) {
			log.WithError(err).Warn("Submission failed")
		}
	}
}

// handleStream handles GET /api/v1/stream (SSE).
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sub, err := stream.NewSSE(w)
	if err != nil {
		WriteAPIError(w, err)
		return
	}

	ctx := r.Context()
	if err := s.hub.Subscribe(ctx, sub, s.initialMessage(ctx)); err != nil {
		s.logger.WithError(err).WithField("subscriber", sub.ID()).Warn("Failed to subscribe SSE client")
		return
	}

	select {
	case <-ctx.Done():
		s.hub.Unsubscribe(sub.ID(), nil)
	case <-sub.Done():
	}
}

func (s *Server) initialMessage(ctx context.Context) *broadcast.Message {
	msg, err := s.ingest.CurrentMessage(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode initial snapshot")
		return nil
	}
	return &msg
}

func (s *Server) ingressLimit() rate.Limit {
	if s.ingress.RatePerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(s.ingress.RatePerSecond)
}
