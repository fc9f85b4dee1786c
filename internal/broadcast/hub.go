//
//
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visitor-flow/vfc/internal/config"
	"github.com/visitor-flow/vfc/internal/metrics"
)

var (
	// ErrDuplicate is returned when a subscriber id is already registered.
	ErrDuplicate = errors.New("DUPLICATE_SUBSCRIBER")
	// ErrStopped is returned by Subscribe after Stop.
	ErrStopped = errors.New("HUB_STOPPED")
)

// Subscriber is one outbound channel.
type Subscriber interface {
	ID() string
	// Send delivers msg or fails; it must honour ctx's deadline.
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Report summarises one Publish call.
type Report struct {
	Delivered int
	Failed    int
}

// DisconnectFunc observes a subscriber leaving the set.
type DisconnectFunc func(id string, state State, cause error)

type member struct {
	sub   Subscriber
	state State
}

// Hub manages the subscriber set.
//
// h.mu guards members and the heartbeat fields. It is never held while calling
// into a Subscriber.
type Hub struct {
	mu      sync.RWMutex
	members map[string]*member

	config     config.HubConfig
	logger     *logrus.Logger
	onLeave    DisconnectFunc
	now        func() time.Time
	stopBeat   chan struct{}
	heartbeats bool

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// OnDisconnect registers an observer for subscriber removal.
func OnDisconnect(fn DisconnectFunc) Option {
	return func(h *Hub) { h.onLeave = fn }
}

// NewHub creates a hub. A zero heartbeat interval disables heartbeats.
func NewHub(cfg config.HubConfig, opts ...Option) *Hub {
	h := &Hub{
		members: make(map[string]*member),
		config:  cfg,
		logger:  logrus.StandardLogger(),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers sub. If initial is non-nil it is sent before the
// subscriber becomes CONNECTED; a failed initial send removes it again.
func (h *Hub) Subscribe(ctx context.Context, sub Subscriber, initial *Message) error {
	id := sub.ID()

	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return ErrStopped
	default:
	}
	if _, exists := h.members[id]; exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	h.members[id] = &member{sub: sub, state: StateConnecting}
	h.mu.Unlock()

	if initial != nil {
		if err := h.send(ctx, sub, *initial); err != nil {
			h.Unsubscribe(id, err)
			return fmt.Errorf("failed to send initial message: %w", err)
		}
	}

	h.mu.Lock()
	m, exists := h.members[id]
	if !exists {
		// Unsubscribed while the initial message was in flight.
		h.mu.Unlock()
		return nil
	}
	m.state = StateConnected
	count := len(h.members)
	if !h.heartbeats && h.config.HeartbeatInterval > 0 {
		h.startHeartbeat()
	}
	h.mu.Unlock()

	metrics.Subscribers.Inc()
	h.logger.WithFields(logrus.Fields{
		"subscriber":  id,
		"subscribers": count,
	}).Debug("Subscriber connected")

	return nil
}

// Unsubscribe removes id from the set. A nil cause is a clean disconnect.
// It reports whether this call performed the removal.
func (h *Hub) Unsubscribe(id string, cause error) bool {
	h.mu.Lock()
	m, exists := h.members[id]
	if !exists {
		h.mu.Unlock()
		return false
	}
	delete(h.members, id)
	wasConnected := m.state == StateConnected
	m.state = StateDisconnectedClean
	if cause != nil {
		m.state = StateDisconnectedError
	}
	if len(h.members) == 0 {
		h.stopHeartbeatLocked()
	}
	h.mu.Unlock()

	if wasConnected {
		metrics.Subscribers.Dec()
	}
	if err := m.sub.Close(); err != nil {
		h.logger.WithError(err).WithField("subscriber", id).Debug("Subscriber close failed")
	}

	entry := h.logger.WithFields(logrus.Fields{"subscriber": id, "state": m.state.String()})
	if cause != nil {
		entry.WithError(cause).Info("Subscriber removed")
	} else {
		entry.Debug("Subscriber disconnected")
	}

	if h.onLeave != nil {
		h.onLeave(id, m.state, cause)
	}
	return true
}

// Publish sends msg to every CONNECTED subscriber. Subscribers whose send
// fails are removed; the remaining ones still receive msg.
func (h *Hub) Publish(ctx context.Context, msg Message) Report {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.members))
	for _, m := range h.members {
		if m.state == StateConnected {
			targets = append(targets, m.sub)
		}
	}
	h.mu.RUnlock()

	var report Report
	for _, sub := range targets {
		select {
		case <-h.done:
			return report
		default:
		}

		if err := h.send(ctx, sub, msg); err != nil {
			report.Failed++
			metrics.Deliveries.WithLabelValues("failed").Inc()
			h.Unsubscribe(sub.ID(), err)
			continue
		}
		report.Delivered++
		metrics.Deliveries.WithLabelValues("delivered").Inc()
	}

	return report
}

// State returns the state of a registered subscriber, or StateUnknown.
func (h *Hub) State(id string) State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if m, exists := h.members[id]; exists {
		return m.state
	}
	return StateUnknown
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// Connected returns the number of subscribers receiving Publish traffic.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.members {
		if m.state == StateConnected {
			n++
		}
	}
	return n
}

// Stop disconnects every subscriber and stops the heartbeat.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.RLock()
		ids := make([]string, 0, len(h.members))
		for id := range h.members {
			ids = append(ids, id)
		}
		h.mu.RUnlock()

		for _, id := range ids {
			h.Unsubscribe(id, nil)
		}

		h.mu.Lock()
		h.stopHeartbeatLocked()
		h.mu.Unlock()

		h.wg.Wait()
	})
}

func (h *Hub) send(ctx context.Context, sub Subscriber, msg Message) error {
	if h.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.SendTimeout)
		defer cancel()
	}
	return sub.Send(ctx, msg)
}

// startHeartbeat starts the heartbeat goroutine. Caller must hold h.mu.
func (h *Hub) startHeartbeat() {
	stop := make(chan struct{})
	h.stopBeat = stop
	h.heartbeats = true

	ticker := time.NewTicker(h.config.HeartbeatInterval)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.Publish(context.Background(), Heartbeat(h.now()))
			case <-stop:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// stopHeartbeatLocked stops the heartbeat goroutine. Caller must hold h.mu.
func (h *Hub) stopHeartbeatLocked() {
	if !h.heartbeats {
		return
	}
	close(h.stopBeat)
	h.stopBeat = nil
	h.heartbeats = false
}
