// Package notify delivers small real-time messages to users' live
// connections. Delivery is best effort: at most once per connection, never
// blocking the sender, and nothing is queued for users who are offline.
package notify

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "najdeno_notifications_delivered_total",
		Help: "Notifications handed to a live connection.",
	})
	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "najdeno_notifications_dropped_total",
		Help: "Notifications dropped, by reason.",
	}, []string{"reason"})
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "najdeno_notification_connections",
		Help: "Currently registered notification connections.",
	})
)

// ErrClosed is returned when registering on a registry that has been closed.
var ErrClosed = errors.New("notification registry closed")

// DefaultBuffer is the number of undelivered messages a connection may hold
// before further messages to it are dropped.
const DefaultBuffer = 16

// Message is the payload pushed to clients.
type Message struct {
	Message string `json:"message"`
}

// Conn is one registered live connection of a user.
type Conn struct {
	ID     uuid.UUID
	UserID int64

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// Messages returns the channel of messages addressed to this connection.
func (c *Conn) Messages() <-chan Message { return c.send }

// Done is closed once the connection has been removed from the registry.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Registry maps user IDs to their live connections. The zero value is not
// usable; create one with NewRegistry and Close it when the server stops.
type Registry struct {
	mu     sync.RWMutex
	conns  map[int64]map[*Conn]struct{}
	buffer int
	closed bool
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[int64]map[*Conn]struct{}),
		buffer: DefaultBuffer,
		logger: slog.Default().With("component", "notify"),
	}
}

// Add registers a new connection for userID.
func (r *Registry) Add(userID int64) (*Conn, error) {
	c := &Conn{
		ID:     uuid.New(),
		UserID: userID,
		send:   make(chan Message, r.buffer),
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	activeConnections.Inc()

	r.logger.Debug("connection registered", "user", userID, "conn", c.ID)
	return c, nil
}

// Remove unregisters c and closes its Done channel. Removing twice is a no-op.
func (r *Registry) Remove(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.conns[c.UserID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			activeConnections.Dec()
			if len(set) == 0 {
				delete(r.conns, c.UserID)
			}
		}
	}
	c.close()
	r.logger.Debug("connection removed", "user", c.UserID, "conn", c.ID)
}

// Notify pushes message to every live connection of userID and returns how
// many connections accepted it. It never blocks: connections with a full
// buffer miss the message, and an offline user simply receives nothing.
func (r *Registry) Notify(userID int64, message string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	if len(set) == 0 {
		droppedTotal.WithLabelValues("offline").Inc()
		return 0
	}

	delivered := 0
	msg := Message{Message: message}
	for c := range set {
		select {
		case c.send <- msg:
			delivered++
			deliveredTotal.Inc()
		default:
			droppedTotal.WithLabelValues("buffer_full").Inc()
			r.logger.Warn("dropping notification; buffer full", "user", userID, "conn", c.ID)
		}
	}
	return delivered
}

// Connections returns the number of live connections registered for userID.
func (r *Registry) Connections(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// Close removes every connection and rejects further registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for userID, set := range r.conns {
		for c := range set {
			c.close()
			activeConnections.Dec()
		}
		delete(r.conns, userID)
	}
	r.logger.Info("notification registry closed")
}
