// Package hub owns the live connection registry, the message router,
// and the call-session state machine.
package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindmesh-ai/companion-hub/pkg/logger"
	"github.com/mindmesh-ai/companion-hub/pkg/metrics"
)

// Socket is the minimal duplex handle the hub needs from a transport.
// The production implementation wraps a websocket connection; tests use
// in-memory fakes.
type Socket interface {
	// Send writes one text frame. Safe for concurrent use.
	Send(ctx context.Context, data []byte) error
	// Close terminates the connection with a reason.
	Close(reason string) error
}

// Connection is one live registered client. Owned exclusively by the
// registry: created on handshake, destroyed on close or error.
type Connection struct {
	UserID      string
	Socket      Socket
	ConnectedAt time.Time
}

// Registry is the process-wide map of user ID to live connection. All
// access goes through Register/Lookup/Unregister under a single lock;
// there are no ambient globals.
type Registry struct {
	mu     sync.Mutex
	conns  map[string]*Connection
	logger *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		logger: log,
	}
}

// Register adds a connection for userID, replacing any prior entry.
// Last writer wins: the previous socket is closed and abandoned.
func (r *Registry) Register(userID string, socket Socket) *Connection {
	conn := &Connection{
		UserID:      userID,
		Socket:      socket,
		ConnectedAt: time.Now(),
	}

	r.mu.Lock()
	prev, replaced := r.conns[userID]
	r.conns[userID] = conn
	r.mu.Unlock()

	if replaced {
		// Close outside the lock; the old read loop will observe the
		// error and clean itself up.
		_ = prev.Socket.Close("connection replaced")
		r.logger.Info("connection replaced", zap.String("user_id", userID))
	} else {
		metrics.ConnectionsActive.Inc()
		r.logger.Info("connection registered", zap.String("user_id", userID))
	}
	return conn
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Unregister removes the entry for userID. Idempotent: a missing entry
// is not an error.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	_, ok := r.conns[userID]
	if ok {
		delete(r.conns, userID)
	}
	r.mu.Unlock()

	if ok {
		metrics.ConnectionsActive.Dec()
		r.logger.Info("connection unregistered", zap.String("user_id", userID))
	}
}

// UnregisterConn removes the entry only if it still belongs to the given
// connection. A read loop that lost a last-writer-wins race must not
// evict its replacement.
func (r *Registry) UnregisterConn(userID string, conn *Connection) bool {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if ok && current == conn {
		delete(r.conns, userID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		metrics.ConnectionsActive.Dec()
		r.logger.Info("connection unregistered", zap.String("user_id", userID))
	}
	return ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
