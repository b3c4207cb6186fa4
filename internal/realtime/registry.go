package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/paytrack/paytrack-backend/pkg/metrics"
)

// ErrChannelClosed is returned when delivering to a channel that already closed.
var ErrChannelClosed = errors.New("live channel closed")

// Channel is one open push connection.
type Channel interface {
	Deliver(ctx context.Context, payload any) error
	Close() error
}

// Registry maps each user to at most one live channel. It is rebuilt from
// scratch on restart; clients re-register by reconnecting.
type Registry struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]Channel
	metrics  *metrics.DispatchMetrics
}

func NewRegistry(m *metrics.DispatchMetrics) *Registry {
	return &Registry{
		channels: make(map[uuid.UUID]Channel),
		metrics:  m,
	}
}

// Register makes ch the user's live channel. A previous channel is evicted
// from the registry but left open.
func (r *Registry) Register(userID uuid.UUID, ch Channel) {
	r.mu.Lock()
	r.channels[userID] = ch
	n := len(r.channels)
	r.mu.Unlock()
	r.metrics.SetConnections(n)
}

// Deregister drops the user's channel if any.
func (r *Registry) Deregister(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.channels, userID)
	n := len(r.channels)
	r.mu.Unlock()
	r.metrics.SetConnections(n)
}

// Release deregisters userID only while ch is still its registered channel.
func (r *Registry) Release(userID uuid.UUID, ch Channel) bool {
	r.mu.Lock()
	current, ok := r.channels[userID]
	released := ok && current == ch
	if released {
		delete(r.channels, userID)
	}
	n := len(r.channels)
	r.mu.Unlock()
	if released {
		r.metrics.SetConnections(n)
	}
	return released
}

// Send writes payload to the user's channel. It reports false when no channel
// is registered or the write fails, and never retries.
func (r *Registry) Send(ctx context.Context, userID uuid.UUID, payload any) bool {
	r.mu.RLock()
	ch, ok := r.channels[userID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return ch.Deliver(ctx, payload) == nil
}

// Connected reports the number of users with a registered channel.
func (r *Registry) Connected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// CloseAll empties the registry and closes every channel.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[uuid.UUID]Channel)
	r.mu.Unlock()
	r.metrics.SetConnections(0)

	var err error
	for _, ch := range channels {
		if ctx.Err() != nil {
			return multierr.Append(err, ctx.Err())
		}
		err = multierr.Append(err, ch.Close())
	}
	return err
}
