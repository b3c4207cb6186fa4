package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paytrack/paytrack-backend/pkg/metrics"
)

type fakeChannel struct {
	mu       sync.Mutex
	payloads []any
	failWith error
	closed   bool
	closeErr error
}

func (f *fakeChannel) Deliver(_ context.Context, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrChannelClosed
	}
	if f.failWith != nil {
		return f.failWith
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeChannel) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func newTestRegistry() *Registry {
	return NewRegistry(metrics.NewDispatchMetrics(prometheus.NewRegistry()))
}

func TestRegistrySecondRegistrationEvictsFirst(t *testing.T) {
	r := newTestRegistry()
	user := uuid.New()
	first, second := &fakeChannel{}, &fakeChannel{}

	r.Register(user, first)
	r.Register(user, second)

	assert.True(t, r.Send(context.Background(), user, "hello"))
	assert.Equal(t, 0, first.received())
	assert.Equal(t, 1, second.received())
	assert.False(t, first.closed, "evicted channel is not closed")
	assert.Equal(t, 1, r.Connected())
}

func TestRegistrySendWithoutChannel(t *testing.T) {
	r := newTestRegistry()
	assert.False(t, r.Send(context.Background(), uuid.New(), "hello"))
}

func TestRegistrySendFailureReturnsFalse(t *testing.T) {
	r := newTestRegistry()
	user := uuid.New()
	r.Register(user, &fakeChannel{failWith: errors.New("broken pipe")})
	assert.False(t, r.Send(context.Background(), user, "hello"))

	closedUser := uuid.New()
	closed := &fakeChannel{closed: true}
	r.Register(closedUser, closed)
	assert.False(t, r.Send(context.Background(), closedUser, "hello"))
}

func TestRegistryDeregisterIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	user := uuid.New()
	r.Register(user, &fakeChannel{})

	r.Deregister(user)
	r.Deregister(user)
	r.Deregister(uuid.New())
	assert.Equal(t, 0, r.Connected())
	assert.False(t, r.Send(context.Background(), user, "hello"))
}

func TestRegistryReleaseOnlyRemovesMatchingChannel(t *testing.T) {
	r := newTestRegistry()
	user := uuid.New()
	old, current := &fakeChannel{}, &fakeChannel{}
	r.Register(user, old)
	r.Register(user, current)

	assert.False(t, r.Release(user, old))
	assert.True(t, r.Send(context.Background(), user, "still here"))

	assert.True(t, r.Release(user, current))
	assert.Equal(t, 0, r.Connected())
}

func TestRegistryCloseAll(t *testing.T) {
	r := newTestRegistry()
	a, b := &fakeChannel{}, &fakeChannel{closeErr: errors.New("close failed")}
	r.Register(uuid.New(), a)
	r.Register(uuid.New(), b)

	err := r.CloseAll(context.Background())
	require.Error(t, err)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Equal(t, 0, r.Connected())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newTestRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user := uuid.New()
			ch := &fakeChannel{}
			r.Register(user, ch)
			r.Send(context.Background(), user, "x")
			r.Release(user, ch)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Connected())
}
