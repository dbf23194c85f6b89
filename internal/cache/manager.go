package cache

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager puts a deadline on every backend call and treats backend failures
// as misses. A request that looked up a prefix before an invalidation cannot
// store its result after it.
type Manager struct {
	store   Store
	timeout time.Duration

	mu          sync.Mutex
	generations map[string]uint64
}

func NewManager(store Store, timeout time.Duration) *Manager {
	return &Manager{
		store:       store,
		timeout:     timeout,
		generations: make(map[string]uint64),
	}
}

// Ticket is handed out by Lookup and redeemed by Remember.
type Ticket struct {
	endpoint   Endpoint
	key        string
	generation uint64
}

func (m *Manager) generation(prefix string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[prefix]
}

func (m *Manager) bump(prefix string) {
	m.mu.Lock()
	m.generations[prefix]++
	m.mu.Unlock()
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.timeout)
}

// Lookup returns the cached body for r, if any, and a ticket for storing a
// freshly computed one.
func (m *Manager) Lookup(ctx context.Context, e Endpoint, r *http.Request) ([]byte, bool, Ticket) {
	t := Ticket{endpoint: e, key: e.Key(r), generation: m.generation(e.Prefix)}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	body, ok, err := m.store.Get(ctx, t.key)
	if err != nil {
		logrus.WithError(err).WithField("key", t.key).Warn("Cache lookup failed")
		return nil, false, t
	}
	return body, ok, t
}

// Remember stores body under the ticket's key unless the prefix was
// invalidated since the ticket was issued.
func (m *Manager) Remember(ctx context.Context, t Ticket, body []byte) {
	if m.generation(t.endpoint.Prefix) != t.generation {
		return
	}

	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	if err := m.store.Set(ctx, t.key, body, t.endpoint.TTL); err != nil {
		logrus.WithError(err).WithField("key", t.key).Warn("Cache store failed")
	}
}

// Invalidate drops every entry under each prefix. Call it after the write
// has committed.
func (m *Manager) Invalidate(ctx context.Context, prefixes ...string) {
	for _, prefix := range prefixes {
		m.bump(prefix)

		cctx, cancel := m.withTimeout(ctx)
		n, err := m.store.DeletePrefix(cctx, prefix+":")
		cancel()

		entry := logrus.WithField("prefix", prefix)
		if err != nil {
			entry.WithError(err).Warn("Cache invalidation failed")
			continue
		}
		entry.WithField("removed", n).Debug("Cache invalidated")
	}
}
