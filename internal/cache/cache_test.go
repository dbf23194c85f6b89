package cache

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "catalog"), mr
}

func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "product_list:a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "product_list:a", []byte("A"), time.Hour))
	require.NoError(t, s.Set(ctx, "product_list:b", []byte("B"), time.Hour))
	require.NoError(t, s.Set(ctx, "order_list:a", []byte("C"), time.Hour))

	got, ok, err := s.Get(ctx, "product_list:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("A"), got)

	n, err := s.DeletePrefix(ctx, "product_list:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, _ = s.Get(ctx, "product_list:b")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "order_list:a")
	assert.True(t, ok, "other prefixes survive")
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(MemoryConfig{Capacity: 100, NumShards: 4}))
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(MemoryConfig{Capacity: 100, NumShards: 4})
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, ok, _ := s.Get(context.Background(), "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = s.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t)
	storeContract(t, s)
}

func TestRedisStoreNamespaceAndTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "order_list:x", []byte("1"), time.Minute))
	assert.True(t, mr.Exists("catalog:order_list:x"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, "order_list:x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEndpointKey(t *testing.T) {
	e := Endpoint{Prefix: OrderListPrefix, VaryHeaders: []string{"Authorization"}}

	a := httptest.NewRequest("GET", "/orders/?b=2&a=1", nil)
	a.Header.Set("Authorization", "Bearer one")
	b := httptest.NewRequest("GET", "/orders/?a=1&b=2", nil)
	b.Header.Set("Authorization", "Bearer one")
	c := httptest.NewRequest("GET", "/orders/?a=1&b=2", nil)
	c.Header.Set("Authorization", "Bearer two")

	assert.Equal(t, e.Key(a), e.Key(b))
	assert.NotEqual(t, e.Key(b), e.Key(c))
	assert.Contains(t, e.Key(a), "order_list:")
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingStore) DeletePrefix(context.Context, string) (int, error) {
	return 0, errors.New("down")
}

func TestManagerTreatsFailuresAsMiss(t *testing.T) {
	m := NewManager(failingStore{}, 10*time.Millisecond)
	r := httptest.NewRequest("GET", "/products/", nil)
	e := Endpoint{Prefix: ProductListPrefix, TTL: time.Hour}

	body, ok, ticket := m.Lookup(context.Background(), e, r)
	assert.False(t, ok)
	assert.Nil(t, body)

	assert.NotPanics(t, func() {
		m.Remember(context.Background(), ticket, []byte("x"))
		m.Invalidate(context.Background(), ProductListPrefix)
	})
}

func TestManagerRememberAndInvalidate(t *testing.T) {
	m := NewManager(NewMemoryStore(MemoryConfig{Capacity: 100, NumShards: 4}), time.Second)
	r := httptest.NewRequest("GET", "/products/?page_num=2", nil)
	e := Endpoint{Prefix: ProductListPrefix, TTL: time.Hour}
	ctx := context.Background()

	_, ok, ticket := m.Lookup(ctx, e, r)
	require.False(t, ok)
	m.Remember(ctx, ticket, []byte("page two"))

	body, ok, _ := m.Lookup(ctx, e, r)
	require.True(t, ok)
	assert.Equal(t, "page two", string(body))

	m.Invalidate(ctx, ProductListPrefix)
	_, ok, _ = m.Lookup(ctx, e, r)
	assert.False(t, ok)
}

func TestManagerDropsResultComputedBeforeInvalidation(t *testing.T) {
	m := NewManager(NewMemoryStore(MemoryConfig{Capacity: 100, NumShards: 4}), time.Second)
	r := httptest.NewRequest("GET", "/products/", nil)
	e := Endpoint{Prefix: ProductListPrefix, TTL: time.Hour}
	ctx := context.Background()

	_, _, ticket := m.Lookup(ctx, e, r)
	m.Invalidate(ctx, ProductListPrefix)
	m.Remember(ctx, ticket, []byte("stale"))

	_, ok, _ := m.Lookup(ctx, e, r)
	assert.False(t, ok)
}
