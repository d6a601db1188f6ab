package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/cache"
	"github.com/jhoicas/AgroDiligencia-api/pkg/config"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := cache.NewClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStateCache_GetSet(t *testing.T) {
	_, client := newClient(t)
	c := cache.NewStateCache(client)
	ctx := context.Background()

	_, err := c.Get(ctx, "audit")
	assert.True(t, errors.Is(err, domain.ErrCacheMiss))

	require.NoError(t, c.Set(ctx, "audit", []byte(`{"properties":[]}`)))
	got, err := c.Get(ctx, "audit")
	require.NoError(t, err)
	assert.JSONEq(t, `{"properties":[]}`, string(got))
}

func TestStateCache_ErrorDeConexion(t *testing.T) {
	mr, client := newClient(t)
	c := cache.NewStateCache(client)
	mr.Close()

	_, err := c.Get(context.Background(), "audit")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrCacheMiss))
}

func TestNewClient_SinServidor(t *testing.T) {
	_, err := cache.NewClient(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestBroadcaster_PublishSubscribe(t *testing.T) {
	_, client := newClient(t)
	b := cache.NewBroadcaster(client, "contracts:sync", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []ports.SyncMessage
	)
	done := make(chan error, 1)
	go func() {
		done <- b.Subscribe(ctx, func(m ports.SyncMessage) {
			mu.Lock()
			got = append(got, m)
			mu.Unlock()
		})
	}()

	msg := ports.SyncMessage{Origin: "instancia-a", Key: "contracts", Payload: []byte(`[]`)}
	// La suscripción es asíncrona: se publica hasta que llegue el primer mensaje.
	require.Eventually(t, func() bool {
		_ = b.Publish(context.Background(), msg)
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, msg, got[0])
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe no terminó tras cancelar el contexto")
	}
}
