package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
)

var _ ports.StateCache = (*StateCache)(nil)

// StateCache guarda el blob JSON de cada dashboard en Redis, sin expiración.
type StateCache struct {
	client *redis.Client
}

// NewStateCache construye la caché sobre un cliente ya conectado.
func NewStateCache(client *redis.Client) *StateCache {
	return &StateCache{client: client}
}

// Get devuelve el blob guardado o domain.ErrCacheMiss.
func (c *StateCache) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return blob, nil
}

// Set reemplaza el blob de la clave.
func (c *StateCache) Set(ctx context.Context, key string, blob []byte) error {
	if err := c.client.Set(ctx, key, blob, 0).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}
