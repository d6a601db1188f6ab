package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
)

var _ ports.StateBroadcaster = (*Broadcaster)(nil)

// Broadcaster difunde el estado guardado por un canal pub/sub de Redis.
type Broadcaster struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

// NewBroadcaster construye el difusor sobre channel.
func NewBroadcaster(client *redis.Client, channel string, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{client: client, channel: channel, log: log}
}

// Publish serializa msg y lo publica.
func (b *Broadcaster) Publish(ctx context.Context, msg ports.SyncMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("cache: serializar mensaje: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("cache: publish %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe entrega cada mensaje a handler hasta que ctx se cancele.
// Los mensajes mal formados se registran y se descartan.
func (b *Broadcaster) Subscribe(ctx context.Context, handler func(ports.SyncMessage)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Esperar la confirmación para no perder mensajes publicados justo después.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("cache: subscribe %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg ports.SyncMessage
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				b.log.Warn().Err(err).Str("channel", b.channel).Msg("mensaje de sincronización inválido")
				continue
			}
			handler(msg)
		}
	}
}
