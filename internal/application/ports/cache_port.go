package ports

import "context"

// StateCache almacén local de blobs JSON, uno por dashboard, bajo claves fijas.
// Get devuelve domain.ErrCacheMiss cuando la clave no existe.
type StateCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
}

// SyncMessage blob publicado tras guardar el estado. Origin identifica la instancia
// que lo publicó para que ignore sus propios mensajes.
type SyncMessage struct {
	Origin  string `json:"origin"`
	Key     string `json:"key"`
	Payload []byte `json:"payload"`
}

// StateBroadcaster difunde el estado guardado a las otras instancias (último en escribir gana).
type StateBroadcaster interface {
	Publish(ctx context.Context, msg SyncMessage) error
	// Subscribe bloquea entregando mensajes a handler hasta que ctx se cancele.
	Subscribe(ctx context.Context, handler func(SyncMessage)) error
}
