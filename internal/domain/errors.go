package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrStoreUnavailable = errors.New("almacén remoto no disponible")
	ErrCacheMiss        = errors.New("caché vacía")
	ErrAIUnavailable    = errors.New("servicio de IA no configurado")
	ErrNegativeAmount   = errors.New("el monto no puede ser negativo")
)
