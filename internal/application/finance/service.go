// Package finance orquesta el dashboard AgroFinance: contratos con pagos y parcelas,
// escritura optimista al almacén remoto, caché diferida y difusión del estado guardado
// a las otras instancias (último en escribir gana).
package finance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
)

// KindContract tipo de entidad en el tracker de sincronización.
const KindContract = "contract"

// LocalIDPrefix prefijo de los contratos que el almacén no llegó a crear.
const LocalIDPrefix = "local-"

// Source origen de los contratos cargados al arrancar.
type Source string

const (
	SourceStore Source = "store"
	SourceCache Source = "cache"
	SourceEmpty Source = "empty"
)

// Options parámetros opcionales del servicio.
type Options struct {
	CacheKey      string
	Origin        string // identificador de esta instancia en el canal de sync
	DebounceDelay time.Duration
	RemoteTimeout time.Duration
	Now           func() time.Time
	NewID         func() string
}

// Service mantiene la lista de contratos del proceso.
type Service struct {
	repo          repository.ContractRepository // nil = solo local
	cache         ports.StateCache
	bus           ports.StateBroadcaster
	cacheKey      string
	origin        string
	queue         *syncq.Queue
	tracker       *syncq.Tracker
	debounce      *syncq.Debouncer
	log           zerolog.Logger
	remoteTimeout time.Duration
	now           func() time.Time
	newID         func() string

	mu        sync.RWMutex
	contracts []*entity.Contract
}

// NewService construye el servicio. repo, cache y bus pueden ser nil.
func NewService(repo repository.ContractRepository, cache ports.StateCache, bus ports.StateBroadcaster, queue *syncq.Queue, log zerolog.Logger, opts Options) *Service {
	if opts.CacheKey == "" {
		opts.CacheKey = "agrodiligencia:contracts"
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = 2 * time.Second
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 8 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Origin == "" {
		opts.Origin = uuid.New().String()
	}
	s := &Service{
		repo:          repo,
		cache:         cache,
		bus:           bus,
		cacheKey:      opts.CacheKey,
		origin:        opts.Origin,
		queue:         queue,
		tracker:       queue.Tracker(),
		log:           log,
		remoteTimeout: opts.RemoteTimeout,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	s.debounce = syncq.NewDebouncer(opts.DebounceDelay, s.saveCache)
	return s
}

// ── Carga, caché y difusión ───────────────────────────────────────────────────

// Load reemplaza los contratos siguiendo la cadena almacén -> caché -> lista vacía.
func (s *Service) Load(ctx context.Context) Source {
	if s.repo != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		list, err := s.repo.List(fetchCtx)
		cancel()
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("almacén remoto no disponible, se intenta la caché local")
		case len(list) == 0:
			s.log.Info().Msg("almacén remoto sin contratos, se intenta la caché local")
		default:
			s.replace(list)
			s.debounce.Trigger()
			return SourceStore
		}
	}
	if blob, err := s.readCache(ctx); err == nil {
		if list, err := decodeContracts(blob); err != nil {
			s.log.Warn().Err(err).Str("key", s.cacheKey).Msg("caché local malformada, se ignora")
		} else if len(list) > 0 {
			s.replace(list)
			return SourceCache
		}
	}
	s.replace(nil)
	return SourceEmpty
}

func (s *Service) readCache(ctx context.Context) ([]byte, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	blob, err := s.cache.Get(ctx, s.cacheKey)
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		s.log.Warn().Err(err).Msg("no se pudo leer la caché local")
	}
	return blob, err
}

func decodeContracts(blob []byte) ([]*entity.Contract, error) {
	var list []*entity.Contract
	if err := json.Unmarshal(blob, &list); err != nil {
		return nil, err
	}
	out := list[:0]
	for _, c := range list {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Service) replace(list []*entity.Contract) {
	cloned := make([]*entity.Contract, 0, len(list))
	for _, c := range list {
		cloned = append(cloned, c.Clone())
	}
	s.mu.Lock()
	s.contracts = cloned
	s.mu.Unlock()
}

// saveCache guarda la lista y la publica para las otras instancias.
func (s *Service) saveCache() {
	s.mu.RLock()
	blob, err := json.Marshal(s.contracts)
	s.mu.RUnlock()
	if err != nil {
		s.log.Error().Err(err).Msg("serializar contratos para la caché")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
	defer cancel()
	if s.cache != nil {
		if err := s.cache.Set(ctx, s.cacheKey, blob); err != nil {
			s.log.Warn().Err(err).Msg("no se pudo escribir la caché local")
		}
	}
	if s.bus != nil {
		msg := ports.SyncMessage{Origin: s.origin, Key: s.cacheKey, Payload: blob}
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn().Err(err).Msg("no se pudo difundir el estado de contratos")
		}
	}
	s.log.Debug().Int("bytes", len(blob)).Msg("contratos guardados en caché")
}

// Subscribe aplica los estados publicados por otras instancias hasta que ctx se cancele.
// Reemplaza la lista completa: no hay merge.
func (s *Service) Subscribe(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return nil
	}
	return s.bus.Subscribe(ctx, s.applyRemote)
}

func (s *Service) applyRemote(msg ports.SyncMessage) {
	if msg.Origin == s.origin || msg.Key != s.cacheKey {
		return
	}
	list, err := decodeContracts(msg.Payload)
	if err != nil {
		s.log.Warn().Err(err).Str("origin", msg.Origin).Msg("estado remoto malformado, se ignora")
		return
	}
	s.replace(list)
	s.log.Info().Str("origin", msg.Origin).Int("contracts", len(list)).Msg("contratos reemplazados por otra instancia")
}

// Flush fuerza la escritura diferida pendiente.
func (s *Service) Flush() bool {
	return s.debounce.Flush()
}

// Close escribe la caché pendiente y detiene el debouncer.
func (s *Service) Close() {
	s.debounce.Flush()
	s.debounce.Stop()
}

// PendingSync contratos con escritura remota fallida o solo locales.
func (s *Service) PendingSync() []syncq.Entry {
	out := []syncq.Entry{}
	for _, e := range s.tracker.Pending() {
		if e.Kind == KindContract {
			out = append(out, e)
		}
	}
	return out
}

// RetryPending re-encola solo las escrituras fallidas de contratos.
func (s *Service) RetryPending() int {
	return s.queue.RetryPending(KindContract)
}

// ── Escritura remota ──────────────────────────────────────────────────────────

func isLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

func (s *Service) enqueueUpdate(c *entity.Contract) syncq.State {
	if s.repo == nil || isLocalID(c.ID) {
		return syncq.StateLocal
	}
	snapshot := c.Clone()
	s.queue.Enqueue(syncq.Task{Kind: KindContract, EntityID: c.ID, Op: "update", Run: func(ctx context.Context) error {
		return s.repo.Update(ctx, snapshot)
	}})
	return s.tracker.State(KindContract, c.ID)
}

// ── Vistas ────────────────────────────────────────────────────────────────────

func (s *Service) view(c *entity.Contract, state syncq.State) dto.ContractView {
	allocs := finance.AllocateContract(c)
	v := dto.ContractView{
		Contract:      c.Clone(),
		DisplayStatus: finance.ContractDisplayStatus(c, s.now()),
		Outstanding:   c.Outstanding(),
		Allocations:   allocs,
		Sync:          dto.SyncInfo{State: string(state)},
	}
	if next := finance.NextDue(allocs); next != nil {
		n := *next
		v.NextDue = &n
	}
	return v
}

func (s *Service) stateOf(id string) syncq.State {
	if s.repo == nil || isLocalID(id) {
		return syncq.StateLocal
	}
	return s.tracker.State(KindContract, id)
}

// List todos los contratos con sus datos derivados, en orden de alta.
func (s *Service) List() []dto.ContractView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dto.ContractView, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, s.view(c, s.stateOf(c.ID)))
	}
	return out
}

// Get un contrato con su asignación en cascada.
func (s *Service) Get(id string) (dto.ContractView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.find(id)
	if c == nil {
		return dto.ContractView{}, domain.ErrNotFound
	}
	return s.view(c, s.stateOf(id)), nil
}

// find requiere s.mu tomado.
func (s *Service) find(id string) *entity.Contract {
	for _, c := range s.contracts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Contracts copia de la lista cruda (proyecciones, reportes).
func (s *Service) Contracts() []*entity.Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Contract, len(s.contracts))
	for i, c := range s.contracts {
		out[i] = c.Clone()
	}
	return out
}
