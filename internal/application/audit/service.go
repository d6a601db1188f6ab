// Package audit orquesta el checklist de due diligence: estado en memoria con escritura
// optimista, almacén remoto best-effort, caché local diferida y los indicadores derivados.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
)

// Tipos de entidad registrados en el tracker de sincronización.
const (
	KindProperty = "property"
	KindParty    = "party"
	KindItem     = "item"
	KindLien     = "lien"
	KindNotes    = "notes"
)

// LocalIDPrefix prefijo de los IDs generados localmente cuando el almacén no creó la entidad.
const LocalIDPrefix = "local-"

const notesEntityID = "general"

// Source origen del estado cargado al arrancar.
type Source string

const (
	SourceStore    Source = "store"
	SourceCache    Source = "cache"
	SourceDefaults Source = "defaults"
)

// Options parámetros opcionales del servicio.
type Options struct {
	CacheKey      string
	DebounceDelay time.Duration
	RemoteTimeout time.Duration
	Now           func() time.Time
	NewID         func() string
}

// Service mantiene el AuditState autoritativo del proceso.
//
// Toda mutación se aplica primero en memoria. Los create llaman al almacén en línea para
// obtener el ID; si falla se usa un ID "local-" y la entidad queda en estado local.
// Updates y deletes se encolan en syncq; un fallo deja la entidad en pending-sync.
type Service struct {
	repo          repository.AuditRepository // nil = solo local
	cache         ports.StateCache
	cacheKey      string
	queue         *syncq.Queue
	tracker       *syncq.Tracker
	debounce      *syncq.Debouncer
	log           zerolog.Logger
	remoteTimeout time.Duration
	now           func() time.Time
	newID         func() string

	mu    sync.RWMutex
	state *entity.AuditState
}

// NewService construye el servicio. repo y cache pueden ser nil.
func NewService(repo repository.AuditRepository, cache ports.StateCache, queue *syncq.Queue, log zerolog.Logger, opts Options) *Service {
	if opts.CacheKey == "" {
		opts.CacheKey = "agrodiligencia:audit_state"
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
	s := &Service{
		repo:          repo,
		cache:         cache,
		cacheKey:      opts.CacheKey,
		queue:         queue,
		tracker:       queue.Tracker(),
		log:           log,
		remoteTimeout: opts.RemoteTimeout,
		now:           opts.Now,
		newID:         opts.NewID,
		state:         &entity.AuditState{},
	}
	s.debounce = syncq.NewDebouncer(opts.DebounceDelay, s.saveCache)
	return s
}

// ── Carga y caché ─────────────────────────────────────────────────────────────

// Load reemplaza el estado siguiendo la cadena almacén -> caché -> valores por defecto.
// Un almacén que falla o devuelve vacío se trata como no disponible. Los valores por
// defecto se dan de alta en el almacén solo si respondió (vacío); caído, quedan locales.
func (s *Service) Load(ctx context.Context) Source {
	storeUp := false
	if s.repo != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		st, err := s.repo.FetchAll(fetchCtx)
		cancel()
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("almacén remoto no disponible, se intenta la caché local")
		case st.IsEmpty():
			storeUp = true
			s.log.Info().Msg("almacén remoto vacío, se intenta la caché local")
		default:
			s.replace(st)
			s.changed()
			return SourceStore
		}
	}
	if st, ok := s.loadCache(ctx); ok {
		s.replace(st)
		return SourceCache
	}
	s.replace(s.seedDefaults(ctx, storeUp))
	s.changed()
	return SourceDefaults
}

// seedDefaults crea el estado inicial con los IDs que devuelva el almacén.
func (s *Service) seedDefaults(ctx context.Context, storeUp bool) *entity.AuditState {
	def := audit.DefaultState(s.now(), s.newID)
	out := &entity.AuditState{Liens: []entity.Lien{}}

	for _, p := range def.Properties {
		prop := p
		prop.ID, _ = s.createRemote(ctx, KindProperty, !storeUp, func(ctx context.Context) (string, error) {
			created, err := s.repo.CreateProperty(ctx, prop)
			return created.ID, err
		})
		prop.Items = s.seedItems(ctx, entity.OwnerProperty, prop.ID, p.Items)
		out.Properties = append(out.Properties, prop)
	}
	for _, p := range def.Parties {
		party := p
		party.ID, _ = s.createRemote(ctx, KindParty, !storeUp, func(ctx context.Context) (string, error) {
			created, err := s.repo.CreateParty(ctx, party)
			return created.ID, err
		})
		party.Items = s.seedItems(ctx, entity.OwnerParty, party.ID, p.Items)
		out.Parties = append(out.Parties, party)
	}
	return out
}

// seedItems da de alta los ítems del dueño en orden; con dueño local quedan todos locales.
func (s *Service) seedItems(ctx context.Context, ownerType entity.OwnerType, ownerID string, items []entity.ChecklistItem) []entity.ChecklistItem {
	out := make([]entity.ChecklistItem, 0, len(items))
	for _, it := range items {
		item := it
		item.ID, _ = s.createRemote(ctx, KindItem, isLocalID(ownerID), func(ctx context.Context) (string, error) {
			created, err := s.repo.CreateAuditItem(ctx, ownerType, ownerID, item)
			return created.ID, err
		})
		out = append(out, item)
	}
	return out
}

func (s *Service) replace(st *entity.AuditState) {
	s.mu.Lock()
	s.state = st.Clone()
	s.mu.Unlock()
}

func (s *Service) loadCache(ctx context.Context) (*entity.AuditState, bool) {
	if s.cache == nil {
		return nil, false
	}
	blob, err := s.cache.Get(ctx, s.cacheKey)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.log.Warn().Err(err).Msg("no se pudo leer la caché local")
		}
		return nil, false
	}
	var st entity.AuditState
	if err := json.Unmarshal(blob, &st); err != nil {
		s.log.Warn().Err(err).Str("key", s.cacheKey).Msg("caché local malformada, se ignora")
		return nil, false
	}
	if st.IsEmpty() {
		return nil, false
	}
	return &st, true
}

// saveCache lo ejecuta el debouncer tras la última mutación de una ráfaga.
func (s *Service) saveCache() {
	if s.cache == nil {
		return
	}
	s.mu.RLock()
	blob, err := json.Marshal(s.state)
	s.mu.RUnlock()
	if err != nil {
		s.log.Error().Err(err).Msg("serializar estado para la caché")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.remoteTimeout)
	defer cancel()
	if err := s.cache.Set(ctx, s.cacheKey, blob); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo escribir la caché local")
		return
	}
	s.log.Debug().Int("bytes", len(blob)).Msg("estado guardado en caché")
}

// Flush fuerza la escritura diferida pendiente. Devuelve si había una agendada.
func (s *Service) Flush() bool {
	return s.debounce.Flush()
}

// Close escribe la caché pendiente y detiene el debouncer.
func (s *Service) Close() {
	s.debounce.Flush()
	s.debounce.Stop()
}

// ── Lecturas ──────────────────────────────────────────────────────────────────

// Snapshot copia profunda del estado actual.
func (s *Service) Snapshot() *entity.AuditState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Summary indicadores del dashboard, recalculados sobre el estado actual.
func (s *Service) Summary() audit.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return audit.Summarize(s.state)
}

// ListItems ítems aplanados, filtrados por estado ("" o "all" = todos) y ordenados.
func (s *Service) ListItems(status string, mode audit.SortMode) []audit.ItemRef {
	s.mu.RLock()
	flat := audit.Flatten(s.state)
	s.mu.RUnlock()
	return audit.SortItems(audit.FilterByStatus(flat, status), mode)
}

// SearchParties búsqueda por nombre o CPF/CNPJ.
func (s *Service) SearchParties(query string) []entity.Party {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return audit.SearchParties(s.state.Parties, query)
}

// PendingSync entidades de la auditoría con escritura remota fallida o solo locales.
func (s *Service) PendingSync() []syncq.Entry {
	out := []syncq.Entry{}
	for _, e := range s.tracker.Pending() {
		switch e.Kind {
		case KindProperty, KindParty, KindItem, KindLien, KindNotes:
			out = append(out, e)
		}
	}
	return out
}

// RetryPending re-encola las escrituras fallidas de la auditoría (no las de contratos
// que comparten la cola). Es la única forma de reintento.
func (s *Service) RetryPending() int {
	return s.queue.RetryPending(KindProperty, KindParty, KindItem, KindLien, KindNotes)
}

// ── Escritura remota ──────────────────────────────────────────────────────────

func isLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

func (s *Service) localID() string {
	return LocalIDPrefix + s.newID()
}

// createRemote obtiene el ID del almacén. Sin almacén, o si el padre es local, el ID es
// local sin registrar fallo; si la llamada falla, el ID local queda marcado en el tracker.
func (s *Service) createRemote(ctx context.Context, kind string, parentLocal bool, create func(ctx context.Context) (string, error)) (string, syncq.State) {
	if s.repo == nil || parentLocal {
		return s.localID(), syncq.StateLocal
	}
	ctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
	defer cancel()
	id, err := create(ctx)
	if err == nil && id != "" {
		return id, syncq.StateSynced
	}
	if err == nil {
		err = domain.ErrStoreUnavailable
	}
	id = s.localID()
	s.log.Warn().Err(err).Str("kind", kind).Str("id", id).Msg("alta remota fallida, guardado localmente")
	s.tracker.MarkPending(kind, id, "create", syncq.StateLocal, err, nil)
	return id, syncq.StateLocal
}

// enqueue agenda la escritura remota de una entidad ya aplicada en memoria.
func (s *Service) enqueue(kind, id, op string, run func(ctx context.Context) error) syncq.State {
	if s.repo == nil || isLocalID(id) {
		return syncq.StateLocal
	}
	s.queue.Enqueue(syncq.Task{Kind: kind, EntityID: id, Op: op, Run: run})
	return s.tracker.State(kind, id)
}

// discardCreated deshace en el almacén un alta cuyo dueño se borró durante la llamada
// remota. El borrado va por la cola: si falla, el huérfano queda como pending-sync.
func (s *Service) discardCreated(kind, id string, del func(ctx context.Context, id string) error) {
	if s.repo == nil || isLocalID(id) {
		s.forget(kind, id)
		return
	}
	s.log.Warn().Str("kind", kind).Str("id", id).Msg("dueño borrado durante el alta, se borra en el almacén")
	s.enqueue(kind, id, "delete", func(ctx context.Context) error {
		return del(ctx, id)
	})
}

// forget limpia el tracker de una entidad local borrada (nunca existirá en el almacén).
func (s *Service) forget(kind, id string) {
	if isLocalID(id) {
		s.tracker.MarkSynced(kind, id)
	}
}

func (s *Service) changed() {
	s.debounce.Trigger()
}
