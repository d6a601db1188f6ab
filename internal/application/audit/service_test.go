package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	checklist "github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
	"github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/memory"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

var errRemoto = errors.New("almacén remoto caído")

// flakyRepo almacén en memoria con fallos inyectables por operación.
type flakyRepo struct {
	*memory.AuditStore
	mu         sync.Mutex
	fetchErr   error
	failCreate bool
	failUpdate bool
	failLien   bool
	// onCreateLien corre antes del insert remoto del ônus.
	onCreateLien func()
}

func newFlakyRepo() *flakyRepo {
	return &flakyRepo{AuditStore: memory.NewAuditStore()}
}

func (r *flakyRepo) set(fn func(r *flakyRepo)) {
	r.mu.Lock()
	fn(r)
	r.mu.Unlock()
}

func (r *flakyRepo) flags() (fetchErr error, create, update, lien bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetchErr, r.failCreate, r.failUpdate, r.failLien
}

func (r *flakyRepo) FetchAll(ctx context.Context) (*entity.AuditState, error) {
	if err, _, _, _ := r.flags(); err != nil {
		return nil, err
	}
	return r.AuditStore.FetchAll(ctx)
}

func (r *flakyRepo) CreateProperty(ctx context.Context, p entity.Property) (entity.Property, error) {
	if _, fail, _, _ := r.flags(); fail {
		return entity.Property{}, errRemoto
	}
	return r.AuditStore.CreateProperty(ctx, p)
}

func (r *flakyRepo) UpdateAuditItem(ctx context.Context, item entity.ChecklistItem) error {
	if _, _, fail, _ := r.flags(); fail {
		return errRemoto
	}
	return r.AuditStore.UpdateAuditItem(ctx, item)
}

func (r *flakyRepo) CreateLien(ctx context.Context, l entity.Lien) (entity.Lien, error) {
	r.mu.Lock()
	hook := r.onCreateLien
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.AuditStore.CreateLien(ctx, l)
}

func (r *flakyRepo) DeleteLien(ctx context.Context, id string) error {
	if _, _, _, fail := r.flags(); fail {
		return errRemoto
	}
	return r.AuditStore.DeleteLien(ctx, id)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return b, nil
}

func (c *mapCache) Set(ctx context.Context, key string, blob []byte) error {
	c.mu.Lock()
	c.data[key] = append([]byte(nil), blob...)
	c.mu.Unlock()
	return nil
}

const cacheKey = "test:audit"

func newService(t *testing.T, repo repository.AuditRepository, cache *mapCache) (*audit.Service, *syncq.Queue) {
	t.Helper()
	q := syncq.NewQueue(syncq.NewTracker(), zerolog.Nop(), time.Second)
	t.Cleanup(q.Close)
	var c ports.StateCache
	if cache != nil {
		c = cache
	}
	svc := audit.NewService(repo, c, q, zerolog.Nop(), audit.Options{
		CacheKey:      cacheKey,
		DebounceDelay: time.Hour,
		RemoteTimeout: time.Second,
		Now:           func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(svc.Close)
	return svc, q
}

func firstItemID(t *testing.T, svc *audit.Service) string {
	t.Helper()
	st := svc.Snapshot()
	require.NotEmpty(t, st.Properties)
	require.NotEmpty(t, st.Properties[0].Items)
	return st.Properties[0].Items[0].ID
}

// ── Carga ─────────────────────────────────────────────────────────────────────

func TestLoad_DesdeAlmacen(t *testing.T) {
	repo := newFlakyRepo()
	ctx := context.Background()
	p, err := repo.AuditStore.CreateProperty(ctx, entity.Property{Name: "Fazenda Boa Vista"})
	require.NoError(t, err)
	_, err = repo.AuditStore.CreateAuditItem(ctx, entity.OwnerProperty, p.ID, entity.ChecklistItem{Name: "CAR", Category: "Ambiental", Status: entity.ItemStatusOK})
	require.NoError(t, err)

	svc, _ := newService(t, repo, newMapCache())
	assert.Equal(t, audit.SourceStore, svc.Load(ctx))

	st := svc.Snapshot()
	require.Len(t, st.Properties, 1)
	assert.Equal(t, "Fazenda Boa Vista", st.Properties[0].Name)
	assert.Len(t, st.Properties[0].Items, 1)
}

func TestLoad_AlmacenVacioUsaCache(t *testing.T) {
	cache := newMapCache()
	cached := entity.AuditState{
		Properties:   []entity.Property{{ID: "p1", Name: "Sítio Cacheado"}},
		GeneralNotes: "notas",
	}
	blob, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), cacheKey, blob))

	svc, _ := newService(t, newFlakyRepo(), cache)
	assert.Equal(t, audit.SourceCache, svc.Load(context.Background()))
	assert.Equal(t, "Sítio Cacheado", svc.Snapshot().Properties[0].Name)
	assert.Equal(t, "notas", svc.Snapshot().GeneralNotes)
}

func TestLoad_CacheMalformadaCaeADefaults(t *testing.T) {
	cache := newMapCache()
	require.NoError(t, cache.Set(context.Background(), cacheKey, []byte("{no es json")))
	repo := newFlakyRepo()

	svc, _ := newService(t, repo, cache)
	assert.Equal(t, audit.SourceDefaults, svc.Load(context.Background()))

	st := svc.Snapshot()
	require.Len(t, st.Properties, 1)
	require.Len(t, st.Parties, 2)
	assert.False(t, strings.HasPrefix(st.Properties[0].ID, audit.LocalIDPrefix), "almacén respondió: IDs reales")

	remote, err := repo.AuditStore.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, remote.Properties, 1)
	assert.Len(t, remote.Properties[0].Items, len(st.Properties[0].Items))
}

func TestLoad_AlmacenCaidoDefaultsLocales(t *testing.T) {
	repo := newFlakyRepo()
	repo.set(func(r *flakyRepo) { r.fetchErr = errRemoto })

	svc, _ := newService(t, repo, nil)
	assert.Equal(t, audit.SourceDefaults, svc.Load(context.Background()))

	st := svc.Snapshot()
	require.NotEmpty(t, st.Properties)
	assert.True(t, strings.HasPrefix(st.Properties[0].ID, audit.LocalIDPrefix))
	assert.Empty(t, svc.PendingSync(), "sin almacén no se intentan altas remotas")
}

// ── Escritura optimista ───────────────────────────────────────────────────────

func TestCreateProperty_FalloRemotoUsaIDLocal(t *testing.T) {
	repo := newFlakyRepo()
	svc, _ := newService(t, repo, nil)
	svc.Load(context.Background())
	repo.set(func(r *flakyRepo) { r.failCreate = true })

	p, state, err := svc.CreateProperty(context.Background(), dto.CreatePropertyRequest{Name: "Fazenda Nova", Area: decimal.NewFromInt(350)})
	require.NoError(t, err)
	assert.Equal(t, syncq.StateLocal, state)
	assert.True(t, strings.HasPrefix(p.ID, audit.LocalIDPrefix))
	assert.NotEmpty(t, p.Items, "la copia en memoria conserva el checklist")
	for _, it := range p.Items {
		assert.True(t, strings.HasPrefix(it.ID, audit.LocalIDPrefix))
	}

	pending := svc.PendingSync()
	require.Len(t, pending, 1)
	assert.Equal(t, audit.KindProperty, pending[0].Kind)
	assert.Equal(t, p.ID, pending[0].EntityID)
	assert.Equal(t, syncq.StateLocal, pending[0].State)
}

func TestUpdateItem_FalloMarcaPendingSyncYReintento(t *testing.T) {
	repo := newFlakyRepo()
	svc, q := newService(t, repo, nil)
	svc.Load(context.Background())
	id := firstItemID(t, svc)

	repo.set(func(r *flakyRepo) { r.failUpdate = true })
	ok := string(entity.ItemStatusOK)
	notes := "emitida em 01/03"
	item, _, err := svc.UpdateItem(id, dto.UpdateItemRequest{Status: &ok, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, entity.ItemStatusOK, item.Status)
	assert.Equal(t, notes, item.Notes)
	q.Drain()

	pending := svc.PendingSync()
	require.Len(t, pending, 1)
	assert.Equal(t, syncq.StatePendingSync, pending[0].State)
	assert.Equal(t, entity.ItemStatusOK, svc.Snapshot().Properties[0].Items[0].Status, "sin rollback")

	repo.set(func(r *flakyRepo) { r.failUpdate = false })
	assert.Equal(t, 1, svc.RetryPending())
	q.Drain()
	assert.Empty(t, svc.PendingSync())

	remote, err := repo.AuditStore.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ItemStatusOK, remote.Properties[0].Items[0].Status)
}

func TestUpdateItem_FalloPrevioNoSePierdeConUpdatePosterior(t *testing.T) {
	repo := newFlakyRepo()
	svc, q := newService(t, repo, nil)
	svc.Load(context.Background())
	id := firstItemID(t, svc)

	repo.set(func(r *flakyRepo) { r.failUpdate = true })
	ok := string(entity.ItemStatusOK)
	_, _, err := svc.UpdateItem(id, dto.UpdateItemRequest{Status: &ok})
	require.NoError(t, err)
	q.Drain()
	require.Len(t, svc.PendingSync(), 1)

	repo.set(func(r *flakyRepo) { r.failUpdate = false })
	notes := "protocolo 4471"
	_, _, err = svc.UpdateItem(id, dto.UpdateItemRequest{Notes: &notes})
	require.NoError(t, err)
	q.Drain()

	remote, err := repo.AuditStore.FetchAll(context.Background())
	require.NoError(t, err)
	got := remote.Properties[0].Items[0]
	require.Equal(t, id, got.ID)
	assert.Equal(t, entity.ItemStatusOK, got.Status, "el estado del update fallido llega con el siguiente")
	assert.Equal(t, notes, got.Notes)
	assert.Empty(t, svc.PendingSync())
}

func TestUpdateItem_EstadoInvalido(t *testing.T) {
	svc, _ := newService(t, newFlakyRepo(), nil)
	svc.Load(context.Background())
	bad := "aprobado"
	_, _, err := svc.UpdateItem(firstItemID(t, svc), dto.UpdateItemRequest{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	ok := "ok"
	_, _, err = svc.UpdateItem("no-existe", dto.UpdateItemRequest{Status: &ok})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Ônus y cascada ────────────────────────────────────────────────────────────

func TestCreateLien_Validaciones(t *testing.T) {
	svc, _ := newService(t, newFlakyRepo(), nil)
	svc.Load(context.Background())
	propID := svc.Snapshot().Properties[0].ID

	_, _, err := svc.CreateLien(context.Background(), dto.CreateLienRequest{PropertyID: "fantasma", Type: "Hipoteca", Value: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = svc.CreateLien(context.Background(), dto.CreateLienRequest{PropertyID: propID, Type: "Hipoteca", Value: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)

	l, state, err := svc.CreateLien(context.Background(), dto.CreateLienRequest{PropertyID: propID, Type: "Hipoteca", Value: decimal.NewFromInt(500000)})
	require.NoError(t, err)
	assert.Equal(t, syncq.StateSynced, state)
	assert.True(t, l.IsActive, "activo por defecto")
}

func TestDeleteProperty_CascadaYHuerfanoObservable(t *testing.T) {
	repo := newFlakyRepo()
	svc, q := newService(t, repo, nil)
	ctx := context.Background()
	svc.Load(ctx)
	propID := svc.Snapshot().Properties[0].ID

	l, _, err := svc.CreateLien(ctx, dto.CreateLienRequest{PropertyID: propID, Type: "Penhora", Value: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	repo.set(func(r *flakyRepo) { r.failLien = true })
	_, err = svc.DeleteProperty(propID)
	require.NoError(t, err)
	q.Drain()

	st := svc.Snapshot()
	assert.Empty(t, st.Properties)
	assert.Empty(t, st.Liens, "en memoria la cascada es total")

	pending := svc.PendingSync()
	require.Len(t, pending, 1)
	assert.Equal(t, audit.KindLien, pending[0].Kind)
	assert.Equal(t, l.ID, pending[0].EntityID)

	remote, err := repo.AuditStore.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, remote.Properties)
	assert.Len(t, remote.Liens, 1, "el ônus queda huérfano en el almacén")

	_, err = svc.DeleteProperty(propID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateLien_PropiedadBorradaDuranteElAlta(t *testing.T) {
	for _, failDelete := range []bool{false, true} {
		t.Run(fmt.Sprintf("fallo borrado=%v", failDelete), func(t *testing.T) {
			repo := newFlakyRepo()
			svc, q := newService(t, repo, nil)
			ctx := context.Background()
			svc.Load(ctx)
			propID := svc.Snapshot().Properties[0].ID

			repo.set(func(r *flakyRepo) {
				r.failLien = failDelete
				r.onCreateLien = func() {
					_, err := svc.DeleteProperty(propID)
					require.NoError(t, err)
				}
			})
			_, _, err := svc.CreateLien(ctx, dto.CreateLienRequest{PropertyID: propID, Type: "Hipoteca", Value: decimal.NewFromInt(1000)})
			assert.ErrorIs(t, err, domain.ErrNotFound)
			q.Drain()

			assert.Empty(t, svc.Snapshot().Liens)
			remote, err := repo.AuditStore.FetchAll(ctx)
			require.NoError(t, err)
			pending := svc.PendingSync()
			if !failDelete {
				assert.Empty(t, remote.Liens, "el alta remota se deshace")
				assert.Empty(t, pending)
				return
			}
			require.Len(t, remote.Liens, 1)
			require.Len(t, pending, 1, "el huérfano queda observable")
			assert.Equal(t, audit.KindLien, pending[0].Kind)
			assert.Equal(t, remote.Liens[0].ID, pending[0].EntityID)
			assert.Equal(t, "delete", pending[0].Op)
		})
	}
}

// ── Lecturas derivadas ────────────────────────────────────────────────────────

func TestSummaryYListItems(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	svc.Load(context.Background())

	before := svc.Summary()
	assert.Equal(t, 0, before.CompletionPercent)

	ok := string(entity.ItemStatusOK)
	issue := string(entity.ItemStatusIssue)
	st := svc.Snapshot()
	_, state, err := svc.UpdateItem(st.Properties[0].Items[0].ID, dto.UpdateItemRequest{Status: &ok})
	require.NoError(t, err)
	assert.Equal(t, syncq.StateLocal, state, "sin almacén todo es local")
	_, _, err = svc.UpdateItem(st.Parties[0].Items[0].ID, dto.UpdateItemRequest{Status: &issue})
	require.NoError(t, err)

	after := svc.Summary()
	assert.Equal(t, 1, after.Counts.OK)
	assert.Equal(t, 1, after.RiskCount)
	assert.Equal(t, before.TotalItems, after.TotalItems)

	issues := svc.ListItems("issue", checklist.SortDefault)
	require.Len(t, issues, 1)
	assert.Equal(t, st.Parties[0].ID, issues[0].OwnerID)

	byPriority := svc.ListItems("all", checklist.SortPriority)
	require.Len(t, byPriority, after.TotalItems)
	assert.Equal(t, entity.ItemStatusIssue, byPriority[0].Status)
}

func TestSearchParties(t *testing.T) {
	svc, _ := newService(t, nil, nil)
	svc.Load(context.Background())
	_, _, err := svc.CreateParty(context.Background(), dto.CreatePartyRequest{
		Kind: "legal-entity", Role: "buyer", Name: "Agro Cerrado Ltda", TaxDoc: "12.345.678/0001-90",
	})
	require.NoError(t, err)

	assert.Len(t, svc.SearchParties("cerrado"), 1)
	assert.Len(t, svc.SearchParties("0001-90"), 1)
	assert.Len(t, svc.SearchParties(""), 3)
}

func TestFlush_EscribeCache(t *testing.T) {
	cache := newMapCache()
	svc, _ := newService(t, nil, cache)
	svc.Load(context.Background())
	svc.UpdateGeneralNotes("Parecer favorável com ressalvas")

	assert.True(t, svc.Flush())
	blob, err := cache.Get(context.Background(), cacheKey)
	require.NoError(t, err)
	var st entity.AuditState
	require.NoError(t, json.Unmarshal(blob, &st))
	assert.Equal(t, "Parecer favorável com ressalvas", st.GeneralNotes)
	assert.False(t, svc.Flush(), "nada pendiente")
}
