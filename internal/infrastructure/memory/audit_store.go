// Package memory implementa los puertos de almacén en memoria. Se usa cuando no hay
// base de datos configurada y como base de los fakes en tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditStore)(nil)

type itemRow struct {
	ownerType entity.OwnerType
	ownerID   string
	item      entity.ChecklistItem
}

// AuditStore tablas de la auditoría en memoria, con el mismo contrato que PostgreSQL:
// IDs generados por el almacén, ErrNotFound en updates/deletes de IDs inexistentes,
// borrado de propiedad/parte en cascada sobre sus ítems (los ônus no tienen FK).
type AuditStore struct {
	mu         sync.RWMutex
	properties []entity.Property
	parties    []entity.Party
	items      []itemRow
	liens      []entity.Lien
	notes      string
}

// NewAuditStore almacén vacío.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// FetchAll arma el estado completo con los ítems de cada dueño en orden de alta.
func (s *AuditStore) FetchAll(ctx context.Context) (*entity.AuditState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &entity.AuditState{
		Properties:   make([]entity.Property, 0, len(s.properties)),
		Parties:      make([]entity.Party, 0, len(s.parties)),
		Liens:        append([]entity.Lien{}, s.liens...),
		GeneralNotes: s.notes,
	}
	for _, p := range s.properties {
		p.Items = s.itemsOf(entity.OwnerProperty, p.ID)
		st.Properties = append(st.Properties, p)
	}
	for _, p := range s.parties {
		p.Items = s.itemsOf(entity.OwnerParty, p.ID)
		st.Parties = append(st.Parties, p)
	}
	return st, nil
}

func (s *AuditStore) itemsOf(ownerType entity.OwnerType, ownerID string) []entity.ChecklistItem {
	out := []entity.ChecklistItem{}
	for _, r := range s.items {
		if r.ownerType == ownerType && r.ownerID == ownerID {
			out = append(out, r.item)
		}
	}
	return out
}

// ── Propiedades ───────────────────────────────────────────────────────────────

func (s *AuditStore) CreateProperty(ctx context.Context, p entity.Property) (entity.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New().String()
	p.Items = nil
	s.properties = append(s.properties, p)
	return p, nil
}

func (s *AuditStore) UpdateProperty(ctx context.Context, p entity.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.properties {
		if s.properties[i].ID == p.ID {
			p.Items = nil
			s.properties[i] = p
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *AuditStore) DeleteProperty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.properties {
		if s.properties[i].ID == id {
			s.properties = append(s.properties[:i], s.properties[i+1:]...)
			s.dropItemsOf(entity.OwnerProperty, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── Partes ────────────────────────────────────────────────────────────────────

func (s *AuditStore) CreateParty(ctx context.Context, p entity.Party) (entity.Party, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New().String()
	p.Items = nil
	s.parties = append(s.parties, p)
	return p, nil
}

func (s *AuditStore) UpdateParty(ctx context.Context, p entity.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parties {
		if s.parties[i].ID == p.ID {
			p.Items = nil
			s.parties[i] = p
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *AuditStore) DeleteParty(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parties {
		if s.parties[i].ID == id {
			s.parties = append(s.parties[:i], s.parties[i+1:]...)
			s.dropItemsOf(entity.OwnerParty, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *AuditStore) dropItemsOf(ownerType entity.OwnerType, ownerID string) {
	kept := s.items[:0]
	for _, r := range s.items {
		if r.ownerType != ownerType || r.ownerID != ownerID {
			kept = append(kept, r)
		}
	}
	s.items = kept
}

// ── Ítems ─────────────────────────────────────────────────────────────────────

func (s *AuditStore) CreateAuditItem(ctx context.Context, ownerType entity.OwnerType, ownerID string, item entity.ChecklistItem) (entity.ChecklistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ownerExists(ownerType, ownerID) {
		return entity.ChecklistItem{}, domain.ErrNotFound
	}
	item.ID = uuid.New().String()
	s.items = append(s.items, itemRow{ownerType: ownerType, ownerID: ownerID, item: item})
	return item, nil
}

func (s *AuditStore) ownerExists(ownerType entity.OwnerType, ownerID string) bool {
	if ownerType == entity.OwnerProperty {
		for _, p := range s.properties {
			if p.ID == ownerID {
				return true
			}
		}
		return false
	}
	for _, p := range s.parties {
		if p.ID == ownerID {
			return true
		}
	}
	return false
}

func (s *AuditStore) UpdateAuditItem(ctx context.Context, item entity.ChecklistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].item.ID == item.ID {
			s.items[i].item = item
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *AuditStore) DeleteAuditItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── Ônus ──────────────────────────────────────────────────────────────────────

func (s *AuditStore) CreateLien(ctx context.Context, l entity.Lien) (entity.Lien, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.New().String()
	s.liens = append(s.liens, l)
	return l, nil
}

func (s *AuditStore) UpdateLien(ctx context.Context, l entity.Lien) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.liens {
		if s.liens[i].ID == l.ID {
			s.liens[i] = l
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *AuditStore) DeleteLien(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.liens {
		if s.liens[i].ID == id {
			s.liens = append(s.liens[:i], s.liens[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *AuditStore) SaveGeneralNotes(ctx context.Context, notes string) error {
	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	return nil
}
