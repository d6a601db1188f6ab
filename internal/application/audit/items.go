package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// AddItem agrega un ítem al checklist de una propiedad o parte.
func (s *Service) AddItem(ctx context.Context, ownerType entity.OwnerType, ownerID string, in dto.CreateItemRequest) (entity.ChecklistItem, syncq.State, error) {
	status := entity.ItemStatus(in.Status)
	if status == "" {
		status = entity.ItemStatusPending
	}
	if !status.Valid() {
		return entity.ChecklistItem{}, "", fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, in.Status)
	}
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" {
		return entity.ChecklistItem{}, "", fmt.Errorf("%w: categoría y nombre obligatorios", domain.ErrInvalidInput)
	}
	if ownerType != entity.OwnerProperty && ownerType != entity.OwnerParty {
		return entity.ChecklistItem{}, "", fmt.Errorf("%w: dueño %q", domain.ErrInvalidInput, ownerType)
	}

	s.mu.RLock()
	exists := s.ownerIndex(ownerType, ownerID) >= 0
	s.mu.RUnlock()
	if !exists {
		return entity.ChecklistItem{}, "", domain.ErrNotFound
	}

	item := entity.ChecklistItem{
		Category:    category,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Notes:       in.Notes,
		UpdatedAt:   s.now(),
	}
	id, state := s.createRemote(ctx, KindItem, isLocalID(ownerID), func(ctx context.Context) (string, error) {
		created, err := s.repo.CreateAuditItem(ctx, ownerType, ownerID, item)
		return created.ID, err
	})
	item.ID = id

	s.mu.Lock()
	i := s.ownerIndex(ownerType, ownerID)
	if i < 0 {
		// El dueño se borró durante la llamada remota.
		s.mu.Unlock()
		s.discardCreated(KindItem, item.ID, s.deleteItemRemote)
		return entity.ChecklistItem{}, "", domain.ErrNotFound
	}
	if ownerType == entity.OwnerProperty {
		s.state.Properties[i].Items = append(s.state.Properties[i].Items, item)
	} else {
		s.state.Parties[i].Items = append(s.state.Parties[i].Items, item)
	}
	s.mu.Unlock()
	s.changed()
	return item, state, nil
}

// UpdateItem cambia estado, notas o textos del ítem y refresca UpdatedAt.
// No hay grafo de transiciones: cualquier estado puede pasar a cualquier otro.
// Al almacén se envía el ítem completo, así un fallo previo no queda tapado por un
// update posterior de otro campo.
func (s *Service) UpdateItem(id string, in dto.UpdateItemRequest) (entity.ChecklistItem, syncq.State, error) {
	var status entity.ItemStatus
	if in.Status != nil {
		status = entity.ItemStatus(*in.Status)
		if !status.Valid() {
			return entity.ChecklistItem{}, "", fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, *in.Status)
		}
	}
	var name, category string
	if in.Name != nil {
		if name = strings.TrimSpace(*in.Name); name == "" {
			return entity.ChecklistItem{}, "", fmt.Errorf("%w: nombre obligatorio", domain.ErrInvalidInput)
		}
	}
	if in.Category != nil {
		if category = strings.TrimSpace(*in.Category); category == "" {
			return entity.ChecklistItem{}, "", fmt.Errorf("%w: categoría obligatoria", domain.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	it := s.findItem(id)
	if it == nil {
		s.mu.Unlock()
		return entity.ChecklistItem{}, "", domain.ErrNotFound
	}
	if in.Status != nil {
		it.Status = status
	}
	if in.Name != nil {
		it.Name = name
	}
	if in.Category != nil {
		it.Category = category
	}
	if in.Description != nil {
		it.Description = strings.TrimSpace(*in.Description)
	}
	if in.Notes != nil {
		it.Notes = *in.Notes
	}
	it.UpdatedAt = s.now()
	out := *it
	s.mu.Unlock()

	state := s.enqueue(KindItem, id, "update", func(ctx context.Context) error {
		return s.repo.UpdateAuditItem(ctx, out)
	})
	s.changed()
	return out, state, nil
}

// DeleteItem quita el ítem de su dueño.
func (s *Service) DeleteItem(id string) (syncq.State, error) {
	s.mu.Lock()
	found := false
	for i := range s.state.Properties {
		if items, ok := removeItem(s.state.Properties[i].Items, id); ok {
			s.state.Properties[i].Items = items
			found = true
			break
		}
	}
	if !found {
		for i := range s.state.Parties {
			if items, ok := removeItem(s.state.Parties[i].Items, id); ok {
				s.state.Parties[i].Items = items
				found = true
				break
			}
		}
	}
	s.mu.Unlock()
	if !found {
		return "", domain.ErrNotFound
	}

	state := s.enqueue(KindItem, id, "delete", func(ctx context.Context) error {
		return s.repo.DeleteAuditItem(ctx, id)
	})
	s.forget(KindItem, id)
	s.changed()
	return state, nil
}

// ownerIndex requiere s.mu tomado.
func (s *Service) ownerIndex(ownerType entity.OwnerType, ownerID string) int {
	switch ownerType {
	case entity.OwnerProperty:
		return s.propertyIndex(ownerID)
	case entity.OwnerParty:
		return s.partyIndex(ownerID)
	}
	return -1
}

// findItem requiere s.mu tomado en escritura; devuelve un puntero dentro del estado.
func (s *Service) findItem(id string) *entity.ChecklistItem {
	for i := range s.state.Properties {
		for j := range s.state.Properties[i].Items {
			if s.state.Properties[i].Items[j].ID == id {
				return &s.state.Properties[i].Items[j]
			}
		}
	}
	for i := range s.state.Parties {
		for j := range s.state.Parties[i].Items {
			if s.state.Parties[i].Items[j].ID == id {
				return &s.state.Parties[i].Items[j]
			}
		}
	}
	return nil
}

func removeItem(items []entity.ChecklistItem, id string) ([]entity.ChecklistItem, bool) {
	for i := range items {
		if items[i].ID == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}

func (s *Service) deleteItemRemote(ctx context.Context, id string) error {
	return s.repo.DeleteAuditItem(ctx, id)
}
