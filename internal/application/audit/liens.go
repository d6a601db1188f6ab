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

// CreateLien registra un ônus. La propiedad debe existir en memoria; en el almacén la
// referencia es débil (sin FK) y puede quedar huérfana si falla un borrado remoto.
func (s *Service) CreateLien(ctx context.Context, in dto.CreateLienRequest) (entity.Lien, syncq.State, error) {
	if in.Value.IsNegative() {
		return entity.Lien{}, "", domain.ErrNegativeAmount
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		return entity.Lien{}, "", fmt.Errorf("%w: tipo de ônus obligatorio", domain.ErrInvalidInput)
	}
	s.mu.RLock()
	exists := s.propertyIndex(in.PropertyID) >= 0
	s.mu.RUnlock()
	if !exists {
		return entity.Lien{}, "", fmt.Errorf("%w: propiedad %q inexistente", domain.ErrInvalidInput, in.PropertyID)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	l := entity.Lien{
		PropertyID:                in.PropertyID,
		RegistrationEntry:         strings.TrimSpace(in.RegistrationEntry),
		RelatedRegistrationNumber: strings.TrimSpace(in.RelatedRegistrationNumber),
		Type:                      typ,
		Description:               strings.TrimSpace(in.Description),
		Creditor:                  strings.TrimSpace(in.Creditor),
		Value:                     in.Value,
		IsActive:                  active,
	}
	id, state := s.createRemote(ctx, KindLien, isLocalID(in.PropertyID), func(ctx context.Context) (string, error) {
		created, err := s.repo.CreateLien(ctx, l)
		return created.ID, err
	})
	l.ID = id

	s.mu.Lock()
	if s.propertyIndex(in.PropertyID) < 0 {
		s.mu.Unlock()
		s.discardCreated(KindLien, l.ID, s.deleteLienRemote)
		return entity.Lien{}, "", domain.ErrNotFound
	}
	s.state.Liens = append(s.state.Liens, l)
	s.mu.Unlock()
	s.changed()
	return l, state, nil
}

// UpdateLien aplica los campos informados. La propiedad del ônus no se puede cambiar.
func (s *Service) UpdateLien(id string, in dto.UpdateLienRequest) (entity.Lien, syncq.State, error) {
	if in.Value != nil && in.Value.IsNegative() {
		return entity.Lien{}, "", domain.ErrNegativeAmount
	}
	if in.Type != nil && strings.TrimSpace(*in.Type) == "" {
		return entity.Lien{}, "", fmt.Errorf("%w: tipo de ônus obligatorio", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	i := s.lienIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return entity.Lien{}, "", domain.ErrNotFound
	}
	l := &s.state.Liens[i]
	if in.RegistrationEntry != nil {
		l.RegistrationEntry = strings.TrimSpace(*in.RegistrationEntry)
	}
	if in.RelatedRegistrationNumber != nil {
		l.RelatedRegistrationNumber = strings.TrimSpace(*in.RelatedRegistrationNumber)
	}
	if in.Type != nil {
		l.Type = strings.TrimSpace(*in.Type)
	}
	if in.Description != nil {
		l.Description = strings.TrimSpace(*in.Description)
	}
	if in.Creditor != nil {
		l.Creditor = strings.TrimSpace(*in.Creditor)
	}
	if in.Value != nil {
		l.Value = *in.Value
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}
	out := *l
	s.mu.Unlock()

	state := s.enqueue(KindLien, id, "update", func(ctx context.Context) error {
		return s.repo.UpdateLien(ctx, out)
	})
	s.changed()
	return out, state, nil
}

// DeleteLien quita el ônus.
func (s *Service) DeleteLien(id string) (syncq.State, error) {
	s.mu.Lock()
	i := s.lienIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return "", domain.ErrNotFound
	}
	s.state.Liens = append(s.state.Liens[:i], s.state.Liens[i+1:]...)
	s.mu.Unlock()

	state := s.enqueue(KindLien, id, "delete", func(ctx context.Context) error {
		return s.repo.DeleteLien(ctx, id)
	})
	s.forget(KindLien, id)
	s.changed()
	return state, nil
}

// UpdateGeneralNotes reemplaza las observaciones generales.
func (s *Service) UpdateGeneralNotes(notes string) syncq.State {
	s.mu.Lock()
	s.state.GeneralNotes = notes
	s.mu.Unlock()

	state := s.enqueue(KindNotes, notesEntityID, "update", func(ctx context.Context) error {
		return s.repo.SaveGeneralNotes(ctx, notes)
	})
	s.changed()
	return state
}

// lienIndex requiere s.mu tomado.
func (s *Service) lienIndex(id string) int {
	for i := range s.state.Liens {
		if s.state.Liens[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) deleteLienRemote(ctx context.Context, id string) error {
	return s.repo.DeleteLien(ctx, id)
}
