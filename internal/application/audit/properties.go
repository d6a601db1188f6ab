package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// CreateProperty da de alta el imóvel y su checklist inicial.
//
// Son llamadas remotas secuenciales sin atomicidad: si el alta de la propiedad funciona
// pero falla un ítem, ese ítem queda con ID local y la copia en memoria sigue completa.
func (s *Service) CreateProperty(ctx context.Context, in dto.CreatePropertyRequest) (entity.Property, syncq.State, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return entity.Property{}, "", fmt.Errorf("%w: nombre obligatorio", domain.ErrInvalidInput)
	}
	if in.Area.IsNegative() {
		return entity.Property{}, "", fmt.Errorf("%w: área", domain.ErrNegativeAmount)
	}
	p := entity.Property{
		Name:               name,
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		RegistryOffice:     strings.TrimSpace(in.RegistryOffice),
		Municipality:       strings.TrimSpace(in.Municipality),
		Area:               in.Area,
	}
	id, state := s.createRemote(ctx, KindProperty, false, func(ctx context.Context) (string, error) {
		created, err := s.repo.CreateProperty(ctx, p)
		return created.ID, err
	})
	p.ID = id
	p.Items = []entity.ChecklistItem{}

	if !in.SkipChecklist {
		p.Items = s.seedItems(ctx, entity.OwnerProperty, p.ID, audit.PropertyChecklist(s.now(), s.newID))
	}

	s.mu.Lock()
	s.state.Properties = append(s.state.Properties, p)
	s.mu.Unlock()
	s.changed()
	return clonePropertyValue(p), state, nil
}

// UpdateProperty aplica los campos informados.
func (s *Service) UpdateProperty(id string, in dto.UpdatePropertyRequest) (entity.Property, syncq.State, error) {
	if in.Area != nil && in.Area.IsNegative() {
		return entity.Property{}, "", fmt.Errorf("%w: área", domain.ErrNegativeAmount)
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return entity.Property{}, "", fmt.Errorf("%w: nombre obligatorio", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	i := s.propertyIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return entity.Property{}, "", domain.ErrNotFound
	}
	p := &s.state.Properties[i]
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.RegistrationNumber != nil {
		p.RegistrationNumber = strings.TrimSpace(*in.RegistrationNumber)
	}
	if in.RegistryOffice != nil {
		p.RegistryOffice = strings.TrimSpace(*in.RegistryOffice)
	}
	if in.Municipality != nil {
		p.Municipality = strings.TrimSpace(*in.Municipality)
	}
	if in.Area != nil {
		p.Area = *in.Area
	}
	out := clonePropertyValue(*p)
	s.mu.Unlock()

	remote := out
	remote.Items = nil
	state := s.enqueue(KindProperty, id, "update", func(ctx context.Context) error {
		return s.repo.UpdateProperty(ctx, remote)
	})
	s.changed()
	return out, state, nil
}

// DeleteProperty borra la propiedad, sus ítems y todos los ônus que la referencian.
//
// En memoria la cascada es total. En el almacén los ítems caen por FK junto con la
// propiedad; los ônus se borran uno a uno y un fallo deja el ônus huérfano en
// pending-sync, visible en PendingSync.
func (s *Service) DeleteProperty(id string) (syncq.State, error) {
	s.mu.Lock()
	i := s.propertyIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return "", domain.ErrNotFound
	}
	removed := s.state.Properties[i]
	s.state.Properties = append(s.state.Properties[:i], s.state.Properties[i+1:]...)

	var liens []string
	kept := s.state.Liens[:0]
	for _, l := range s.state.Liens {
		if l.PropertyID == id {
			liens = append(liens, l.ID)
			continue
		}
		kept = append(kept, l)
	}
	s.state.Liens = kept
	s.mu.Unlock()

	state := s.enqueue(KindProperty, id, "delete", func(ctx context.Context) error {
		return s.repo.DeleteProperty(ctx, id)
	})
	for _, lienID := range liens {
		lienID := lienID
		s.enqueue(KindLien, lienID, "delete", func(ctx context.Context) error {
			return s.repo.DeleteLien(ctx, lienID)
		})
		s.forget(KindLien, lienID)
	}
	for _, it := range removed.Items {
		s.forget(KindItem, it.ID)
	}
	s.forget(KindProperty, id)
	s.changed()
	return state, nil
}

// propertyIndex requiere s.mu tomado.
func (s *Service) propertyIndex(id string) int {
	for i := range s.state.Properties {
		if s.state.Properties[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePropertyValue(p entity.Property) entity.Property {
	p.Items = append([]entity.ChecklistItem{}, p.Items...)
	return p
}
