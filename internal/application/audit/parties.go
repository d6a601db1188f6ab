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

// CreateParty da de alta comprador o vendedor con el checklist de su tipo.
func (s *Service) CreateParty(ctx context.Context, in dto.CreatePartyRequest) (entity.Party, syncq.State, error) {
	kind := entity.PartyKind(in.Kind)
	role := entity.PartyRole(in.Role)
	if kind != entity.PartyIndividual && kind != entity.PartyLegalEntity {
		return entity.Party{}, "", fmt.Errorf("%w: tipo de parte %q", domain.ErrInvalidInput, in.Kind)
	}
	if role != entity.PartyBuyer && role != entity.PartySeller {
		return entity.Party{}, "", fmt.Errorf("%w: papel %q", domain.ErrInvalidInput, in.Role)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return entity.Party{}, "", fmt.Errorf("%w: nombre obligatorio", domain.ErrInvalidInput)
	}
	p := entity.Party{Kind: kind, Role: role, Name: name, TaxDoc: strings.TrimSpace(in.TaxDoc)}

	id, state := s.createRemote(ctx, KindParty, false, func(ctx context.Context) (string, error) {
		created, err := s.repo.CreateParty(ctx, p)
		return created.ID, err
	})
	p.ID = id
	p.Items = []entity.ChecklistItem{}

	if !in.SkipChecklist {
		p.Items = s.seedItems(ctx, entity.OwnerParty, p.ID, audit.PartyChecklist(kind, s.now(), s.newID))
	}

	s.mu.Lock()
	s.state.Parties = append(s.state.Parties, p)
	s.mu.Unlock()
	s.changed()
	return clonePartyValue(p), state, nil
}

// UpdateParty aplica los campos informados. Cambiar el tipo no regenera el checklist.
func (s *Service) UpdateParty(id string, in dto.UpdatePartyRequest) (entity.Party, syncq.State, error) {
	if in.Kind != nil {
		k := entity.PartyKind(*in.Kind)
		if k != entity.PartyIndividual && k != entity.PartyLegalEntity {
			return entity.Party{}, "", fmt.Errorf("%w: tipo de parte %q", domain.ErrInvalidInput, *in.Kind)
		}
	}
	if in.Role != nil {
		r := entity.PartyRole(*in.Role)
		if r != entity.PartyBuyer && r != entity.PartySeller {
			return entity.Party{}, "", fmt.Errorf("%w: papel %q", domain.ErrInvalidInput, *in.Role)
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return entity.Party{}, "", fmt.Errorf("%w: nombre obligatorio", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	i := s.partyIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return entity.Party{}, "", domain.ErrNotFound
	}
	p := &s.state.Parties[i]
	if in.Kind != nil {
		p.Kind = entity.PartyKind(*in.Kind)
	}
	if in.Role != nil {
		p.Role = entity.PartyRole(*in.Role)
	}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.TaxDoc != nil {
		p.TaxDoc = strings.TrimSpace(*in.TaxDoc)
	}
	out := clonePartyValue(*p)
	s.mu.Unlock()

	remote := out
	remote.Items = nil
	state := s.enqueue(KindParty, id, "update", func(ctx context.Context) error {
		return s.repo.UpdateParty(ctx, remote)
	})
	s.changed()
	return out, state, nil
}

// DeleteParty borra la parte y sus ítems.
func (s *Service) DeleteParty(id string) (syncq.State, error) {
	s.mu.Lock()
	i := s.partyIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return "", domain.ErrNotFound
	}
	removed := s.state.Parties[i]
	s.state.Parties = append(s.state.Parties[:i], s.state.Parties[i+1:]...)
	s.mu.Unlock()

	state := s.enqueue(KindParty, id, "delete", func(ctx context.Context) error {
		return s.repo.DeleteParty(ctx, id)
	})
	for _, it := range removed.Items {
		s.forget(KindItem, it.ID)
	}
	s.forget(KindParty, id)
	s.changed()
	return state, nil
}

// partyIndex requiere s.mu tomado.
func (s *Service) partyIndex(id string) int {
	for i := range s.state.Parties {
		if s.state.Parties[i].ID == id {
			return i
		}
	}
	return -1
}

func clonePartyValue(p entity.Party) entity.Party {
	p.Items = append([]entity.ChecklistItem{}, p.Items...)
	return p
}
