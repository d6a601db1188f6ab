package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
)

var _ repository.ContractRepository = (*ContractStore)(nil)

// ContractStore contratos en memoria; guarda copias para que el caller no comparta slices.
type ContractStore struct {
	mu        sync.RWMutex
	contracts []*entity.Contract
}

// NewContractStore almacén vacío.
func NewContractStore() *ContractStore {
	return &ContractStore{}
}

func (s *ContractStore) List(ctx context.Context) ([]*entity.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Contract, len(s.contracts))
	for i, c := range s.contracts {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *ContractStore) Create(ctx context.Context, c *entity.Contract) (*entity.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := c.Clone()
	stored.ID = uuid.New().String()
	s.contracts = append(s.contracts, stored)
	return stored.Clone(), nil
}

func (s *ContractStore) Update(ctx context.Context, c *entity.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contracts {
		if s.contracts[i].ID == c.ID {
			s.contracts[i] = c.Clone()
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *ContractStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contracts {
		if s.contracts[i].ID == id {
			s.contracts = append(s.contracts[:i], s.contracts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
