package repository

import (
	"context"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// ContractRepository puerto del almacén remoto para los contratos del dashboard AgroFinance.
// Pagos y parcelas viajan junto con el contrato.
type ContractRepository interface {
	List(ctx context.Context) ([]*entity.Contract, error)
	Create(ctx context.Context, c *entity.Contract) (*entity.Contract, error)
	Update(ctx context.Context, c *entity.Contract) error
	Delete(ctx context.Context, id string) error
}
