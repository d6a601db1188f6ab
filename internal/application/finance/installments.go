package finance

import (
	"fmt"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
)

// UpdateInstallment edita monto o vencimiento de una parcela. Editar el monto
// re-sincroniza el principal con la suma de las parcelas.
func (s *Service) UpdateInstallment(contractID, installmentID string, in dto.UpdateInstallmentRequest) (dto.ContractView, error) {
	if in.OriginalAmount != nil && in.OriginalAmount.IsNegative() {
		return dto.ContractView{}, domain.ErrNegativeAmount
	}
	return s.mutate(contractID, func(c *entity.Contract) error {
		for i := range c.Installments {
			inst := &c.Installments[i]
			if inst.ID != installmentID {
				continue
			}
			if in.DueDate != nil {
				inst.DueDate = *in.DueDate
			}
			if in.OriginalAmount != nil {
				inst.OriginalAmount = *in.OriginalAmount
				c.PrincipalAmount = finance.SumInstallments(c.Installments)
			}
			return nil
		}
		return domain.ErrNotFound
	})
}

// RegenerateInstallments reemplaza el cronograma por count parcelas mensuales iguales
// que terminan en FinalDueDate. Los pagos no cambian.
func (s *Service) RegenerateInstallments(contractID string, count int) (dto.ContractView, error) {
	if count <= 0 {
		return dto.ContractView{}, fmt.Errorf("%w: cantidad de parcelas", domain.ErrInvalidInput)
	}
	return s.mutate(contractID, func(c *entity.Contract) error {
		if c.FinalDueDate.IsZero() {
			return fmt.Errorf("%w: contrato sin vencimiento final", domain.ErrInvalidInput)
		}
		list, err := finance.GenerateSchedule(c.PrincipalAmount, count, c.FinalDueDate, s.newID)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		c.Installments = list
		return nil
	})
}
