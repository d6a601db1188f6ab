package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
)

const settlementNote = "Quitação"

// AddPayment registra un pago contra el total del contrato. No se asocia a una parcela:
// la cascada lo reparte por orden de secuencia.
func (s *Service) AddPayment(contractID string, in dto.PaymentRequest) (dto.ContractView, error) {
	if !in.Amount.IsPositive() {
		if in.Amount.IsNegative() {
			return dto.ContractView{}, domain.ErrNegativeAmount
		}
		return dto.ContractView{}, fmt.Errorf("%w: monto del pago debe ser mayor que cero", domain.ErrInvalidInput)
	}
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	p := entity.Payment{ID: s.newID(), Date: date, Amount: in.Amount, Note: strings.TrimSpace(in.Note)}
	return s.mutate(contractID, func(c *entity.Contract) error {
		c.Payments = append(c.Payments, p)
		return nil
	})
}

// DeletePayment quita un pago y recalcula el total pago.
func (s *Service) DeletePayment(contractID, paymentID string) (dto.ContractView, error) {
	return s.mutate(contractID, func(c *entity.Contract) error {
		for i := range c.Payments {
			if c.Payments[i].ID == paymentID {
				c.Payments = append(c.Payments[:i], c.Payments[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

// SettleContract registra un pago por el saldo devedor. Un contrato ya quitado no cambia.
func (s *Service) SettleContract(contractID string) (dto.ContractView, error) {
	return s.mutate(contractID, func(c *entity.Contract) error {
		rest := c.PrincipalAmount.Sub(finance.SumPayments(c.Payments))
		if !rest.GreaterThan(decimal.Zero) {
			return nil
		}
		c.Payments = append(c.Payments, entity.Payment{
			ID: s.newID(), Date: s.now(), Amount: rest, Note: settlementNote,
		})
		return nil
	})
}

// RevertSettlement borra todos los pagos del contrato y lo devuelve a abierto.
func (s *Service) RevertSettlement(contractID string) (dto.ContractView, error) {
	return s.mutate(contractID, func(c *entity.Contract) error {
		c.Payments = []entity.Payment{}
		return nil
	})
}
