package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// DisplayStatus estado de exhibición derivado (no almacenado).
type DisplayStatus string

const (
	DisplayPaid    DisplayStatus = "paid"
	DisplayOverdue DisplayStatus = "overdue"
	DisplayActive  DisplayStatus = "active"
)

// IsFullyPaid compara pago y principal con la tolerancia de 0,01.
func IsFullyPaid(c *entity.Contract) bool {
	return c.PaidAmount.GreaterThanOrEqual(c.PrincipalAmount.Sub(Tolerance))
}

// ContractDisplayStatus: paid si está quitado; overdue si el vencimiento final ya pasó;
// active en otro caso. now se compara por fecha (sin hora).
func ContractDisplayStatus(c *entity.Contract, now time.Time) DisplayStatus {
	if IsFullyPaid(c) {
		return DisplayPaid
	}
	if !c.FinalDueDate.IsZero() && dateOnly(c.FinalDueDate).Before(dateOnly(now)) {
		return DisplayOverdue
	}
	return DisplayActive
}

// StoredStatus traduce el estado de exhibición al estado persistido del contrato.
func StoredStatus(c *entity.Contract, now time.Time) entity.ContractStatus {
	switch ContractDisplayStatus(c, now) {
	case DisplayPaid:
		return entity.ContractPaid
	case DisplayOverdue:
		return entity.ContractPending
	default:
		return entity.ContractActive
	}
}

// SumPayments recalcula el total pago a partir de la lista de pagos.
func SumPayments(payments []entity.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
