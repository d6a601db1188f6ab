// Package finance contiene los cálculos derivados del dashboard AgroFinance:
// asignación en cascada de pagos sobre parcelas, estado de exhibición del contrato,
// cronograma de parcelas y proyección mensual de flujo de caja.
//
// Todas las funciones son puras: reciben el estado completo y no lo mutan.
package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// Tolerance absorbe el redondeo de dividir el principal entre N parcelas.
var Tolerance = decimal.NewFromFloat(0.01)

// InstallmentStatus estado derivado de una parcela.
type InstallmentStatus string

const (
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentPending InstallmentStatus = "pending"
)

// Allocation resultado de la cascada para una parcela.
type Allocation struct {
	Installment entity.Installment `json:"installment"`
	PriorSum    decimal.Decimal    `json:"prior_sum"` // suma de parcelas con secuencia menor
	Covered     decimal.Decimal    `json:"covered"`   // parte de la parcela cubierta por el total pago
	Remaining   decimal.Decimal    `json:"remaining"` // saldo de la parcela
	Status      InstallmentStatus  `json:"status"`
	Synthetic   bool               `json:"synthetic,omitempty"` // contrato sin parcelas
}

// SortedInstallments copia las parcelas ordenadas por SequenceNumber ascendente.
// El orden entre parcelas con la misma secuencia se conserva.
func SortedInstallments(list []entity.Installment) []entity.Installment {
	out := append([]entity.Installment(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceNumber < out[j].SequenceNumber
	})
	return out
}

// EffectiveInstallments devuelve las parcelas ordenadas del contrato o, si no tiene,
// una parcela sintética por PrincipalAmount con vencimiento en FinalDueDate.
func EffectiveInstallments(c *entity.Contract) (list []entity.Installment, synthetic bool) {
	if len(c.Installments) == 0 {
		return []entity.Installment{{
			ID:             c.ID + "-unica",
			SequenceNumber: 1,
			DueDate:        c.FinalDueDate,
			OriginalAmount: c.PrincipalAmount,
		}}, true
	}
	return SortedInstallments(c.Installments), false
}

// RemainingFor saldo de una parcela dado el total pago y la suma de las anteriores:
// max(0, amount - max(0, paid - priorSum)).
func RemainingFor(paid, priorSum, amount decimal.Decimal) decimal.Decimal {
	coverage := paid.Sub(priorSum)
	if coverage.IsNegative() {
		coverage = decimal.Zero
	}
	remaining := amount.Sub(coverage)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Classify deriva el estado de la parcela a partir de su saldo.
func Classify(remaining, amount decimal.Decimal) InstallmentStatus {
	switch {
	case remaining.LessThanOrEqual(Tolerance):
		return InstallmentPaid
	case remaining.IsPositive() && remaining.LessThan(amount):
		return InstallmentPartial
	default:
		return InstallmentPending
	}
}

// Allocate aplica el total pago sobre las parcelas en orden de secuencia (cascada):
// cada parcela se cubre por completo antes de que algo pase a la siguiente.
func Allocate(paid decimal.Decimal, installments []entity.Installment) []Allocation {
	sorted := SortedInstallments(installments)
	out := make([]Allocation, 0, len(sorted))

	// priorSum solo incluye secuencias estrictamente menores.
	running := decimal.Zero
	prior := decimal.Zero
	for i, inst := range sorted {
		if i > 0 && inst.SequenceNumber != sorted[i-1].SequenceNumber {
			prior = running
		}
		remaining := RemainingFor(paid, prior, inst.OriginalAmount)
		covered := inst.OriginalAmount.Sub(remaining)
		if covered.IsNegative() {
			covered = decimal.Zero
		}
		out = append(out, Allocation{
			Installment: inst,
			PriorSum:    prior,
			Covered:     covered,
			Remaining:   remaining,
			Status:      Classify(remaining, inst.OriginalAmount),
		})
		running = running.Add(inst.OriginalAmount)
	}
	return out
}

// AllocateContract aplica la cascada al contrato, con la parcela sintética si no tiene cronograma.
func AllocateContract(c *entity.Contract) []Allocation {
	list, synthetic := EffectiveInstallments(c)
	out := Allocate(c.PaidAmount, list)
	if synthetic {
		for i := range out {
			out[i].Synthetic = true
		}
	}
	return out
}

// TotalRemaining suma los saldos de una asignación.
func TotalRemaining(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Remaining)
	}
	return total
}

// NextDue primera parcela no paga, o nil si todas están cubiertas.
func NextDue(allocs []Allocation) *Allocation {
	for i := range allocs {
		if allocs[i].Status != InstallmentPaid {
			return &allocs[i]
		}
	}
	return nil
}
