package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// SplitPrincipal divide el principal en n partes iguales truncadas a centavos;
// la última absorbe el resto para que la suma sea exactamente el principal.
func SplitPrincipal(principal decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("schedule: cantidad de parcelas inválida: %d", n)
	}
	if principal.IsNegative() {
		return nil, fmt.Errorf("schedule: principal negativo")
	}
	base := principal.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	out := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		out[i] = base
		allocated = allocated.Add(base)
	}
	out[n-1] = principal.Sub(allocated)
	return out, nil
}

// GenerateSchedule crea n parcelas mensuales cuya última vence en finalDue.
// newID genera el identificador de cada parcela.
func GenerateSchedule(principal decimal.Decimal, n int, finalDue time.Time, newID func() string) ([]entity.Installment, error) {
	amounts, err := SplitPrincipal(principal, n)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Installment, n)
	for i, amt := range amounts {
		out[i] = entity.Installment{
			ID:             newID(),
			SequenceNumber: i + 1,
			DueDate:        AddMonths(finalDue, -(n - 1 - i)),
			OriginalAmount: amt,
		}
	}
	return out, nil
}

// SumInstallments suma OriginalAmount; se usa para re-sincronizar el principal
// cuando se edita una parcela.
func SumInstallments(list []entity.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range list {
		total = total.Add(inst.OriginalAmount)
	}
	return total
}

// AddMonths suma meses manteniendo el día, limitado al último día del mes destino
// (31/03 - 1 mes = 28/02 o 29/02).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, months, 0)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
