package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// ReconcileThreshold diferencia máxima aceptada entre la suma de los buckets
// y el saldo devedor global antes de forzar el ajuste.
var ReconcileThreshold = decimal.NewFromInt(1)

// MonthKey clave año-mes (ej. "2026-03") usada para agrupar vencimientos.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ContractShare aporte de un contrato a un mes.
type ContractShare struct {
	ContractID     string          `json:"contract_id"`
	Lender         string          `json:"lender"`
	ContractNumber string          `json:"contract_number"`
	Amount         decimal.Decimal `json:"amount"`
}

// MonthBucket obligaciones pendientes que vencen en un mes calendario.
type MonthBucket struct {
	Month     string          `json:"month"`
	Total     decimal.Decimal `json:"total"`
	Contracts []ContractShare `json:"contracts"` // cada contrato aparece una sola vez
}

// PayoffPoint saldo devedor proyectado al cerrar cada mes.
type PayoffPoint struct {
	Month   string          `json:"month"`
	Balance decimal.Decimal `json:"balance"`
}

// Projection resultado de la proyección de flujo de caja.
type Projection struct {
	Buckets        []MonthBucket   `json:"buckets"`
	Payoff         []PayoffPoint   `json:"payoff"`
	Outstanding    decimal.Decimal `json:"outstanding"`     // suma(principal - pago) de contratos no pagos
	ProjectedTotal decimal.Decimal `json:"projected_total"` // suma de los buckets tras la reconciliación
	Adjustment     decimal.Decimal `json:"adjustment"`      // ajuste aplicado por la reconciliación
	Reconciled     bool            `json:"reconciled"`
}

type bucketBuilder struct {
	month  string
	total  decimal.Decimal
	shares []ContractShare
	index  map[string]int
}

// ProjectCashFlow agrupa por mes todo lo que falta pagar de los contratos no quitados.
//
// Por contrato se recorre el cronograma en orden de secuencia con un contador de pago
// no consumido (inicia en PaidAmount): si cubre la parcela se descuenta y la parcela no
// aporta nada; si no, la diferencia va al mes del vencimiento y el contador queda en cero.
// Contratos sin cronograma aportan principal - pago en el mes de FinalDueDate.
func ProjectCashFlow(contracts []*entity.Contract, now time.Time) Projection {
	builders := map[string]*bucketBuilder{}
	outstanding := decimal.Zero
	var latestDue time.Time

	add := func(month string, c *entity.Contract, amount decimal.Decimal) {
		b, ok := builders[month]
		if !ok {
			b = &bucketBuilder{month: month, total: decimal.Zero, index: map[string]int{}}
			builders[month] = b
		}
		b.total = b.total.Add(amount)
		if i, seen := b.index[c.ID]; seen {
			b.shares[i].Amount = b.shares[i].Amount.Add(amount)
			return
		}
		b.index[c.ID] = len(b.shares)
		b.shares = append(b.shares, ContractShare{
			ContractID: c.ID, Lender: c.Lender, ContractNumber: c.ContractNumber, Amount: amount,
		})
	}

	for _, c := range contracts {
		if c == nil || ContractDisplayStatus(c, now) == DisplayPaid {
			continue
		}
		outstanding = outstanding.Add(c.PrincipalAmount.Sub(c.PaidAmount))
		if c.FinalDueDate.After(latestDue) {
			latestDue = c.FinalDueDate
		}

		if len(c.Installments) == 0 {
			if rest := c.PrincipalAmount.Sub(c.PaidAmount); rest.IsPositive() {
				add(MonthKey(c.FinalDueDate), c, rest)
			}
			continue
		}

		unconsumed := c.PaidAmount
		for _, inst := range SortedInstallments(c.Installments) {
			if unconsumed.GreaterThanOrEqual(inst.OriginalAmount) {
				unconsumed = unconsumed.Sub(inst.OriginalAmount)
				continue
			}
			add(MonthKey(inst.DueDate), c, inst.OriginalAmount.Sub(unconsumed))
			unconsumed = decimal.Zero
		}
	}
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	buckets := make([]MonthBucket, 0, len(builders))
	for _, b := range builders {
		buckets = append(buckets, MonthBucket{Month: b.month, Total: b.total, Contracts: b.shares})
	}
	// "YYYY-MM" ordena cronológicamente como texto.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Month < buckets[j].Month })

	p := Projection{Buckets: buckets, Outstanding: outstanding, Adjustment: decimal.Zero}
	p.reconcile(latestDue, now)
	p.ProjectedTotal = sumBuckets(p.Buckets)
	p.Payoff = PayoffCurve(outstanding, p.Buckets)
	return p
}

// reconcile fuerza sum(buckets) == Outstanding cuando la deriva supera ReconcileThreshold.
// Un faltante se suma al último mes; un exceso se descuenta desde el último mes hacia atrás.
func (p *Projection) reconcile(latestDue, now time.Time) {
	diff := p.Outstanding.Sub(sumBuckets(p.Buckets))
	if diff.Abs().LessThanOrEqual(ReconcileThreshold) {
		return
	}
	p.Reconciled = true
	p.Adjustment = diff

	if diff.IsPositive() {
		if len(p.Buckets) == 0 {
			if latestDue.IsZero() {
				latestDue = now
			}
			p.Buckets = append(p.Buckets, MonthBucket{Month: MonthKey(latestDue), Total: decimal.Zero})
		}
		last := &p.Buckets[len(p.Buckets)-1]
		last.Total = last.Total.Add(diff)
		return
	}

	excess := diff.Neg()
	for i := len(p.Buckets) - 1; i >= 0 && excess.IsPositive(); i-- {
		take := decimal.Min(excess, p.Buckets[i].Total)
		p.Buckets[i].Total = p.Buckets[i].Total.Sub(take)
		excess = excess.Sub(take)
	}
	kept := p.Buckets[:0]
	for _, b := range p.Buckets {
		if b.Total.IsPositive() {
			kept = append(kept, b)
		}
	}
	p.Buckets = kept
}

// PayoffCurve descuenta mes a mes el total de cada bucket del saldo inicial, con piso en cero.
func PayoffCurve(start decimal.Decimal, buckets []MonthBucket) []PayoffPoint {
	balance := start
	out := make([]PayoffPoint, 0, len(buckets))
	for _, b := range buckets {
		balance = balance.Sub(b.Total)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		out = append(out, PayoffPoint{Month: b.Month, Balance: balance})
	}
	return out
}

func sumBuckets(buckets []MonthBucket) decimal.Decimal {
	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Total)
	}
	return total
}
