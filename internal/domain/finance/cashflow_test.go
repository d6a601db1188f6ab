package finance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
)

func cartera() []*entity.Contract {
	return []*entity.Contract{
		{
			ID: "A", Lender: "Banco do Brasil", ContractNumber: "CPR-001",
			PrincipalAmount: d("3000"), PaidAmount: d("1500"),
			Installments: tresParcelas(), FinalDueDate: date(2026, 3, 15),
		},
		{
			ID: "B", Lender: "Sicredi", ContractNumber: "CCB-77",
			PrincipalAmount: d("2000"), PaidAmount: d("500"),
			FinalDueDate: date(2026, 2, 28),
		},
		{
			ID: "C", Lender: "Rabobank", ContractNumber: "NCR-9",
			PrincipalAmount: d("800"), PaidAmount: d("800"),
			FinalDueDate: date(2026, 1, 31),
		},
	}
}

func TestProjectCashFlow_AgrupaPorMes(t *testing.T) {
	p := finance.ProjectCashFlow(cartera(), date(2025, 12, 1))

	require.Len(t, p.Buckets, 2, "enero queda cubierto por el pago y C está quitado")
	assert.Equal(t, "2026-02", p.Buckets[0].Month)
	assert.Equal(t, "2000.00", p.Buckets[0].Total.StringFixed(2))
	require.Len(t, p.Buckets[0].Contracts, 2)
	assert.Equal(t, "A", p.Buckets[0].Contracts[0].ContractID)
	assert.Equal(t, "500.00", p.Buckets[0].Contracts[0].Amount.StringFixed(2))
	assert.Equal(t, "B", p.Buckets[0].Contracts[1].ContractID)
	assert.Equal(t, "1500.00", p.Buckets[0].Contracts[1].Amount.StringFixed(2))

	assert.Equal(t, "2026-03", p.Buckets[1].Month)
	assert.Equal(t, "1000.00", p.Buckets[1].Total.StringFixed(2))

	assert.Equal(t, "3000.00", p.Outstanding.StringFixed(2))
	assert.Equal(t, "3000.00", p.ProjectedTotal.StringFixed(2))
	assert.False(t, p.Reconciled)

	require.Len(t, p.Payoff, 2)
	assert.Equal(t, "1000.00", p.Payoff[0].Balance.StringFixed(2))
	assert.True(t, p.Payoff[1].Balance.IsZero())
}

func TestProjectCashFlow_ContratoUnaVezPorMes(t *testing.T) {
	c := &entity.Contract{
		ID: "M", PrincipalAmount: d("300"), FinalDueDate: date(2026, 7, 30),
		Installments: []entity.Installment{
			{ID: "1", SequenceNumber: 1, DueDate: date(2026, 7, 1), OriginalAmount: d("100")},
			{ID: "2", SequenceNumber: 2, DueDate: date(2026, 7, 15), OriginalAmount: d("100")},
			{ID: "3", SequenceNumber: 3, DueDate: date(2026, 7, 30), OriginalAmount: d("100")},
		},
	}
	p := finance.ProjectCashFlow([]*entity.Contract{c}, date(2026, 1, 1))

	require.Len(t, p.Buckets, 1)
	require.Len(t, p.Buckets[0].Contracts, 1)
	assert.Equal(t, "300.00", p.Buckets[0].Contracts[0].Amount.StringFixed(2))
}

func TestProjectCashFlow_ReconciliaFaltante(t *testing.T) {
	// El principal se editó sin regenerar parcelas: 2 x 450 = 900 != 1000.
	c := &entity.Contract{
		ID: "D", PrincipalAmount: d("1000"), FinalDueDate: date(2026, 5, 20),
		Installments: []entity.Installment{
			{ID: "1", SequenceNumber: 1, DueDate: date(2026, 4, 20), OriginalAmount: d("450")},
			{ID: "2", SequenceNumber: 2, DueDate: date(2026, 5, 20), OriginalAmount: d("450")},
		},
	}
	p := finance.ProjectCashFlow([]*entity.Contract{c}, date(2026, 1, 1))

	assert.True(t, p.Reconciled)
	assert.Equal(t, "100.00", p.Adjustment.StringFixed(2))
	assert.Equal(t, "550.00", p.Buckets[1].Total.StringFixed(2))
	assert.True(t, p.ProjectedTotal.Equal(p.Outstanding))
}

func TestProjectCashFlow_ReconciliaExceso(t *testing.T) {
	c := &entity.Contract{
		ID: "E", PrincipalAmount: d("800"), FinalDueDate: date(2026, 5, 20),
		Installments: []entity.Installment{
			{ID: "1", SequenceNumber: 1, DueDate: date(2026, 4, 20), OriginalAmount: d("450")},
			{ID: "2", SequenceNumber: 2, DueDate: date(2026, 5, 20), OriginalAmount: d("450")},
		},
	}
	p := finance.ProjectCashFlow([]*entity.Contract{c}, date(2026, 1, 1))

	assert.True(t, p.Reconciled)
	assert.Equal(t, "-100.00", p.Adjustment.StringFixed(2))
	assert.Equal(t, "350.00", p.Buckets[1].Total.StringFixed(2))
	assert.Equal(t, "800.00", p.ProjectedTotal.StringFixed(2))
}

func TestProjectCashFlow_CuotasCubiertasPeroSaldoCreaBucket(t *testing.T) {
	c := &entity.Contract{
		ID: "F", PrincipalAmount: d("1000"), PaidAmount: d("500"), FinalDueDate: date(2026, 9, 1),
		Installments: []entity.Installment{
			{ID: "1", SequenceNumber: 1, DueDate: date(2026, 8, 1), OriginalAmount: d("500")},
		},
	}
	p := finance.ProjectCashFlow([]*entity.Contract{c}, date(2026, 1, 1))

	require.Len(t, p.Buckets, 1)
	assert.Equal(t, "2026-09", p.Buckets[0].Month)
	assert.Equal(t, "500.00", p.Buckets[0].Total.StringFixed(2))
}

func TestProjectCashFlow_TotalReconciliado(t *testing.T) {
	contracts := cartera()
	contracts = append(contracts, &entity.Contract{
		ID: "G", PrincipalAmount: d("100"), FinalDueDate: date(2026, 6, 1),
		Installments: []entity.Installment{
			{ID: "1", SequenceNumber: 1, DueDate: date(2026, 5, 1), OriginalAmount: d("33.33")},
			{ID: "2", SequenceNumber: 2, DueDate: date(2026, 6, 1), OriginalAmount: d("33.33")},
			{ID: "3", SequenceNumber: 3, DueDate: date(2026, 6, 1), OriginalAmount: d("33.34")},
		},
	})
	p := finance.ProjectCashFlow(contracts, date(2026, 1, 1))

	expected := decimal.Zero
	for _, c := range contracts {
		if !finance.IsFullyPaid(c) {
			expected = expected.Add(c.PrincipalAmount.Sub(c.PaidAmount))
		}
	}
	assert.True(t, p.ProjectedTotal.Sub(expected).Abs().LessThanOrEqual(finance.ReconcileThreshold))
}

func TestProjectCashFlow_SinContratos(t *testing.T) {
	p := finance.ProjectCashFlow(nil, date(2026, 1, 1))
	assert.Empty(t, p.Buckets)
	assert.Empty(t, p.Payoff)
	assert.True(t, p.Outstanding.IsZero())
}

func TestProjectCashFlow_Idempotente(t *testing.T) {
	contracts := cartera()
	now := date(2026, 1, 1)
	assert.Equal(t, finance.ProjectCashFlow(contracts, now), finance.ProjectCashFlow(contracts, now))
}

func TestPayoffCurve_PisoEnCero(t *testing.T) {
	points := finance.PayoffCurve(d("100"), []finance.MonthBucket{
		{Month: "2026-01", Total: d("80")},
		{Month: "2026-02", Total: d("30")},
	})
	assert.Equal(t, "20.00", points[0].Balance.StringFixed(2))
	assert.True(t, points[1].Balance.IsZero())
}
