package finance

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
)

// Summary KPIs de cabecera: totales, conteo por estado de exhibición, saldo devedor
// y la parcela no paga de vencimiento más próximo entre contratos no quitados.
func (s *Service) Summary() dto.FinanceSummaryDTO {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := dto.FinanceSummaryDTO{
		ContractCount:  len(s.contracts),
		TotalPrincipal: decimal.Zero,
		TotalPaid:      decimal.Zero,
		Outstanding:    decimal.Zero,
	}
	for _, c := range s.contracts {
		out.TotalPrincipal = out.TotalPrincipal.Add(c.PrincipalAmount)
		out.TotalPaid = out.TotalPaid.Add(c.PaidAmount)

		status := finance.ContractDisplayStatus(c, now)
		switch status {
		case finance.DisplayPaid:
			out.PaidCount++
			continue
		case finance.DisplayOverdue:
			out.OverdueCount++
		default:
			out.ActiveCount++
		}
		out.Outstanding = out.Outstanding.Add(c.Outstanding())

		next := finance.NextDue(finance.AllocateContract(c))
		if next == nil {
			continue
		}
		if out.NextDue == nil || next.Installment.DueDate.Before(out.NextDue.DueDate) {
			out.NextDue = &dto.NextDueInstallment{
				ContractID:     c.ID,
				Lender:         c.Lender,
				ContractNumber: c.ContractNumber,
				SequenceNumber: next.Installment.SequenceNumber,
				DueDate:        next.Installment.DueDate,
				Remaining:      next.Remaining,
			}
		}
	}
	return out
}

// CashFlow proyección mensual de lo que falta pagar y curva de quitação.
func (s *Service) CashFlow() finance.Projection {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return finance.ProjectCashFlow(s.contracts, now)
}
