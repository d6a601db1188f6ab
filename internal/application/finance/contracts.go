package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
)

// CreateContract da de alta el contrato. Con InstallmentCount > 0 genera el cronograma
// mensual dividiendo el principal; la última parcela absorbe el resto del redondeo.
func (s *Service) CreateContract(ctx context.Context, in dto.CreateContractRequest) (dto.ContractView, error) {
	lender := strings.TrimSpace(in.Lender)
	if lender == "" {
		return dto.ContractView{}, fmt.Errorf("%w: acreedor obligatorio", domain.ErrInvalidInput)
	}
	if in.PrincipalAmount.IsNegative() || in.AnnualRate.IsNegative() {
		return dto.ContractView{}, domain.ErrNegativeAmount
	}
	if in.FinalDueDate.IsZero() {
		return dto.ContractView{}, fmt.Errorf("%w: vencimiento final obligatorio", domain.ErrInvalidInput)
	}
	rate := entity.RateIndex(in.RateIndex)
	if rate == "" {
		rate = entity.RateNone
	}
	if !rate.Valid() {
		return dto.ContractView{}, fmt.Errorf("%w: indexador %q", domain.ErrInvalidInput, in.RateIndex)
	}
	start := in.StartDate
	if start.IsZero() {
		start = s.now()
	}
	if in.FinalDueDate.Before(start) {
		return dto.ContractView{}, fmt.Errorf("%w: vencimiento anterior al inicio", domain.ErrInvalidInput)
	}

	c := &entity.Contract{
		Lender:          lender,
		ContractNumber:  strings.TrimSpace(in.ContractNumber),
		RateIndex:       rate,
		AnnualRate:      in.AnnualRate,
		PrincipalAmount: in.PrincipalAmount,
		PaidAmount:      decimal.Zero,
		Payments:        []entity.Payment{},
		Installments:    []entity.Installment{},
		StartDate:       start,
		FinalDueDate:    in.FinalDueDate,
	}
	if in.InstallmentCount > 0 {
		list, err := finance.GenerateSchedule(in.PrincipalAmount, in.InstallmentCount, in.FinalDueDate, s.newID)
		if err != nil {
			return dto.ContractView{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		c.Installments = list
	}
	c.Status = finance.StoredStatus(c, s.now())

	state := syncq.StateLocal
	if s.repo != nil {
		createCtx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		created, err := s.repo.Create(createCtx, c)
		cancel()
		if err == nil && created != nil && created.ID != "" {
			c.ID = created.ID
			state = syncq.StateSynced
		} else {
			if err == nil {
				err = domain.ErrStoreUnavailable
			}
			c.ID = LocalIDPrefix + s.newID()
			s.log.Warn().Err(err).Str("id", c.ID).Msg("alta remota de contrato fallida, guardado localmente")
			s.tracker.MarkPending(KindContract, c.ID, "create", syncq.StateLocal, err, nil)
		}
	} else {
		c.ID = LocalIDPrefix + s.newID()
	}

	s.mu.Lock()
	s.contracts = append(s.contracts, c)
	v := s.view(c, state)
	s.mu.Unlock()
	s.debounce.Trigger()
	return v, nil
}

// UpdateContract edita los datos del contrato. Cambiar el principal no rebalancea las parcelas.
func (s *Service) UpdateContract(id string, in dto.UpdateContractRequest) (dto.ContractView, error) {
	if in.Lender != nil && strings.TrimSpace(*in.Lender) == "" {
		return dto.ContractView{}, fmt.Errorf("%w: acreedor obligatorio", domain.ErrInvalidInput)
	}
	if (in.PrincipalAmount != nil && in.PrincipalAmount.IsNegative()) || (in.AnnualRate != nil && in.AnnualRate.IsNegative()) {
		return dto.ContractView{}, domain.ErrNegativeAmount
	}
	if in.RateIndex != nil && !entity.RateIndex(*in.RateIndex).Valid() {
		return dto.ContractView{}, fmt.Errorf("%w: indexador %q", domain.ErrInvalidInput, *in.RateIndex)
	}
	return s.mutate(id, func(c *entity.Contract) error {
		if in.Lender != nil {
			c.Lender = strings.TrimSpace(*in.Lender)
		}
		if in.ContractNumber != nil {
			c.ContractNumber = strings.TrimSpace(*in.ContractNumber)
		}
		if in.RateIndex != nil {
			c.RateIndex = entity.RateIndex(*in.RateIndex)
		}
		if in.AnnualRate != nil {
			c.AnnualRate = *in.AnnualRate
		}
		if in.PrincipalAmount != nil {
			c.PrincipalAmount = *in.PrincipalAmount
		}
		if in.StartDate != nil {
			c.StartDate = *in.StartDate
		}
		if in.FinalDueDate != nil {
			c.FinalDueDate = *in.FinalDueDate
		}
		return nil
	})
}

// DeleteContract quita el contrato.
func (s *Service) DeleteContract(id string) (syncq.State, error) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.contracts {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return "", domain.ErrNotFound
	}
	s.contracts = append(s.contracts[:idx], s.contracts[idx+1:]...)
	s.mu.Unlock()

	state := syncq.StateLocal
	if s.repo != nil && !isLocalID(id) {
		s.queue.Enqueue(syncq.Task{Kind: KindContract, EntityID: id, Op: "delete", Run: func(ctx context.Context) error {
			return s.repo.Delete(ctx, id)
		}})
		state = s.tracker.State(KindContract, id)
	} else {
		s.tracker.MarkSynced(KindContract, id)
	}
	s.debounce.Trigger()
	return state, nil
}

// mutate aplica fn sobre el contrato, re-deriva pago y estado, y agenda la escritura remota.
func (s *Service) mutate(id string, fn func(c *entity.Contract) error) (dto.ContractView, error) {
	s.mu.Lock()
	c := s.find(id)
	if c == nil {
		s.mu.Unlock()
		return dto.ContractView{}, domain.ErrNotFound
	}
	work := c.Clone()
	if err := fn(work); err != nil {
		s.mu.Unlock()
		return dto.ContractView{}, err
	}
	work.PaidAmount = finance.SumPayments(work.Payments)
	work.Status = finance.StoredStatus(work, s.now())
	*c = *work
	snapshot := c.Clone()
	s.mu.Unlock()

	state := s.enqueueUpdate(snapshot)
	s.debounce.Trigger()
	return s.view(snapshot, state), nil
}
