package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
)

var _ repository.ContractRepository = (*ContractRepo)(nil)

// ContractRepo contratos de crédito rural sobre PostgreSQL.
// Pagos y parcelas se guardan como JSONB en la misma fila.
type ContractRepo struct {
	q Querier
}

// NewContractRepository construye el adaptador. Pasar pool o tx (Querier).
func NewContractRepository(q Querier) *ContractRepo {
	return &ContractRepo{q: q}
}

const contractColumns = `id::text, lender, contract_number, rate_index, annual_rate, principal_amount,
	paid_amount, payments, installments, start_date, final_due_date, status`

// List devuelve todos los contratos por fecha de alta.
func (r *ContractRepo) List(ctx context.Context) ([]*entity.Contract, error) {
	rows, err := r.q.Query(ctx, `SELECT `+contractColumns+` FROM contracts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := []*entity.Contract{}
	for rows.Next() {
		var c entity.Contract
		if err := rows.Scan(&c.ID, &c.Lender, &c.ContractNumber, &c.RateIndex, &c.AnnualRate, &c.PrincipalAmount,
			&c.PaidAmount, &c.Payments, &c.Installments, &c.StartDate, &c.FinalDueDate, &c.Status); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		if c.Payments == nil {
			c.Payments = []entity.Payment{}
		}
		if c.Installments == nil {
			c.Installments = []entity.Installment{}
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Create inserta el contrato y devuelve una copia con el ID asignado.
func (r *ContractRepo) Create(ctx context.Context, c *entity.Contract) (*entity.Contract, error) {
	query := `
		INSERT INTO contracts (lender, contract_number, rate_index, annual_rate, principal_amount,
			paid_amount, payments, installments, start_date, final_due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id::text`
	out := c.Clone()
	err := r.q.QueryRow(ctx, query, c.Lender, c.ContractNumber, c.RateIndex, c.AnnualRate, c.PrincipalAmount,
		c.PaidAmount, payments(c), installments(c), c.StartDate, c.FinalDueDate, c.Status).Scan(&out.ID)
	if err != nil {
		return nil, fmt.Errorf("insert contract: %w", err)
	}
	return out, nil
}

// Update reescribe la fila completa.
func (r *ContractRepo) Update(ctx context.Context, c *entity.Contract) error {
	query := `
		UPDATE contracts SET
			lender = $2, contract_number = $3, rate_index = $4, annual_rate = $5, principal_amount = $6,
			paid_amount = $7, payments = $8, installments = $9, start_date = $10, final_due_date = $11,
			status = $12, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID, c.Lender, c.ContractNumber, c.RateIndex, c.AnnualRate, c.PrincipalAmount,
		c.PaidAmount, payments(c), installments(c), c.StartDate, c.FinalDueDate, c.Status)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el contrato.
func (r *ContractRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete contract: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// payments e installments nunca viajan como NULL: la columna JSONB es NOT NULL.
func payments(c *entity.Contract) []entity.Payment {
	if c.Payments == nil {
		return []entity.Payment{}
	}
	return c.Payments
}

func installments(c *entity.Contract) []entity.Installment {
	if c.Installments == nil {
		return []entity.Installment{}
	}
	return c.Installments
}
