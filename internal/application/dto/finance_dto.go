package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/finance"
)

// CreateContractRequest alta de contrato. InstallmentCount > 0 genera el cronograma
// dividiendo el principal en parcelas mensuales que terminan en FinalDueDate.
type CreateContractRequest struct {
	Lender           string          `json:"lender" validate:"required,max=200"`
	ContractNumber   string          `json:"contract_number" validate:"max=80"`
	RateIndex        string          `json:"rate_index" validate:"omitempty,oneof=CDI Fixed IPCA Selic None"`
	AnnualRate       decimal.Decimal `json:"annual_rate"`
	PrincipalAmount  decimal.Decimal `json:"principal_amount"`
	StartDate        time.Time       `json:"start_date"`
	FinalDueDate     time.Time       `json:"final_due_date" validate:"required"`
	InstallmentCount int             `json:"installment_count" validate:"min=0,max=600"`
}

// UpdateContractRequest edición de datos del contrato. Cambiar el principal no rebalancea parcelas.
type UpdateContractRequest struct {
	Lender          *string          `json:"lender" validate:"omitempty,min=1,max=200"`
	ContractNumber  *string          `json:"contract_number" validate:"omitempty,max=80"`
	RateIndex       *string          `json:"rate_index" validate:"omitempty,oneof=CDI Fixed IPCA Selic None"`
	AnnualRate      *decimal.Decimal `json:"annual_rate"`
	PrincipalAmount *decimal.Decimal `json:"principal_amount"`
	StartDate       *time.Time       `json:"start_date"`
	FinalDueDate    *time.Time       `json:"final_due_date"`
}

// PaymentRequest pago contra el total del contrato.
type PaymentRequest struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" validate:"max=500"`
}

// UpdateInstallmentRequest edición de una parcela; el principal se re-sincroniza con la suma.
type UpdateInstallmentRequest struct {
	DueDate        *time.Time       `json:"due_date"`
	OriginalAmount *decimal.Decimal `json:"original_amount"`
}

// RegenerateInstallmentsRequest reemplaza el cronograma por Count parcelas iguales.
type RegenerateInstallmentsRequest struct {
	Count int `json:"count" validate:"required,min=1,max=600"`
}

// ContractView contrato con los datos derivados para el dashboard.
type ContractView struct {
	Contract      *entity.Contract      `json:"contract"`
	DisplayStatus finance.DisplayStatus `json:"display_status"`
	Outstanding   decimal.Decimal       `json:"outstanding"`
	Allocations   []finance.Allocation  `json:"allocations"`
	NextDue       *finance.Allocation   `json:"next_due,omitempty"`
	Sync          SyncInfo              `json:"sync"`
}

// FinanceSummaryDTO KPIs de cabecera del dashboard AgroFinance.
type FinanceSummaryDTO struct {
	ContractCount  int                 `json:"contract_count"`
	ActiveCount    int                 `json:"active_count"`
	OverdueCount   int                 `json:"overdue_count"`
	PaidCount      int                 `json:"paid_count"`
	TotalPrincipal decimal.Decimal     `json:"total_principal"`
	TotalPaid      decimal.Decimal     `json:"total_paid"`
	Outstanding    decimal.Decimal     `json:"outstanding"`
	NextDue        *NextDueInstallment `json:"next_due,omitempty"`
}

// NextDueInstallment parcela no paga con vencimiento más próximo entre todos los contratos.
type NextDueInstallment struct {
	ContractID     string          `json:"contract_id"`
	Lender         string          `json:"lender"`
	ContractNumber string          `json:"contract_number"`
	SequenceNumber int             `json:"sequence_number"`
	DueDate        time.Time       `json:"due_date"`
	Remaining      decimal.Decimal `json:"remaining"`
}
