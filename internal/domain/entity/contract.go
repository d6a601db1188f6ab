package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateIndex indexador de la tasa del contrato.
type RateIndex string

const (
	RateCDI   RateIndex = "CDI"
	RateFixed RateIndex = "Fixed" // AnnualRate es la tasa anual absoluta
	RateIPCA  RateIndex = "IPCA"
	RateSelic RateIndex = "Selic"
	RateNone  RateIndex = "None"
)

// Valid indica si r es un indexador conocido.
func (r RateIndex) Valid() bool {
	switch r {
	case RateCDI, RateFixed, RateIPCA, RateSelic, RateNone:
		return true
	}
	return false
}

// ContractStatus estado almacenado del contrato.
type ContractStatus string

const (
	ContractActive  ContractStatus = "active"
	ContractPaid    ContractStatus = "paid"
	ContractPending ContractStatus = "pending"
)

// Payment pago registrado contra el total del contrato (no contra una parcela específica).
type Payment struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// Installment parcela del cronograma.
type Installment struct {
	ID             string          `json:"id"`
	SequenceNumber int             `json:"sequence_number"`
	DueDate        time.Time       `json:"due_date"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
}

// Contract contrato de crédito rural del dashboard AgroFinance.
//
// PaidAmount == suma(Payments.Amount) lo mantienen los handlers de pagos.
// La suma de Installments.OriginalAmount debería igualar PrincipalAmount, pero editar
// PrincipalAmount directamente no rebalancea las parcelas.
type Contract struct {
	ID              string          `json:"id"`
	Lender          string          `json:"lender"`
	ContractNumber  string          `json:"contract_number"`
	RateIndex       RateIndex       `json:"rate_index"`
	AnnualRate      decimal.Decimal `json:"annual_rate"` // %; para Fixed es absoluta, si no % del índice
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Payments        []Payment       `json:"payments"`
	Installments    []Installment   `json:"installments"`
	StartDate       time.Time       `json:"start_date"`
	FinalDueDate    time.Time       `json:"final_due_date"`
	Status          ContractStatus  `json:"status"`
}

// Outstanding saldo devedor (principal - pago), nunca negativo.
func (c *Contract) Outstanding() decimal.Decimal {
	out := c.PrincipalAmount.Sub(c.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Clone copia profunda del contrato.
func (c *Contract) Clone() *Contract {
	out := *c
	out.Payments = append([]Payment(nil), c.Payments...)
	out.Installments = append([]Installment(nil), c.Installments...)
	return &out
}
