package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	appfinance "github.com/jhoicas/AgroDiligencia-api/internal/application/finance"
)

// FinanceHandler expone los contratos del dashboard AgroFinance.
type FinanceHandler struct {
	svc *appfinance.Service
}

// NewFinanceHandler construye el handler.
func NewFinanceHandler(svc *appfinance.Service) *FinanceHandler {
	return &FinanceHandler{svc: svc}
}

// List godoc
// @Summary      Contratos con estado derivado y asignación de pagos
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ContractView
// @Router       /api/contracts [get]
func (h *FinanceHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.svc.List())
}

// Get godoc
// @Summary      Obtener contrato por ID
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del contrato"
// @Success      200  {object}  dto.ContractView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id} [get]
func (h *FinanceHandler) Get(c *fiber.Ctx) error {
	v, err := h.svc.Get(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// Create godoc
// @Summary      Alta de contrato (opcionalmente con cronograma)
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateContractRequest  true  "Datos del contrato"
// @Success      201   {object}  dto.ContractView
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Router       /api/contracts [post]
func (h *FinanceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateContractRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	v, err := h.svc.CreateContract(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

// Update godoc
// @Summary      Editar contrato (no rebalancea parcelas)
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del contrato"
// @Param        body  body  dto.UpdateContractRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ContractView
// @Router       /api/contracts/{id} [patch]
func (h *FinanceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateContractRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	v, err := h.svc.UpdateContract(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// Delete godoc
// @Summary      Borrar contrato
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del contrato"
// @Success      200  {object}  dto.SyncInfo
// @Router       /api/contracts/{id} [delete]
func (h *FinanceHandler) Delete(c *fiber.Ctx) error {
	state, err := h.svc.DeleteContract(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(syncInfo(state))
}

// AddPayment godoc
// @Summary      Registrar pago contra el total del contrato
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "ID del contrato"
// @Param        body  body  dto.PaymentRequest  true  "Pago"
// @Success      201   {object}  dto.ContractView
// @Router       /api/contracts/{id}/payments [post]
func (h *FinanceHandler) AddPayment(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	v, err := h.svc.AddPayment(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

// DeletePayment godoc
// @Summary      Borrar pago
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id         path  string  true  "ID del contrato"
// @Param        paymentId  path  string  true  "ID del pago"
// @Success      200        {object}  dto.ContractView
// @Router       /api/contracts/{id}/payments/{paymentId} [delete]
func (h *FinanceHandler) DeletePayment(c *fiber.Ctx) error {
	v, err := h.svc.DeletePayment(c.Params("id"), c.Params("paymentId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// Settle godoc
// @Summary      Quitar el saldo devedor con un pago por el restante
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del contrato"
// @Success      200  {object}  dto.ContractView
// @Router       /api/contracts/{id}/settle [post]
func (h *FinanceHandler) Settle(c *fiber.Ctx) error {
	v, err := h.svc.SettleContract(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// Revert godoc
// @Summary      Revertir la quitación (borra todos los pagos)
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del contrato"
// @Success      200  {object}  dto.ContractView
// @Router       /api/contracts/{id}/revert [post]
func (h *FinanceHandler) Revert(c *fiber.Ctx) error {
	v, err := h.svc.RevertSettlement(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// UpdateInstallment godoc
// @Summary      Editar parcela; el principal se re-sincroniza con la suma
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id             path  string                        true  "ID del contrato"
// @Param        installmentId  path  string                        true  "ID de la parcela"
// @Param        body           body  dto.UpdateInstallmentRequest  true  "Campos a cambiar"
// @Success      200            {object}  dto.ContractView
// @Router       /api/contracts/{id}/installments/{installmentId} [patch]
func (h *FinanceHandler) UpdateInstallment(c *fiber.Ctx) error {
	var in dto.UpdateInstallmentRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	v, err := h.svc.UpdateInstallment(c.Params("id"), c.Params("installmentId"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// RegenerateInstallments godoc
// @Summary      Reemplazar el cronograma por N parcelas iguales
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                             true  "ID del contrato"
// @Param        body  body  dto.RegenerateInstallmentsRequest  true  "Cantidad de parcelas"
// @Success      200   {object}  dto.ContractView
// @Router       /api/contracts/{id}/installments/regenerate [post]
func (h *FinanceHandler) RegenerateInstallments(c *fiber.Ctx) error {
	var in dto.RegenerateInstallmentsRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	v, err := h.svc.RegenerateInstallments(c.Params("id"), in.Count)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(v)
}

// Summary godoc
// @Summary      KPIs de cabecera del dashboard
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.FinanceSummaryDTO
// @Router       /api/finance/summary [get]
func (h *FinanceHandler) Summary(c *fiber.Ctx) error {
	return c.JSON(h.svc.Summary())
}

// CashFlow godoc
// @Summary      Proyección mensual de desembolsos y curva de saldo
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  finance.Projection
// @Router       /api/finance/cashflow [get]
func (h *FinanceHandler) CashFlow(c *fiber.Ctx) error {
	return c.JSON(h.svc.CashFlow())
}

// PendingSync godoc
// @Summary      Contratos con escritura remota fallida
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  syncq.Entry
// @Router       /api/finance/sync [get]
func (h *FinanceHandler) PendingSync(c *fiber.Ctx) error {
	return c.JSON(h.svc.PendingSync())
}

// RetrySync godoc
// @Summary      Reencolar las escrituras fallidas de contratos
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RetryResponse
// @Router       /api/finance/sync/retry [post]
func (h *FinanceHandler) RetrySync(c *fiber.Ctx) error {
	return c.JSON(dto.RetryResponse{Requeued: h.svc.RetryPending()})
}
