package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/usecase"
)

// RiskHandler análisis de riesgo asistido por IA y parecer en PDF.
type RiskHandler struct {
	risk   *usecase.RiskUseCase
	report *usecase.ReportUseCase
}

// NewRiskHandler construye el handler.
func NewRiskHandler(risk *usecase.RiskUseCase, report *usecase.ReportUseCase) *RiskHandler {
	return &RiskHandler{risk: risk, report: report}
}

// Analyze godoc
// @Summary      Análisis de riesgo de la due diligence con IA
// @Description  Envía el estado actual del checklist al LLM configurado. Sin API key,
//               con timeout o con respuesta inválida devuelve un resultado genérico con degraded=true.
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RiskAnalysisDTO
// @Router       /api/audit/risk-analysis [post]
func (h *RiskHandler) Analyze(c *fiber.Ctx) error {
	return c.JSON(h.risk.Analyze(c.UserContext()))
}

// Report godoc
// @Summary      Parecer de due diligence en PDF
// @Tags         audit
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/audit/report.pdf [get]
func (h *RiskHandler) Report(c *fiber.Ctx) error {
	pdf, err := h.report.AuditReport()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PDF_ERROR", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="parecer-due-diligence.pdf"`)
	return c.Send(pdf)
}
