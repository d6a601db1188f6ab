package ports

import (
	"context"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
)

// RiskAnalyzer puerto de salida para el análisis de riesgo con LLM.
// Cualquier adaptador (Anthropic, Gemini, mock) implementa esta interfaz; la aplicación
// solo conoce el contrato.
type RiskAnalyzer interface {
	// AnalyzeRisk recibe el resumen textual de la auditoría y devuelve nivel, resumen
	// y recomendaciones. El contexto debe llevar timeout.
	AnalyzeRisk(ctx context.Context, auditSummary string) (*dto.RiskAnalysisDTO, error)
}
