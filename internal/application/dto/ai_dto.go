package dto

// RiskLevel nivel de riesgo devuelto por el análisis de IA.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid indica si el nivel es uno de los tres aceptados.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// RiskAnalysisDTO respuesta del análisis de riesgo de la due diligence.
// Degraded es true cuando el LLM falló y se devolvió el análisis genérico.
type RiskAnalysisDTO struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	Degraded        bool      `json:"degraded"`
}
