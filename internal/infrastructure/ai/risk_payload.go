package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
)

// riskSystemPrompt define el rol del modelo y el formato de salida. Común a ambos proveedores.
const riskSystemPrompt = `Você é um advogado especialista em due diligence de imóveis rurais no Brasil
(registral, cadastral INCRA/SIGEF, fiscal ITR/RFB, ambiental CAR/IBAMA, trabalhista e cível das partes).
Receberá um resumo do checklist de auditoria, dos ônus registrados e das partes.
Devolva ÚNICAMENTE um objeto JSON válido (sem markdown, sem texto adicional) com esta estrutura exata:
{
  "risk_level": "<low | medium | high>",
  "summary": "<parecer conciso em português, máximo 600 caracteres>",
  "recommendations": ["<ação objetiva>", "..."]
}

Regras:
- high: ônus ativos relevantes, certidões positivas/pendências graves, embargos ou cadeia dominial irregular.
- medium: certidões vencidas ou pendentes sem indício de impedimento.
- low: checklist concluído sem pendências relevantes.
- recommendations: entre 1 e 6 itens, em português.`

// riskPayload JSON que esperamos recibir del modelo.
type riskPayload struct {
	RiskLevel       string   `json:"risk_level"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
// Captura desde el primer '{' hasta el último '}'.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseRisk limpia, deserializa y normaliza la respuesta del modelo.
func parseRisk(rawText string) (*dto.RiskAnalysisDTO, error) {
	clean := extractJSON(rawText)
	if clean == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}
	var p riskPayload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de riesgo: %w (JSON extraído: %s)", err, clean)
	}
	level, ok := normalizeRiskLevel(p.RiskLevel)
	if !ok {
		return nil, fmt.Errorf("AI: nivel de riesgo desconocido %q", p.RiskLevel)
	}
	recs := make([]string, 0, len(p.Recommendations))
	for _, r := range p.Recommendations {
		if r = strings.TrimSpace(r); r != "" {
			recs = append(recs, r)
		}
	}
	return &dto.RiskAnalysisDTO{
		RiskLevel:       level,
		Summary:         strings.TrimSpace(p.Summary),
		Recommendations: recs,
	}, nil
}

// normalizeRiskLevel acepta los tres niveles en inglés o portugués, sin distinguir mayúsculas.
func normalizeRiskLevel(raw string) (dto.RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "baixo":
		return dto.RiskLow, true
	case "medium", "médio", "medio":
		return dto.RiskMedium, true
	case "high", "alto":
		return dto.RiskHigh, true
	}
	return "", false
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Estrategia en dos pasos:
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		// Quitar la línea de apertura (```json o ```)
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}

	if strings.HasPrefix(text, "{") {
		return text
	}

	match := jsonBlockRe.FindString(text)
	return strings.TrimSpace(match)
}
