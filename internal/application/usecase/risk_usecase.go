package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/pkg/money"
)

// AuditSource estado actual de la auditoría (implementado por el servicio de auditoría).
type AuditSource interface {
	Snapshot() *entity.AuditState
	Summary() audit.Summary
}

// DegradedRisk resultado genérico cuando el LLM no responde o responde mal.
func DegradedRisk() *dto.RiskAnalysisDTO {
	return &dto.RiskAnalysisDTO{
		RiskLevel: dto.RiskMedium,
		Summary:   "Não foi possível concluir a análise automática. Revise manualmente os itens com pendência e as certidões vencidas.",
		Recommendations: []string{
			"Conferir manualmente os ônus ativos e as certidões vencidas antes de prosseguir.",
		},
		Degraded: true,
	}
}

// RiskUseCase orquesta el análisis de riesgo de la due diligence asistido por IA.
// Cada llamada al LLM lleva timeout; no hay reintento. Cualquier fallo (sin API key,
// timeout, HTTP, JSON inválido) devuelve DegradedRisk en lugar de un error.
type RiskUseCase struct {
	analyzer ports.RiskAnalyzer
	source   AuditSource
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRiskUseCase construye el caso de uso inyectando el puerto RiskAnalyzer.
func NewRiskUseCase(analyzer ports.RiskAnalyzer, source AuditSource, timeout time.Duration, log zerolog.Logger) *RiskUseCase {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RiskUseCase{analyzer: analyzer, source: source, timeout: timeout, log: log}
}

// Analyze serializa el estado actual y delega al LLM.
func (uc *RiskUseCase) Analyze(ctx context.Context) *dto.RiskAnalysisDTO {
	if uc.analyzer == nil {
		return DegradedRisk()
	}
	text := DescribeAudit(uc.source.Snapshot(), uc.source.Summary())

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	result, err := uc.analyzer.AnalyzeRisk(ctx, text)
	if err != nil {
		uc.log.Warn().Err(err).Msg("análisis de riesgo falló, se devuelve resultado genérico")
		return DegradedRisk()
	}
	if result == nil || !result.RiskLevel.Valid() {
		uc.log.Warn().Msg("análisis de riesgo con nivel inválido, se devuelve resultado genérico")
		return DegradedRisk()
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	result.Degraded = false
	return result
}

// DescribeAudit resumen textual de la auditoría para el prompt: KPIs, cada imóvel con
// sus ítems y ônus, cada parte y las observaciones generales.
func DescribeAudit(state *entity.AuditState, sum audit.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conclusão do checklist: %s (%d de %d itens). Pendentes: %d. Com risco: %d.\n",
		money.FormatPercent(sum.CompletionPercent), sum.Counts.Done(), sum.TotalItems, sum.PendingCount, sum.RiskCount)
	fmt.Fprintf(&b, "Ônus ativos: %d, somando %s.\n", sum.ActiveLienCount, money.FormatBRL(sum.ActiveLienDebt))

	liensByProperty := map[string][]entity.Lien{}
	for _, l := range state.Liens {
		liensByProperty[l.PropertyID] = append(liensByProperty[l.PropertyID], l)
	}

	for _, p := range state.Properties {
		fmt.Fprintf(&b, "\nIMÓVEL: %s", p.Name)
		if p.RegistrationNumber != "" {
			fmt.Fprintf(&b, " (matrícula %s, %s)", p.RegistrationNumber, p.RegistryOffice)
		}
		if p.Municipality != "" {
			fmt.Fprintf(&b, " - %s", p.Municipality)
		}
		b.WriteString("\n")
		writeItems(&b, p.Items)
		for _, l := range liensByProperty[p.ID] {
			status := "baixado"
			if l.IsActive {
				status = "ativo"
			}
			fmt.Fprintf(&b, "  Ônus %s %s (%s): credor %s, valor %s. %s\n",
				l.RegistrationEntry, l.Type, status, l.Creditor, money.FormatBRL(l.Value), l.Description)
		}
	}
	for _, p := range state.Parties {
		fmt.Fprintf(&b, "\nPARTE (%s, %s): %s %s\n", p.Role, p.Kind, p.Name, p.TaxDoc)
		writeItems(&b, p.Items)
	}
	if notes := strings.TrimSpace(state.GeneralNotes); notes != "" {
		fmt.Fprintf(&b, "\nObservações gerais: %s\n", notes)
	}
	return b.String()
}

func writeItems(b *strings.Builder, items []entity.ChecklistItem) {
	for _, it := range items {
		fmt.Fprintf(b, "  [%s] %s / %s", it.Status, it.Category, it.Name)
		if n := strings.TrimSpace(it.Notes); n != "" {
			fmt.Fprintf(b, ": %s", n)
		}
		b.WriteString("\n")
	}
}
