// Package pdf genera el parecer de due diligence rural en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + fecha de emisión                          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KPIs: conclusión / pendientes / riesgo / ônus activos      │
//	│  DESGLOSE: conteo por estado                                │
//	│  ALERTAS: certidões vencidas con su dueño                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  IMÓVEIS: datos + tabla de ítems + ônus                     │
//	│  PARTES: datos + tabla de ítems                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  OBSERVACIONES GENERALES                                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/ports"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/pkg/money"
)

var _ ports.AuditReportGenerator = (*MarotoReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 94, Blue: 56}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRisk    = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorWarn    = &props.Color{Red: 180, Green: 120, Blue: 0}
)

// statusLabels etiquetas pt-BR de los seis estados.
var statusLabels = map[entity.ItemStatus]string{
	entity.ItemStatusPending: "Não solicitado",
	entity.ItemStatusWaiting: "Aguardando",
	entity.ItemStatusOK:      "Regular",
	entity.ItemStatusIssue:   "Pendência",
	entity.ItemStatusExpired: "Vencida",
	entity.ItemStatusWaived:  "Dispensado",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa ports.AuditReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateAuditReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateAuditReport(state *entity.AuditState, sum audit.Summary, generatedAt time.Time) ([]byte, error) {
	if state == nil {
		state = &entity.AuditState{}
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Parecer de Due Diligence Rural", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(kpiRow(sum))
	m.AddRows(statusBreakdownRow(sum.Counts))
	m.AddRows(expiredRows(sum.Expired)...)

	liensByProperty := map[string][]entity.Lien{}
	for _, l := range state.Liens {
		liensByProperty[l.PropertyID] = append(liensByProperty[l.PropertyID], l)
	}
	for _, p := range state.Properties {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(propertyRow(p))
		m.AddRows(itemRows(p.Items)...)
		m.AddRows(lienRows(liensByProperty[p.ID])...)
	}
	for _, p := range state.Parties {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(partyRow(p))
		m.AddRows(itemRows(p.Items)...)
	}

	if notes := strings.TrimSpace(state.GeneralNotes); notes != "" {
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(sectionTitle("OBSERVAÇÕES GERAIS"))
		for _, chunk := range splitEvery(notes, 110) {
			m.AddRows(row.New(5).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 8, Top: 0.5}),
			)))
		}
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(generatedAt time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("PARECER DE DUE DILIGENCE RURAL", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Checklist registral, cadastral, fiscal, ambiental e das partes", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Emitido em "+generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func kpiRow(sum audit.Summary) core.Row {
	kpi := func(label, value string, color *props.Color) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Color: color, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		kpi("CONCLUSÃO", fmt.Sprintf("%s (%d/%d)", money.FormatPercent(sum.CompletionPercent), sum.Counts.Done(), sum.TotalItems), colorPrimary),
		kpi("PENDENTES", fmt.Sprintf("%d", sum.PendingCount), colorWarn),
		kpi("COM RISCO", fmt.Sprintf("%d", sum.RiskCount), colorRisk),
		kpi(fmt.Sprintf("ÔNUS ATIVOS (%d)", sum.ActiveLienCount), money.FormatBRL(sum.ActiveLienDebt), colorRisk),
	)
}

func statusBreakdownRow(c audit.StatusCounts) core.Row {
	counts := map[entity.ItemStatus]int{
		entity.ItemStatusPending: c.Pending, entity.ItemStatusWaiting: c.Waiting, entity.ItemStatusOK: c.OK,
		entity.ItemStatusIssue: c.Issue, entity.ItemStatusExpired: c.Expired, entity.ItemStatusWaived: c.Waived,
	}
	cols := make([]core.Col, 0, len(entity.ItemStatuses))
	for _, s := range entity.ItemStatuses {
		cols = append(cols, col.New(2).Add(text.New(
			fmt.Sprintf("%s: %d", statusLabels[s], counts[s]),
			props.Text{Size: 7.5, Align: align.Center, Top: 1, Color: statusColor(s)},
		)))
	}
	return row.New(7).Add(cols...)
}

func expiredRows(alerts []audit.ExpiredAlert) []core.Row {
	if len(alerts) == 0 {
		return nil
	}
	rows := []core.Row{sectionTitle("CERTIDÕES VENCIDAS")}
	for _, a := range alerts {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(fmt.Sprintf("• %s / %s (%s)", a.Category, a.ItemName, a.OwnerName), props.Text{
				Size: 8, Color: colorRisk, Left: 2,
			}),
		)))
	}
	return rows
}

func propertyRow(p entity.Property) core.Row {
	detail := fmt.Sprintf("Matrícula: %s   |   Cartório: %s   |   Município: %s   |   Área: %s ha",
		nonEmpty(p.RegistrationNumber, "—"),
		nonEmpty(p.RegistryOffice, "—"),
		nonEmpty(p.Municipality, "—"),
		p.Area.StringFixed(2),
	)
	return ownerRow("IMÓVEL", p.Name, detail)
}

func partyRow(p entity.Party) core.Row {
	role := "Vendedor"
	if p.Role == entity.PartyBuyer {
		role = "Comprador"
	}
	kind := "Pessoa física"
	if p.Kind == entity.PartyLegalEntity {
		kind = "Pessoa jurídica"
	}
	return ownerRow("PARTE", p.Name, fmt.Sprintf("%s   |   %s   |   CPF/CNPJ: %s", role, kind, nonEmpty(p.TaxDoc, "—")))
}

func ownerRow(label, name, detail string) core.Row {
	return row.New(16).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1}),
		text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		text.New(detail, props.Text{Size: 7.5, Top: 11, Color: colorGray}),
	))
}

// itemRows cabecera + una fila por ítem del checklist.
func itemRows(items []entity.ChecklistItem) []core.Row {
	if len(items) == 0 {
		return nil
	}
	h := func(label string, size int) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 7.5, Color: colorPrimary, Top: 1}))
	}
	rows := []core.Row{row.New(6).Add(h("Categoria", 2), h("Documento", 4), h("Situação", 2), h("Observações", 4))}
	for _, it := range items {
		rows = append(rows, row.New(5).Add(
			col.New(2).Add(text.New(it.Category, props.Text{Size: 7.5, Top: 0.5})),
			col.New(4).Add(text.New(it.Name, props.Text{Size: 7.5, Top: 0.5})),
			col.New(2).Add(text.New(statusLabels[it.Status], props.Text{Size: 7.5, Top: 0.5, Color: statusColor(it.Status)})),
			col.New(4).Add(text.New(truncate(it.Notes, 60), props.Text{Size: 7, Top: 0.5, Color: colorGray})),
		))
	}
	return rows
}

func lienRows(liens []entity.Lien) []core.Row {
	if len(liens) == 0 {
		return nil
	}
	rows := []core.Row{row.New(6).Add(col.New(12).Add(
		text.New("Ônus registrados", props.Text{Style: fontstyle.Bold, Size: 7.5, Color: colorPrimary, Top: 1}),
	))}
	for _, l := range liens {
		status, color := "baixado", colorGray
		if l.IsActive {
			status, color = "ativo", colorRisk
		}
		rows = append(rows, row.New(5).Add(
			col.New(2).Add(text.New(l.RegistrationEntry, props.Text{Size: 7.5, Top: 0.5})),
			col.New(4).Add(text.New(l.Type+" / "+l.Creditor, props.Text{Size: 7.5, Top: 0.5})),
			col.New(2).Add(text.New(status, props.Text{Size: 7.5, Top: 0.5, Color: color})),
			col.New(4).Add(text.New(money.FormatBRL(l.Value), props.Text{Size: 7.5, Top: 0.5, Align: align.Right})),
		))
	}
	return rows
}

func sectionTitle(s string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusColor(s entity.ItemStatus) *props.Color {
	switch s {
	case entity.ItemStatusIssue, entity.ItemStatusExpired:
		return colorRisk
	case entity.ItemStatusPending, entity.ItemStatusWaiting:
		return colorWarn
	}
	return colorPrimary
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// truncate corta s a n runas añadiendo "…".
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// splitEvery divide s en trozos de max n runas.
func splitEvery(s string, n int) []string {
	var parts []string
	r := []rune(s)
	for len(r) > n {
		parts = append(parts, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		parts = append(parts, string(r))
	}
	return parts
}
