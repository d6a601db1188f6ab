// Package audit calcula los indicadores del checklist de due diligence:
// conteos por estado, porcentaje de conclusión, alertas de certidões vencidas,
// deuda de ônus activos, y ordenación/filtrado/búsqueda de ítems y partes.
package audit

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// StatusCounts desglose detallado: un contador por cada uno de los seis estados.
type StatusCounts struct {
	Pending int `json:"pending"`
	Waiting int `json:"waiting"`
	OK      int `json:"ok"`
	Issue   int `json:"issue"`
	Expired int `json:"expired"`
	Waived  int `json:"waived"`
}

func (c *StatusCounts) add(s entity.ItemStatus) {
	switch s {
	case entity.ItemStatusPending:
		c.Pending++
	case entity.ItemStatusWaiting:
		c.Waiting++
	case entity.ItemStatusOK:
		c.OK++
	case entity.ItemStatusIssue:
		c.Issue++
	case entity.ItemStatusExpired:
		c.Expired++
	case entity.ItemStatusWaived:
		c.Waived++
	}
}

// Total suma de los seis contadores.
func (c StatusCounts) Total() int {
	return c.Pending + c.Waiting + c.OK + c.Issue + c.Expired + c.Waived
}

// Done ítems concluidos (ok + waived).
func (c StatusCounts) Done() int { return c.OK + c.Waived }

// Open pendientes para los KPIs de cabecera (pending + waiting).
func (c StatusCounts) Open() int { return c.Pending + c.Waiting }

// Risk ítems con riesgo para los KPIs de cabecera (issue + expired).
func (c StatusCounts) Risk() int { return c.Issue + c.Expired }

// ExpiredAlert certidão vencida con su dueño, para el aviso del dashboard.
type ExpiredAlert struct {
	ItemID    string           `json:"item_id"`
	ItemName  string           `json:"item_name"`
	Category  string           `json:"category"`
	OwnerID   string           `json:"owner_id"`
	OwnerName string           `json:"owner_name"`
	OwnerType entity.OwnerType `json:"owner_type"`
}

// CategoryCounts conteos de una categoría (clave libre definida por el usuario).
type CategoryCounts struct {
	Category string       `json:"category"`
	Counts   StatusCounts `json:"counts"`
}

// OwnerProgress avance de una propiedad o parte.
type OwnerProgress struct {
	OwnerID           string           `json:"owner_id"`
	OwnerName         string           `json:"owner_name"`
	OwnerType         entity.OwnerType `json:"owner_type"`
	Counts            StatusCounts     `json:"counts"`
	CompletionPercent int              `json:"completion_percent"`
}

// Summary resultado del agregador.
type Summary struct {
	TotalItems        int              `json:"total_items"`
	Counts            StatusCounts     `json:"counts"`
	CompletionPercent int              `json:"completion_percent"`
	PendingCount      int              `json:"pending_count"` // pending + waiting
	RiskCount         int              `json:"risk_count"`    // issue + expired
	Expired           []ExpiredAlert   `json:"expired"`
	Categories        []CategoryCounts `json:"categories"` // en orden de primera aparición
	Owners            []OwnerProgress  `json:"owners"`
	PropertyCount     int              `json:"property_count"`
	PartyCount        int              `json:"party_count"`
	LienCount         int              `json:"lien_count"`
	ActiveLienCount   int              `json:"active_lien_count"`
	ActiveLienDebt    decimal.Decimal  `json:"active_lien_debt"`
}

// CompletionPercent round(done / total * 100); 0 cuando no hay ítems.
func CompletionPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

// Summarize recorre propiedades y partes y agrega sus ítems. No muta state.
func Summarize(state *entity.AuditState) Summary {
	s := Summary{
		Expired:        []ExpiredAlert{},
		Categories:     []CategoryCounts{},
		Owners:         []OwnerProgress{},
		ActiveLienDebt: decimal.Zero,
	}
	if state == nil {
		return s
	}
	catIndex := map[string]int{}

	visit := func(ownerID, ownerName string, ownerType entity.OwnerType, items []entity.ChecklistItem) {
		op := OwnerProgress{OwnerID: ownerID, OwnerName: ownerName, OwnerType: ownerType}
		for _, it := range items {
			s.Counts.add(it.Status)
			op.Counts.add(it.Status)

			i, ok := catIndex[it.Category]
			if !ok {
				i = len(s.Categories)
				catIndex[it.Category] = i
				s.Categories = append(s.Categories, CategoryCounts{Category: it.Category})
			}
			s.Categories[i].Counts.add(it.Status)

			if it.Status == entity.ItemStatusExpired {
				s.Expired = append(s.Expired, ExpiredAlert{
					ItemID: it.ID, ItemName: it.Name, Category: it.Category,
					OwnerID: ownerID, OwnerName: ownerName, OwnerType: ownerType,
				})
			}
		}
		op.CompletionPercent = CompletionPercent(op.Counts.Done(), op.Counts.Total())
		s.Owners = append(s.Owners, op)
	}

	for _, p := range state.Properties {
		visit(p.ID, p.Name, entity.OwnerProperty, p.Items)
	}
	for _, p := range state.Parties {
		visit(p.ID, p.Name, entity.OwnerParty, p.Items)
	}

	s.TotalItems = s.Counts.Total()
	s.CompletionPercent = CompletionPercent(s.Counts.Done(), s.TotalItems)
	s.PendingCount = s.Counts.Open()
	s.RiskCount = s.Counts.Risk()
	s.PropertyCount = len(state.Properties)
	s.PartyCount = len(state.Parties)

	s.LienCount = len(state.Liens)
	for _, l := range state.Liens {
		if !l.IsActive {
			continue
		}
		s.ActiveLienCount++
		s.ActiveLienDebt = s.ActiveLienDebt.Add(l.Value)
	}
	return s
}
