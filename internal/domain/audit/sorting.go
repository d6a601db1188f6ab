package audit

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// SortMode criterio de ordenación de ítems.
type SortMode string

const (
	SortDefault     SortMode = "default" // orden de inserción
	SortName        SortMode = "name"
	SortPriority    SortMode = "priority"
	SortUpdatedAsc  SortMode = "updated-asc"
	SortUpdatedDesc SortMode = "updated-desc"
)

// ParseSortMode acepta el valor del query string; desconocido -> SortDefault.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortName, SortPriority, SortUpdatedAsc, SortUpdatedDesc:
		return SortMode(s)
	}
	return SortDefault
}

// statusPriority menor va primero en la ordenación por prioridad. Solo para exhibición.
var statusPriority = map[entity.ItemStatus]int{
	entity.ItemStatusIssue:   0,
	entity.ItemStatusExpired: 1,
	entity.ItemStatusPending: 2,
	entity.ItemStatusWaiting: 3,
	entity.ItemStatusOK:      4,
	entity.ItemStatusWaived:  5,
}

// Priority posición del estado en la tabla de prioridad (desconocido al final).
func Priority(s entity.ItemStatus) int {
	if p, ok := statusPriority[s]; ok {
		return p
	}
	return len(statusPriority)
}

// ItemRef ítem con los datos de su dueño, para listados aplanados.
type ItemRef struct {
	entity.ChecklistItem
	OwnerID   string           `json:"owner_id"`
	OwnerName string           `json:"owner_name"`
	OwnerType entity.OwnerType `json:"owner_type"`
}

// Flatten lista todos los ítems: primero propiedades y luego partes, en orden de inserción.
func Flatten(state *entity.AuditState) []ItemRef {
	if state == nil {
		return nil
	}
	var out []ItemRef
	for _, p := range state.Properties {
		for _, it := range p.Items {
			out = append(out, ItemRef{ChecklistItem: it, OwnerID: p.ID, OwnerName: p.Name, OwnerType: entity.OwnerProperty})
		}
	}
	for _, p := range state.Parties {
		for _, it := range p.Items {
			out = append(out, ItemRef{ChecklistItem: it, OwnerID: p.ID, OwnerName: p.Name, OwnerType: entity.OwnerParty})
		}
	}
	return out
}

// FilterByStatus filtra por estado exacto; "" o "all" no filtra.
func FilterByStatus(items []ItemRef, status string) []ItemRef {
	if status == "" || status == "all" {
		return append([]ItemRef(nil), items...)
	}
	out := make([]ItemRef, 0, len(items))
	for _, it := range items {
		if string(it.Status) == status {
			out = append(out, it)
		}
	}
	return out
}

// SortItems devuelve una copia ordenada. Todas las ordenaciones son estables.
func SortItems(items []ItemRef, mode SortMode) []ItemRef {
	out := append([]ItemRef(nil), items...)
	switch mode {
	case SortName:
		// Collator pt-BR: "Ônus" junto a "Onus", no después de "Z".
		col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].Name, out[j].Name) < 0
		})
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return Priority(out[i].Status) < Priority(out[j].Status)
		})
	case SortUpdatedAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		})
	case SortUpdatedDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		})
	}
	return out
}

// SearchParties coincidencia por substring sin distinguir mayúsculas en nombre y CPF/CNPJ.
func SearchParties(parties []entity.Party, query string) []entity.Party {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]entity.Party(nil), parties...)
	}
	out := make([]entity.Party, 0, len(parties))
	for _, p := range parties {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.TaxDoc), q) {
			out = append(out, p)
		}
	}
	return out
}
