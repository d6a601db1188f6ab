package audit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

func sampleRefs() []audit.ItemRef {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(id, name string, s entity.ItemStatus, offset int) audit.ItemRef {
		return audit.ItemRef{ChecklistItem: entity.ChecklistItem{
			ID: id, Name: name, Status: s, UpdatedAt: base.Add(time.Duration(offset) * time.Hour),
		}}
	}
	return []audit.ItemRef{
		mk("1", "Protestos", entity.ItemStatusOK, 3),
		mk("2", "CAR", entity.ItemStatusWaived, 1),
		mk("3", "ônus reais", entity.ItemStatusIssue, 5),
		mk("4", "CCIR", entity.ItemStatusWaiting, 2),
		mk("5", "Matrícula", entity.ItemStatusExpired, 4),
		mk("6", "ITR", entity.ItemStatusPending, 0),
	}
}

func ids(list []audit.ItemRef) []string {
	out := make([]string, len(list))
	for i, it := range list {
		out[i] = it.ID
	}
	return out
}

func TestSortItems_Prioridad(t *testing.T) {
	got := audit.SortItems(sampleRefs(), audit.SortPriority)
	assert.Equal(t, []string{"3", "5", "6", "4", "1", "2"}, ids(got))
}

func TestSortItems_NombreConCollatorPtBR(t *testing.T) {
	got := audit.SortItems(sampleRefs(), audit.SortName)
	assert.Equal(t, []string{"2", "4", "6", "5", "3", "1"}, ids(got), "'ônus' se ordena como 'onus'")
}

func TestSortItems_PorActualizacion(t *testing.T) {
	asc := audit.SortItems(sampleRefs(), audit.SortUpdatedAsc)
	assert.Equal(t, []string{"6", "2", "4", "1", "5", "3"}, ids(asc))

	desc := audit.SortItems(sampleRefs(), audit.SortUpdatedDesc)
	assert.Equal(t, []string{"3", "5", "1", "4", "2", "6"}, ids(desc))
}

func TestSortItems_DefaultConservaOrden(t *testing.T) {
	refs := sampleRefs()
	got := audit.SortItems(refs, audit.ParseSortMode("desconocido"))
	assert.Equal(t, ids(refs), ids(got))
}

func TestFilterByStatus(t *testing.T) {
	refs := sampleRefs()
	assert.Equal(t, []string{"3"}, ids(audit.FilterByStatus(refs, "issue")))
	assert.Len(t, audit.FilterByStatus(refs, "all"), len(refs))
	assert.Len(t, audit.FilterByStatus(refs, ""), len(refs))
	assert.Empty(t, audit.FilterByStatus(refs, "inexistente"))
}

func TestSearchParties_NombreYDocumento(t *testing.T) {
	parties := []entity.Party{
		{ID: "a", Name: "Maria Aparecida", TaxDoc: "123.456.789-00"},
		{ID: "b", Name: "Agropecuária Serra Ltda", TaxDoc: "12.345.678/0001-90"},
		{ID: "c", Name: "José Pereira", TaxDoc: "987.654.321-00"},
	}

	got := audit.SearchParties(parties, "SERRA")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got = audit.SearchParties(parties, "0001")
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got = audit.SearchParties(parties, "-00")
	assert.Len(t, got, 2)

	assert.Len(t, audit.SearchParties(parties, "  "), 3)
}

func TestFlatten_PropiedadesAntesQuePartes(t *testing.T) {
	state := &entity.AuditState{
		Properties: []entity.Property{{ID: "p", Name: "Fazenda", Items: []entity.ChecklistItem{{ID: "i1"}}}},
		Parties:    []entity.Party{{ID: "x", Name: "Ana", Items: []entity.ChecklistItem{{ID: "i2"}}}},
	}
	refs := audit.Flatten(state)
	require.Len(t, refs, 2)
	assert.Equal(t, entity.OwnerProperty, refs[0].OwnerType)
	assert.Equal(t, "Ana", refs[1].OwnerName)
}
