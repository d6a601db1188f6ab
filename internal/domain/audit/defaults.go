package audit

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// Categorías del checklist de imóvel rural.
const (
	CategoryRegistral   = "Registral"
	CategoryCadastral   = "Cadastral"
	CategoryFiscal      = "Fiscal"
	CategoryAmbiental   = "Ambiental"
	CategoryCertidoes   = "Certidões"
	CategorySocietario  = "Societário"
	CategoryTrabalhista = "Trabalhista"
)

type template struct {
	category, name, description string
}

var propertyTemplate = []template{
	{CategoryRegistral, "Matrícula atualizada", "Certidão de inteiro teor da matrícula emitida há menos de 30 dias"},
	{CategoryRegistral, "Certidão de ônus reais", "Certidão negativa ou positiva de ônus e ações reipersecutórias"},
	{CategoryRegistral, "Cadeia dominial (20 anos)", "Filiação dos títulos de domínio anteriores"},
	{CategoryCadastral, "CCIR", "Certificado de Cadastro de Imóvel Rural (INCRA) quitado"},
	{CategoryCadastral, "Georreferenciamento / SIGEF", "Certificação da poligonal no SIGEF e averbação na matrícula"},
	{CategoryFiscal, "ITR - últimos 5 exercícios", "DITR entregues e DARFs pagos"},
	{CategoryFiscal, "CND do imóvel rural (RFB)", "Certidão negativa de débitos relativos ao ITR"},
	{CategoryAmbiental, "CAR", "Cadastro Ambiental Rural ativo, sem sobreposições"},
	{CategoryAmbiental, "Reserva legal e APP", "Conferência de áreas de reserva legal e preservação permanente"},
	{CategoryAmbiental, "Embargos IBAMA / órgão estadual", "Consulta a áreas embargadas e autos de infração"},
}

var individualTemplate = []template{
	{CategoryCertidoes, "CND federal (RFB/PGFN)", "Certidão conjunta de débitos federais e dívida ativa"},
	{CategoryTrabalhista, "CNDT", "Certidão negativa de débitos trabalhistas (TST)"},
	{CategoryCertidoes, "Distribuidor cível (estadual e federal)", "Ações cíveis nos domicílios e na comarca do imóvel"},
	{CategoryCertidoes, "Distribuidor criminal", "Ações criminais estaduais e federais"},
	{CategoryCertidoes, "Protestos", "Certidão de tabelionatos de protesto (5 anos)"},
	{CategoryCertidoes, "Estado civil / pacto antenupcial", "Certidão de casamento e regime de bens"},
}

var legalEntityTemplate = []template{
	{CategorySocietario, "Contrato social consolidado", "Última alteração e poderes de representação"},
	{CategoryCertidoes, "CND federal (RFB/PGFN)", "Certidão conjunta de débitos federais e dívida ativa"},
	{CategoryTrabalhista, "CRF - FGTS", "Certificado de regularidade do FGTS (Caixa)"},
	{CategoryTrabalhista, "CNDT", "Certidão negativa de débitos trabalhistas (TST)"},
	{CategoryCertidoes, "Falência e recuperação judicial", "Certidão do distribuidor de falências"},
	{CategoryCertidoes, "Protestos", "Certidão de tabelionatos de protesto (5 anos)"},
}

func build(list []template, now time.Time, newID func() string) []entity.ChecklistItem {
	out := make([]entity.ChecklistItem, len(list))
	for i, t := range list {
		out[i] = entity.ChecklistItem{
			ID:          newID(),
			Category:    t.category,
			Name:        t.name,
			Description: t.description,
			Status:      entity.ItemStatusPending,
			UpdatedAt:   now,
		}
	}
	return out
}

// PropertyChecklist ítems iniciales de un imóvel (registral, cadastral, fiscal, ambiental).
func PropertyChecklist(now time.Time, newID func() string) []entity.ChecklistItem {
	return build(propertyTemplate, now, newID)
}

// PartyChecklist ítems iniciales según el tipo de parte.
func PartyChecklist(kind entity.PartyKind, now time.Time, newID func() string) []entity.ChecklistItem {
	if kind == entity.PartyLegalEntity {
		return build(legalEntityTemplate, now, newID)
	}
	return build(individualTemplate, now, newID)
}

// DefaultState estado inicial cuando ni el almacén remoto ni la caché tienen datos.
func DefaultState(now time.Time, newID func() string) *entity.AuditState {
	return &entity.AuditState{
		Properties: []entity.Property{{
			ID:    newID(),
			Name:  "Imóvel principal",
			Area:  decimal.Zero,
			Items: PropertyChecklist(now, newID),
		}},
		Parties: []entity.Party{
			{ID: newID(), Kind: entity.PartyIndividual, Role: entity.PartySeller, Name: "Vendedor", Items: PartyChecklist(entity.PartyIndividual, now, newID)},
			{ID: newID(), Kind: entity.PartyIndividual, Role: entity.PartyBuyer, Name: "Comprador", Items: PartyChecklist(entity.PartyIndividual, now, newID)},
		},
		Liens: []entity.Lien{},
	}
}
