package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus estado de regularidad de un ítem del checklist.
// No hay grafo de transiciones: cualquier estado puede pasar a cualquier otro.
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending" // no solicitado
	ItemStatusWaiting ItemStatus = "waiting" // solicitado, esperando respuesta del órgano
	ItemStatusOK      ItemStatus = "ok"
	ItemStatusIssue   ItemStatus = "issue"   // pendencia encontrada
	ItemStatusExpired ItemStatus = "expired" // certidão vencida
	ItemStatusWaived  ItemStatus = "waived"  // dispensado
)

// ItemStatuses orden canónico de los seis estados (desglose del dashboard).
var ItemStatuses = []ItemStatus{
	ItemStatusPending, ItemStatusWaiting, ItemStatusOK,
	ItemStatusIssue, ItemStatusExpired, ItemStatusWaived,
}

// Valid indica si s es uno de los seis estados conocidos.
func (s ItemStatus) Valid() bool {
	for _, v := range ItemStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// OwnerType tipo de la entidad dueña de un ítem.
type OwnerType string

const (
	OwnerProperty OwnerType = "property"
	OwnerParty    OwnerType = "party"
)

// ChecklistItem unidad verificable (documento/certidão) de la auditoría.
// Pertenece exactamente a una Property o a una Party.
type ChecklistItem struct {
	ID          string     `json:"id"`
	Category    string     `json:"category"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      ItemStatus `json:"status"`
	Notes       string     `json:"notes"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Property inmueble rural auditado. Es dueño de sus ítems.
type Property struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	RegistrationNumber string          `json:"registration_number"` // matrícula
	RegistryOffice     string          `json:"registry_office"`
	Municipality       string          `json:"municipality"`
	Area               decimal.Decimal `json:"area"` // hectáreas
	Items              []ChecklistItem `json:"items"`
}

// PartyKind persona física o jurídica.
type PartyKind string

const (
	PartyIndividual  PartyKind = "individual"
	PartyLegalEntity PartyKind = "legal-entity"
)

// PartyRole papel de la parte en la operación.
type PartyRole string

const (
	PartyBuyer  PartyRole = "buyer"
	PartySeller PartyRole = "seller"
)

// Party parte involucrada (comprador/vendedor). Sin relación con Property.
type Party struct {
	ID     string          `json:"id"`
	Kind   PartyKind       `json:"kind"`
	Role   PartyRole       `json:"role"`
	Name   string          `json:"name"`
	TaxDoc string          `json:"tax_doc"` // CPF o CNPJ
	Items  []ChecklistItem `json:"items"`
}

// Lien ônus registrado contra una propiedad (hipoteca, penhora, usufruto, ...).
// PropertyID es una referencia débil: la propiedad no guarda colección de vuelta.
type Lien struct {
	ID                        string          `json:"id"`
	PropertyID                string          `json:"property_id"`
	RegistrationEntry         string          `json:"registration_entry"` // R-3, AV-5, ...
	RelatedRegistrationNumber string          `json:"related_registration_number,omitempty"`
	Type                      string          `json:"type"`
	Description               string          `json:"description"`
	Creditor                  string          `json:"creditor"`
	Value                     decimal.Decimal `json:"value"`
	IsActive                  bool            `json:"is_active"`
}

// AuditState raíz agregada del checklist de auditoría.
type AuditState struct {
	Properties   []Property `json:"properties"`
	Parties      []Party    `json:"parties"`
	Liens        []Lien     `json:"liens"`
	GeneralNotes string     `json:"general_notes"`
}

// IsEmpty indica si el estado no tiene entidades (almacén vacío o mal configurado).
func (s *AuditState) IsEmpty() bool {
	return s == nil || (len(s.Properties) == 0 && len(s.Parties) == 0 && len(s.Liens) == 0)
}

// Clone copia profunda; los cálculos derivados trabajan sobre copias.
func (s *AuditState) Clone() *AuditState {
	if s == nil {
		return &AuditState{}
	}
	out := &AuditState{
		Properties:   make([]Property, len(s.Properties)),
		Parties:      make([]Party, len(s.Parties)),
		Liens:        append([]Lien(nil), s.Liens...),
		GeneralNotes: s.GeneralNotes,
	}
	for i, p := range s.Properties {
		p.Items = append([]ChecklistItem(nil), p.Items...)
		out.Properties[i] = p
	}
	for i, p := range s.Parties {
		p.Items = append([]ChecklistItem(nil), p.Items...)
		out.Parties[i] = p
	}
	return out
}
