package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// ── Propiedades ───────────────────────────────────────────────────────────────

// CreatePropertyRequest alta de un imóvel; el checklist inicial se genera en el servidor.
type CreatePropertyRequest struct {
	Name               string          `json:"name" validate:"required,max=200"`
	RegistrationNumber string          `json:"registration_number" validate:"max=60"`
	RegistryOffice     string          `json:"registry_office" validate:"max=200"`
	Municipality       string          `json:"municipality" validate:"max=120"`
	Area               decimal.Decimal `json:"area"`
	SkipChecklist      bool            `json:"skip_checklist"`
}

// UpdatePropertyRequest campos opcionales; nil = no cambia.
type UpdatePropertyRequest struct {
	Name               *string          `json:"name" validate:"omitempty,min=1,max=200"`
	RegistrationNumber *string          `json:"registration_number" validate:"omitempty,max=60"`
	RegistryOffice     *string          `json:"registry_office" validate:"omitempty,max=200"`
	Municipality       *string          `json:"municipality" validate:"omitempty,max=120"`
	Area               *decimal.Decimal `json:"area"`
}

// ── Partes ────────────────────────────────────────────────────────────────────

// CreatePartyRequest alta de comprador o vendedor.
type CreatePartyRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=individual legal-entity"`
	Role          string `json:"role" validate:"required,oneof=buyer seller"`
	Name          string `json:"name" validate:"required,max=200"`
	TaxDoc        string `json:"tax_doc" validate:"max=20"`
	SkipChecklist bool   `json:"skip_checklist"`
}

// UpdatePartyRequest campos opcionales; nil = no cambia.
type UpdatePartyRequest struct {
	Kind   *string `json:"kind" validate:"omitempty,oneof=individual legal-entity"`
	Role   *string `json:"role" validate:"omitempty,oneof=buyer seller"`
	Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
	TaxDoc *string `json:"tax_doc" validate:"omitempty,max=20"`
}

// ── Ítems ─────────────────────────────────────────────────────────────────────

// CreateItemRequest ítem agregado a mano a una propiedad o parte.
type CreateItemRequest struct {
	Category    string `json:"category" validate:"required,max=80"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
	Status      string `json:"status" validate:"omitempty,oneof=pending waiting ok issue expired waived"`
	Notes       string `json:"notes" validate:"max=4000"`
}

// UpdateItemRequest cambio de estado/notas (y opcionalmente textos) de un ítem.
type UpdateItemRequest struct {
	Category    *string `json:"category" validate:"omitempty,min=1,max=80"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending waiting ok issue expired waived"`
	Notes       *string `json:"notes" validate:"omitempty,max=4000"`
}

// ── Ônus ──────────────────────────────────────────────────────────────────────

// CreateLienRequest registro de un ônus sobre una propiedad existente.
type CreateLienRequest struct {
	PropertyID                string          `json:"property_id" validate:"required"`
	RegistrationEntry         string          `json:"registration_entry" validate:"max=40"`
	RelatedRegistrationNumber string          `json:"related_registration_number" validate:"max=60"`
	Type                      string          `json:"type" validate:"required,max=80"`
	Description               string          `json:"description" validate:"max=1000"`
	Creditor                  string          `json:"creditor" validate:"max=200"`
	Value                     decimal.Decimal `json:"value"`
	IsActive                  *bool           `json:"is_active"` // nil = activo
}

// UpdateLienRequest campos opcionales; nil = no cambia.
type UpdateLienRequest struct {
	RegistrationEntry         *string          `json:"registration_entry" validate:"omitempty,max=40"`
	RelatedRegistrationNumber *string          `json:"related_registration_number" validate:"omitempty,max=60"`
	Type                      *string          `json:"type" validate:"omitempty,min=1,max=80"`
	Description               *string          `json:"description" validate:"omitempty,max=1000"`
	Creditor                  *string          `json:"creditor" validate:"omitempty,max=200"`
	Value                     *decimal.Decimal `json:"value"`
	IsActive                  *bool            `json:"is_active"`
}

// GeneralNotesRequest observaciones generales del parecer.
type GeneralNotesRequest struct {
	Notes string `json:"notes" validate:"max=20000"`
}

// ── Respuestas ────────────────────────────────────────────────────────────────

// PropertyResponse propiedad tras una mutación optimista.
type PropertyResponse struct {
	Property entity.Property `json:"property"`
	Sync     SyncInfo        `json:"sync"`
}

// PartyResponse parte tras una mutación optimista.
type PartyResponse struct {
	Party entity.Party `json:"party"`
	Sync  SyncInfo     `json:"sync"`
}

// ItemResponse ítem tras una mutación optimista.
type ItemResponse struct {
	Item entity.ChecklistItem `json:"item"`
	Sync SyncInfo             `json:"sync"`
}

// LienResponse ônus tras una mutación optimista.
type LienResponse struct {
	Lien entity.Lien `json:"lien"`
	Sync SyncInfo    `json:"sync"`
}

// RetryResponse resultado de un reintento manual de sincronización.
type RetryResponse struct {
	Requeued int `json:"requeued"`
}
