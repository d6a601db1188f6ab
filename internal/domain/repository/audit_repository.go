package repository

import (
	"context"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// AuditRepository puerto del almacén remoto de tablas para el checklist (DIP).
//
// Los Create devuelven la entidad con el ID generado por el almacén. Updates y deletes
// son best-effort: el caller registra el error, no lo propaga al usuario.
type AuditRepository interface {
	FetchAll(ctx context.Context) (*entity.AuditState, error)

	CreateProperty(ctx context.Context, p entity.Property) (entity.Property, error)
	UpdateProperty(ctx context.Context, p entity.Property) error
	DeleteProperty(ctx context.Context, id string) error

	CreateParty(ctx context.Context, p entity.Party) (entity.Party, error)
	UpdateParty(ctx context.Context, p entity.Party) error
	DeleteParty(ctx context.Context, id string) error

	// CreateAuditItem crea un ítem para ownerType/ownerID (propiedad o parte).
	CreateAuditItem(ctx context.Context, ownerType entity.OwnerType, ownerID string, item entity.ChecklistItem) (entity.ChecklistItem, error)
	// UpdateAuditItem escribe todas las columnas del ítem: una escritura exitosa deja el
	// almacén igual al estado local aunque una anterior haya fallado.
	UpdateAuditItem(ctx context.Context, item entity.ChecklistItem) error
	DeleteAuditItem(ctx context.Context, id string) error

	CreateLien(ctx context.Context, l entity.Lien) (entity.Lien, error)
	UpdateLien(ctx context.Context, l entity.Lien) error
	DeleteLien(ctx context.Context, id string) error

	SaveGeneralNotes(ctx context.Context, notes string) error
}
