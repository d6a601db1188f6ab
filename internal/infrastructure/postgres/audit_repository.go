package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/AgroDiligencia-api/internal/domain"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/repository"
)

var _ repository.AuditRepository = (*AuditRepo)(nil)

// generalNotesID fila única de observaciones generales.
const generalNotesID = "general"

// AuditRepo implementación del puerto AuditRepository sobre PostgreSQL.
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// ── Lectura ───────────────────────────────────────────────────────────────────

type itemRow struct {
	ownerType entity.OwnerType
	ownerID   string
	item      entity.ChecklistItem
}

// FetchAll lee las cinco tablas en paralelo y arma el estado. Los ítems se
// reparten entre sus dueños; un ítem huérfano se descarta.
func (r *AuditRepo) FetchAll(ctx context.Context) (*entity.AuditState, error) {
	var (
		props   []entity.Property
		parties []entity.Party
		items   []itemRow
		liens   []entity.Lien
		notes   string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { props, err = r.fetchProperties(ctx); return })
	g.Go(func() (err error) { parties, err = r.fetchParties(ctx); return })
	g.Go(func() (err error) { items, err = r.fetchItems(ctx); return })
	g.Go(func() (err error) { liens, err = r.fetchLiens(ctx); return })
	g.Go(func() (err error) { notes, err = r.fetchNotes(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	propIdx := make(map[string]int, len(props))
	for i := range props {
		props[i].Items = []entity.ChecklistItem{}
		propIdx[props[i].ID] = i
	}
	partyIdx := make(map[string]int, len(parties))
	for i := range parties {
		parties[i].Items = []entity.ChecklistItem{}
		partyIdx[parties[i].ID] = i
	}
	for _, row := range items {
		switch row.ownerType {
		case entity.OwnerProperty:
			if i, ok := propIdx[row.ownerID]; ok {
				props[i].Items = append(props[i].Items, row.item)
			}
		case entity.OwnerParty:
			if i, ok := partyIdx[row.ownerID]; ok {
				parties[i].Items = append(parties[i].Items, row.item)
			}
		}
	}

	return &entity.AuditState{
		Properties:   props,
		Parties:      parties,
		Liens:        liens,
		GeneralNotes: notes,
	}, nil
}

func (r *AuditRepo) fetchProperties(ctx context.Context) ([]entity.Property, error) {
	query := `
		SELECT id::text, name, registration_number, registry_office, municipality, area
		FROM properties ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	out := []entity.Property{}
	for rows.Next() {
		var p entity.Property
		if err := rows.Scan(&p.ID, &p.Name, &p.RegistrationNumber, &p.RegistryOffice, &p.Municipality, &p.Area); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AuditRepo) fetchParties(ctx context.Context) ([]entity.Party, error) {
	query := `SELECT id::text, kind, role, name, tax_doc FROM parties ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()
	out := []entity.Party{}
	for rows.Next() {
		var p entity.Party
		if err := rows.Scan(&p.ID, &p.Kind, &p.Role, &p.Name, &p.TaxDoc); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *AuditRepo) fetchItems(ctx context.Context) ([]itemRow, error) {
	query := `
		SELECT id::text, owner_type, COALESCE(property_id, party_id)::text,
		       category, name, description, status, notes, updated_at
		FROM audit_items ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list audit items: %w", err)
	}
	defer rows.Close()
	out := []itemRow{}
	for rows.Next() {
		var row itemRow
		it := &row.item
		if err := rows.Scan(&it.ID, &row.ownerType, &row.ownerID,
			&it.Category, &it.Name, &it.Description, &it.Status, &it.Notes, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan audit item: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *AuditRepo) fetchLiens(ctx context.Context) ([]entity.Lien, error) {
	query := `
		SELECT id::text, property_id, registration_entry, COALESCE(related_registration_number, ''),
		       type, description, creditor, value, is_active
		FROM liens ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list liens: %w", err)
	}
	defer rows.Close()
	out := []entity.Lien{}
	for rows.Next() {
		var l entity.Lien
		if err := rows.Scan(&l.ID, &l.PropertyID, &l.RegistrationEntry, &l.RelatedRegistrationNumber,
			&l.Type, &l.Description, &l.Creditor, &l.Value, &l.IsActive); err != nil {
			return nil, fmt.Errorf("scan lien: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *AuditRepo) fetchNotes(ctx context.Context) (string, error) {
	var notes string
	err := r.q.QueryRow(ctx, `SELECT notes FROM audit_notes WHERE id = $1`, generalNotesID).Scan(&notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get general notes: %w", err)
	}
	return notes, nil
}

// ── Propiedades ───────────────────────────────────────────────────────────────

// CreateProperty inserta la propiedad sin ítems; los ítems se crean aparte.
func (r *AuditRepo) CreateProperty(ctx context.Context, p entity.Property) (entity.Property, error) {
	query := `
		INSERT INTO properties (name, registration_number, registry_office, municipality, area)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text`
	if err := r.q.QueryRow(ctx, query, p.Name, p.RegistrationNumber, p.RegistryOffice, p.Municipality, p.Area).Scan(&p.ID); err != nil {
		return entity.Property{}, fmt.Errorf("insert property: %w", err)
	}
	p.Items = []entity.ChecklistItem{}
	return p, nil
}

// UpdateProperty actualiza los datos descriptivos de la propiedad.
func (r *AuditRepo) UpdateProperty(ctx context.Context, p entity.Property) error {
	query := `
		UPDATE properties
		SET name = $2, registration_number = $3, registry_office = $4, municipality = $5, area = $6, updated_at = NOW()
		WHERE id = $1`
	return r.execByID(ctx, "update property", query, p.ID, p.Name, p.RegistrationNumber, p.RegistryOffice, p.Municipality, p.Area)
}

// DeleteProperty borra la propiedad; sus ítems caen por ON DELETE CASCADE.
// Los ônus no tienen FK y se borran uno a uno desde la aplicación.
func (r *AuditRepo) DeleteProperty(ctx context.Context, id string) error {
	return r.execByID(ctx, "delete property", `DELETE FROM properties WHERE id = $1`, id)
}

// ── Partes ────────────────────────────────────────────────────────────────────

// CreateParty inserta la parte sin ítems.
func (r *AuditRepo) CreateParty(ctx context.Context, p entity.Party) (entity.Party, error) {
	query := `
		INSERT INTO parties (kind, role, name, tax_doc)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text`
	if err := r.q.QueryRow(ctx, query, p.Kind, p.Role, p.Name, p.TaxDoc).Scan(&p.ID); err != nil {
		return entity.Party{}, fmt.Errorf("insert party: %w", err)
	}
	p.Items = []entity.ChecklistItem{}
	return p, nil
}

// UpdateParty actualiza los datos de la parte.
func (r *AuditRepo) UpdateParty(ctx context.Context, p entity.Party) error {
	query := `
		UPDATE parties SET kind = $2, role = $3, name = $4, tax_doc = $5, updated_at = NOW()
		WHERE id = $1`
	return r.execByID(ctx, "update party", query, p.ID, p.Kind, p.Role, p.Name, p.TaxDoc)
}

// DeleteParty borra la parte y, por cascada, sus ítems.
func (r *AuditRepo) DeleteParty(ctx context.Context, id string) error {
	return r.execByID(ctx, "delete party", `DELETE FROM parties WHERE id = $1`, id)
}

// ── Ítems ─────────────────────────────────────────────────────────────────────

// CreateAuditItem inserta el ítem colgado de la propiedad o de la parte.
// Un dueño inexistente devuelve domain.ErrNotFound.
func (r *AuditRepo) CreateAuditItem(ctx context.Context, ownerType entity.OwnerType, ownerID string, item entity.ChecklistItem) (entity.ChecklistItem, error) {
	var propertyID, partyID *string
	switch ownerType {
	case entity.OwnerProperty:
		propertyID = &ownerID
	case entity.OwnerParty:
		partyID = &ownerID
	default:
		return entity.ChecklistItem{}, fmt.Errorf("%w: tipo de dueño %q", domain.ErrInvalidInput, ownerType)
	}
	query := `
		INSERT INTO audit_items (owner_type, property_id, party_id, category, name, description, status, notes, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text`
	err := r.q.QueryRow(ctx, query, ownerType, propertyID, partyID,
		item.Category, item.Name, item.Description, item.Status, item.Notes, item.UpdatedAt).Scan(&item.ID)
	if err != nil {
		if isForeignKeyViolation(err) || isInvalidUUID(err) {
			return entity.ChecklistItem{}, domain.ErrNotFound
		}
		return entity.ChecklistItem{}, fmt.Errorf("insert audit item: %w", err)
	}
	return item, nil
}

// UpdateAuditItem reescribe el ítem completo (no cambia de dueño).
func (r *AuditRepo) UpdateAuditItem(ctx context.Context, item entity.ChecklistItem) error {
	query := `
		UPDATE audit_items
		SET category = $2, name = $3, description = $4, status = $5, notes = $6, updated_at = $7
		WHERE id = $1`
	return r.execByID(ctx, "update audit item", query, item.ID,
		item.Category, item.Name, item.Description, string(item.Status), item.Notes, item.UpdatedAt)
}

// DeleteAuditItem borra el ítem.
func (r *AuditRepo) DeleteAuditItem(ctx context.Context, id string) error {
	return r.execByID(ctx, "delete audit item", `DELETE FROM audit_items WHERE id = $1`, id)
}

// ── Ônus ──────────────────────────────────────────────────────────────────────

// CreateLien inserta el ônus. property_id es texto libre: puede apuntar a una propiedad borrada.
func (r *AuditRepo) CreateLien(ctx context.Context, l entity.Lien) (entity.Lien, error) {
	query := `
		INSERT INTO liens (property_id, registration_entry, related_registration_number, type, description, creditor, value, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text`
	err := r.q.QueryRow(ctx, query, l.PropertyID, l.RegistrationEntry, nullIfEmpty(l.RelatedRegistrationNumber),
		l.Type, l.Description, l.Creditor, l.Value, l.IsActive).Scan(&l.ID)
	if err != nil {
		return entity.Lien{}, fmt.Errorf("insert lien: %w", err)
	}
	return l, nil
}

// UpdateLien reemplaza los campos del ônus.
func (r *AuditRepo) UpdateLien(ctx context.Context, l entity.Lien) error {
	query := `
		UPDATE liens SET
			property_id = $2, registration_entry = $3, related_registration_number = $4, type = $5,
			description = $6, creditor = $7, value = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1`
	return r.execByID(ctx, "update lien", query, l.ID, l.PropertyID, l.RegistrationEntry, nullIfEmpty(l.RelatedRegistrationNumber),
		l.Type, l.Description, l.Creditor, l.Value, l.IsActive)
}

// DeleteLien borra el ônus.
func (r *AuditRepo) DeleteLien(ctx context.Context, id string) error {
	return r.execByID(ctx, "delete lien", `DELETE FROM liens WHERE id = $1`, id)
}

// SaveGeneralNotes guarda (upsert) las observaciones generales.
func (r *AuditRepo) SaveGeneralNotes(ctx context.Context, notes string) error {
	query := `
		INSERT INTO audit_notes (id, notes, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, generalNotesID, notes); err != nil {
		return fmt.Errorf("save general notes: %w", err)
	}
	return nil
}

// execByID ejecuta un UPDATE/DELETE por id; cero filas afectadas es domain.ErrNotFound.
func (r *AuditRepo) execByID(ctx context.Context, op, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
