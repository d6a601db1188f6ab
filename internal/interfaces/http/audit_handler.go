package http

import (
	"github.com/gofiber/fiber/v2"

	appaudit "github.com/jhoicas/AgroDiligencia-api/internal/application/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
)

// AuditHandler expone el checklist de due diligence.
type AuditHandler struct {
	svc *appaudit.Service
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *appaudit.Service) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// State godoc
// @Summary      Estado completo del checklist
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  entity.AuditState
// @Router       /api/audit [get]
func (h *AuditHandler) State(c *fiber.Ctx) error {
	return c.JSON(h.svc.Snapshot())
}

// Summary godoc
// @Summary      Indicadores del dashboard (conclusión, riesgo, vencidos, ônus)
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  audit.Summary
// @Router       /api/audit/summary [get]
func (h *AuditHandler) Summary(c *fiber.Ctx) error {
	return c.JSON(h.svc.Summary())
}

// ListItems godoc
// @Summary      Ítems aplanados con filtro por estado y orden
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "pending|waiting|ok|issue|expired|waived|all"
// @Param        sort    query  string  false  "name|priority|updated-asc|updated-desc"
// @Success      200     {array}  audit.ItemRef
// @Router       /api/audit/items [get]
func (h *AuditHandler) ListItems(c *fiber.Ctx) error {
	return c.JSON(h.svc.ListItems(c.Query("status"), audit.ParseSortMode(c.Query("sort"))))
}

// UpdateNotes godoc
// @Summary      Guardar observaciones generales
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GeneralNotesRequest  true  "Observaciones"
// @Success      200   {object}  dto.SyncInfo
// @Router       /api/audit/notes [put]
func (h *AuditHandler) UpdateNotes(c *fiber.Ctx) error {
	var in dto.GeneralNotesRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	return c.JSON(syncInfo(h.svc.UpdateGeneralNotes(in.Notes)))
}

// ── Propiedades ───────────────────────────────────────────────────────────────

// CreateProperty godoc
// @Summary      Alta de imóvel con su checklist inicial
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePropertyRequest  true  "Datos del imóvel"
// @Success      201   {object}  dto.PropertyResponse
// @Failure      400   {object}  dto.ValidationErrorResponse
// @Router       /api/audit/properties [post]
func (h *AuditHandler) CreateProperty(c *fiber.Ctx) error {
	var in dto.CreatePropertyRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	p, state, err := h.svc.CreateProperty(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PropertyResponse{Property: p, Sync: syncInfo(state)})
}

// UpdateProperty godoc
// @Summary      Editar imóvel
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del imóvel"
// @Param        body  body  dto.UpdatePropertyRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.PropertyResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/audit/properties/{id} [patch]
func (h *AuditHandler) UpdateProperty(c *fiber.Ctx) error {
	var in dto.UpdatePropertyRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	p, state, err := h.svc.UpdateProperty(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PropertyResponse{Property: p, Sync: syncInfo(state)})
}

// DeleteProperty godoc
// @Summary      Borrar imóvel, sus ítems y sus ônus
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del imóvel"
// @Success      200  {object}  dto.SyncInfo
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/audit/properties/{id} [delete]
func (h *AuditHandler) DeleteProperty(c *fiber.Ctx) error {
	state, err := h.svc.DeleteProperty(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(syncInfo(state))
}

// AddPropertyItem godoc
// @Summary      Agregar ítem al checklist de un imóvel
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del imóvel"
// @Param        body  body  dto.CreateItemRequest  true  "Ítem"
// @Success      201   {object}  dto.ItemResponse
// @Router       /api/audit/properties/{id}/items [post]
func (h *AuditHandler) AddPropertyItem(c *fiber.Ctx) error {
	return h.addItem(c, entity.OwnerProperty)
}

// ── Partes ────────────────────────────────────────────────────────────────────

// SearchParties godoc
// @Summary      Buscar partes por nombre o CPF/CNPJ
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        q    query  string  false  "Texto a buscar"
// @Success      200  {array}  entity.Party
// @Router       /api/audit/parties [get]
func (h *AuditHandler) SearchParties(c *fiber.Ctx) error {
	return c.JSON(h.svc.SearchParties(c.Query("q")))
}

// CreateParty godoc
// @Summary      Alta de comprador o vendedor con su checklist inicial
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartyRequest  true  "Datos de la parte"
// @Success      201   {object}  dto.PartyResponse
// @Router       /api/audit/parties [post]
func (h *AuditHandler) CreateParty(c *fiber.Ctx) error {
	var in dto.CreatePartyRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	p, state, err := h.svc.CreateParty(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PartyResponse{Party: p, Sync: syncInfo(state)})
}

// UpdateParty godoc
// @Summary      Editar parte
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la parte"
// @Param        body  body  dto.UpdatePartyRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.PartyResponse
// @Router       /api/audit/parties/{id} [patch]
func (h *AuditHandler) UpdateParty(c *fiber.Ctx) error {
	var in dto.UpdatePartyRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	p, state, err := h.svc.UpdateParty(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PartyResponse{Party: p, Sync: syncInfo(state)})
}

// DeleteParty godoc
// @Summary      Borrar parte y sus ítems
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la parte"
// @Success      200  {object}  dto.SyncInfo
// @Router       /api/audit/parties/{id} [delete]
func (h *AuditHandler) DeleteParty(c *fiber.Ctx) error {
	state, err := h.svc.DeleteParty(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(syncInfo(state))
}

// AddPartyItem godoc
// @Summary      Agregar ítem al checklist de una parte
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la parte"
// @Param        body  body  dto.CreateItemRequest  true  "Ítem"
// @Success      201   {object}  dto.ItemResponse
// @Router       /api/audit/parties/{id}/items [post]
func (h *AuditHandler) AddPartyItem(c *fiber.Ctx) error {
	return h.addItem(c, entity.OwnerParty)
}

// ── Ítems ─────────────────────────────────────────────────────────────────────

func (h *AuditHandler) addItem(c *fiber.Ctx, owner entity.OwnerType) error {
	var in dto.CreateItemRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	it, state, err := h.svc.AddItem(c.UserContext(), owner, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ItemResponse{Item: it, Sync: syncInfo(state)})
}

// UpdateItem godoc
// @Summary      Cambiar estado, notas o textos de un ítem
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del ítem"
// @Param        body  body  dto.UpdateItemRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.ItemResponse
// @Router       /api/audit/items/{id} [patch]
func (h *AuditHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	it, state, err := h.svc.UpdateItem(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ItemResponse{Item: it, Sync: syncInfo(state)})
}

// DeleteItem godoc
// @Summary      Borrar ítem
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.SyncInfo
// @Router       /api/audit/items/{id} [delete]
func (h *AuditHandler) DeleteItem(c *fiber.Ctx) error {
	state, err := h.svc.DeleteItem(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(syncInfo(state))
}

// ── Ônus ──────────────────────────────────────────────────────────────────────

// CreateLien godoc
// @Summary      Registrar ônus sobre un imóvel
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLienRequest  true  "Ônus"
// @Success      201   {object}  dto.LienResponse
// @Router       /api/audit/liens [post]
func (h *AuditHandler) CreateLien(c *fiber.Ctx) error {
	var in dto.CreateLienRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	l, state, err := h.svc.CreateLien(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.LienResponse{Lien: l, Sync: syncInfo(state)})
}

// UpdateLien godoc
// @Summary      Editar ônus (incluye baixa)
// @Tags         audit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del ônus"
// @Param        body  body  dto.UpdateLienRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.LienResponse
// @Router       /api/audit/liens/{id} [patch]
func (h *AuditHandler) UpdateLien(c *fiber.Ctx) error {
	var in dto.UpdateLienRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	l, state, err := h.svc.UpdateLien(c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LienResponse{Lien: l, Sync: syncInfo(state)})
}

// DeleteLien godoc
// @Summary      Borrar ônus
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ônus"
// @Success      200  {object}  dto.SyncInfo
// @Router       /api/audit/liens/{id} [delete]
func (h *AuditHandler) DeleteLien(c *fiber.Ctx) error {
	state, err := h.svc.DeleteLien(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(syncInfo(state))
}

// ── Sincronización ────────────────────────────────────────────────────────────

// PendingSync godoc
// @Summary      Entidades del checklist con escritura remota fallida
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  syncq.Entry
// @Router       /api/audit/sync [get]
func (h *AuditHandler) PendingSync(c *fiber.Ctx) error {
	return c.JSON(h.svc.PendingSync())
}

// RetrySync godoc
// @Summary      Reencolar las escrituras fallidas
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RetryResponse
// @Router       /api/audit/sync/retry [post]
func (h *AuditHandler) RetrySync(c *fiber.Ctx) error {
	return c.JSON(dto.RetryResponse{Requeued: h.svc.RetryPending()})
}
