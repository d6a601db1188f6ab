package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appaudit "github.com/jhoicas/AgroDiligencia-api/internal/application/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/dto"
	appfinance "github.com/jhoicas/AgroDiligencia-api/internal/application/finance"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/usecase"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/audit"
	"github.com/jhoicas/AgroDiligencia-api/internal/domain/entity"
	"github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/memory"
	"github.com/jhoicas/AgroDiligencia-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/AgroDiligencia-api/internal/interfaces/http"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// newAPI arma la API completa sobre almacenes en memoria, sin caché ni IA.
func newAPI(t *testing.T, jwtSecret string) *fiber.App {
	t.Helper()
	log := zerolog.Nop()
	queue := syncq.NewQueue(syncq.NewTracker(), log, time.Second)

	auditSvc := appaudit.NewService(memory.NewAuditStore(), nil, queue, log, appaudit.Options{
		DebounceDelay: time.Hour, Now: func() time.Time { return fixedNow },
	})
	financeSvc := appfinance.NewService(memory.NewContractStore(), nil, nil, queue, log, appfinance.Options{
		DebounceDelay: time.Hour, Now: func() time.Time { return fixedNow },
	})
	auditSvc.Load(context.Background())
	financeSvc.Load(context.Background())
	t.Cleanup(func() {
		auditSvc.Close()
		financeSvc.Close()
		queue.Close()
	})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Audit:     auditSvc,
		Finance:   financeSvc,
		Risk:      usecase.NewRiskUseCase(nil, auditSvc, time.Second, log),
		Report:    usecase.NewReportUseCase(pdf.NewMarotoReportGenerator(), auditSvc),
		JWTSecret: jwtSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// ── Salud y autenticación ─────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	resp := call(t, newAPI(t, ""), http.MethodGet, "/health", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ConJWTExigeToken(t *testing.T) {
	app := newAPI(t, testJWTSecret)

	resp := call(t, app, http.MethodGet, "/api/audit", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/health", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health queda fuera del grupo protegido")
}

// ── Checklist ─────────────────────────────────────────────────────────────────

func TestAudit_EstadoInicialConValoresPorDefecto(t *testing.T) {
	var state entity.AuditState
	decode(t, call(t, newAPI(t, ""), http.MethodGet, "/api/audit", nil), &state)

	require.Len(t, state.Properties, 1)
	assert.Len(t, state.Parties, 2)
	assert.NotEmpty(t, state.Properties[0].Items)
}

func TestAudit_CrearPropiedad(t *testing.T) {
	app := newAPI(t, "")

	resp := call(t, app, http.MethodPost, "/api/audit/properties", map[string]any{
		"name": "Fazenda Boa Vista", "registration_number": "4.321", "area": "812.5",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.PropertyResponse
	decode(t, resp, &out)
	assert.Equal(t, "Fazenda Boa Vista", out.Property.Name)
	assert.NotEmpty(t, out.Property.Items)
	assert.Equal(t, string(syncq.StateSynced), out.Sync.State)
}

func TestAudit_ValidacionDevuelveCampos(t *testing.T) {
	resp := call(t, newAPI(t, ""), http.MethodPost, "/api/audit/properties", map[string]any{"municipality": "Rio Verde"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var out dto.ValidationErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Fields, dto.FieldError{Field: "name", Rule: "required"})
}

func TestAudit_ItemInexistenteYEstadoInvalido(t *testing.T) {
	app := newAPI(t, "")

	resp := call(t, app, http.MethodPatch, "/api/audit/items/no-existe", map[string]any{"status": "ok"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, app, http.MethodPatch, "/api/audit/items/no-existe", map[string]any{"status": "aprovado"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAudit_CambioDeEstadoSeReflejaEnResumen(t *testing.T) {
	app := newAPI(t, "")

	var items []audit.ItemRef
	decode(t, call(t, app, http.MethodGet, "/api/audit/items", nil), &items)
	require.NotEmpty(t, items)

	resp := call(t, app, http.MethodPatch, "/api/audit/items/"+items[0].ID, map[string]any{"status": "expired", "notes": "vencida em 02/2026"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var sum audit.Summary
	decode(t, call(t, app, http.MethodGet, "/api/audit/summary", nil), &sum)
	assert.Equal(t, len(items), sum.TotalItems)
	assert.Equal(t, 1, sum.RiskCount)
	require.Len(t, sum.Expired, 1)
	assert.Equal(t, items[0].ID, sum.Expired[0].ItemID)

	var filtered []audit.ItemRef
	decode(t, call(t, app, http.MethodGet, "/api/audit/items?status=expired&sort=priority", nil), &filtered)
	assert.Len(t, filtered, 1)
}

func TestAudit_OnusNegativoYPropiedadInexistente(t *testing.T) {
	app := newAPI(t, "")
	var state entity.AuditState
	decode(t, call(t, app, http.MethodGet, "/api/audit", nil), &state)

	resp := call(t, app, http.MethodPost, "/api/audit/liens", map[string]any{
		"property_id": state.Properties[0].ID, "type": "Hipoteca", "value": "-10",
	})
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "NEGATIVE_AMOUNT")

	resp = call(t, app, http.MethodPost, "/api/audit/liens", map[string]any{
		"property_id": "nao-existe", "type": "Penhora", "value": "1000",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/audit/liens", map[string]any{
		"property_id": state.Properties[0].ID, "type": "Hipoteca", "creditor": "Sicredi", "value": "350000",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var lien dto.LienResponse
	decode(t, resp, &lien)
	assert.True(t, lien.Lien.IsActive)
	assert.True(t, lien.Lien.Value.Equal(decimal.NewFromInt(350000)))
}

func TestAudit_BuscarPartes(t *testing.T) {
	var parties []entity.Party
	decode(t, call(t, newAPI(t, ""), http.MethodGet, "/api/audit/parties?q=vend", nil), &parties)
	require.Len(t, parties, 1)
	assert.Equal(t, entity.PartySeller, parties[0].Role)
}

func TestAudit_SyncSinPendientes(t *testing.T) {
	app := newAPI(t, "")
	var entries []syncq.Entry
	decode(t, call(t, app, http.MethodGet, "/api/audit/sync", nil), &entries)
	assert.Empty(t, entries)

	var retry dto.RetryResponse
	decode(t, call(t, app, http.MethodPost, "/api/audit/sync/retry", nil), &retry)
	assert.Equal(t, 0, retry.Requeued)

	decode(t, call(t, app, http.MethodGet, "/api/finance/sync", nil), &entries)
	assert.Empty(t, entries)
	retry = dto.RetryResponse{Requeued: -1}
	decode(t, call(t, app, http.MethodPost, "/api/finance/sync/retry", nil), &retry)
	assert.Equal(t, 0, retry.Requeued)
}

func TestAudit_RiesgoSinAnalizadorEsDegradado(t *testing.T) {
	var out dto.RiskAnalysisDTO
	decode(t, call(t, newAPI(t, ""), http.MethodPost, "/api/audit/risk-analysis", nil), &out)
	assert.True(t, out.Degraded)
	assert.Equal(t, dto.RiskMedium, out.RiskLevel)
}

func TestAudit_ReportePDF(t *testing.T) {
	resp := call(t, newAPI(t, ""), http.MethodGet, "/api/audit/report.pdf", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

// ── Contratos ─────────────────────────────────────────────────────────────────

func TestFinance_CicloDeContrato(t *testing.T) {
	app := newAPI(t, "")

	resp := call(t, app, http.MethodPost, "/api/contracts", map[string]any{
		"lender":            "Banco do Brasil",
		"contract_number":   "CPR-2026/001",
		"rate_index":        "CDI",
		"annual_rate":       "110",
		"principal_amount":  "4000",
		"start_date":        "2026-01-15T00:00:00Z",
		"final_due_date":    "2026-12-15T00:00:00Z",
		"installment_count": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.ContractView
	decode(t, resp, &created)
	id := created.Contract.ID
	require.NotEmpty(t, id)
	assert.Len(t, created.Contract.Installments, 4)
	assert.Equal(t, string(syncq.StateSynced), created.Sync.State)

	var paid dto.ContractView
	resp = call(t, app, http.MethodPost, "/api/contracts/"+id+"/payments", map[string]any{"amount": "1500"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &paid)
	assert.True(t, paid.Contract.PaidAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, paid.Outstanding.Equal(decimal.NewFromInt(2500)))

	var settled dto.ContractView
	decode(t, call(t, app, http.MethodPost, "/api/contracts/"+id+"/settle", nil), &settled)
	assert.Equal(t, entity.ContractPaid, settled.Contract.Status)
	assert.True(t, settled.Outstanding.IsZero())

	var sum dto.FinanceSummaryDTO
	decode(t, call(t, app, http.MethodGet, "/api/finance/summary", nil), &sum)
	assert.Equal(t, 1, sum.ContractCount)
	assert.Equal(t, 1, sum.PaidCount)

	var reverted dto.ContractView
	decode(t, call(t, app, http.MethodPost, "/api/contracts/"+id+"/revert", nil), &reverted)
	assert.Empty(t, reverted.Contract.Payments)

	resp = call(t, app, http.MethodDelete, "/api/contracts/"+id, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/contracts/"+id, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFinance_Validaciones(t *testing.T) {
	app := newAPI(t, "")

	resp := call(t, app, http.MethodPost, "/api/contracts", map[string]any{"lender": "Sicoob"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "final_due_date obligatorio")

	resp = call(t, app, http.MethodPost, "/api/contracts", map[string]any{
		"lender": "Sicoob", "principal_amount": "-1", "final_due_date": "2027-01-01T00:00:00Z",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/contracts/nao-existe/payments", map[string]any{"amount": "10"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFinance_Cashflow(t *testing.T) {
	app := newAPI(t, "")
	resp := call(t, app, http.MethodPost, "/api/contracts", map[string]any{
		"lender": "Rabobank", "principal_amount": "3000", "start_date": "2026-03-01T00:00:00Z",
		"final_due_date": "2026-05-01T00:00:00Z", "installment_count": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var proj struct {
		Buckets     []json.RawMessage `json:"buckets"`
		Outstanding decimal.Decimal   `json:"outstanding"`
		Reconciled  bool              `json:"reconciled"`
	}
	decode(t, call(t, app, http.MethodGet, "/api/finance/cashflow", nil), &proj)
	assert.NotEmpty(t, proj.Buckets)
	assert.True(t, proj.Outstanding.Equal(decimal.NewFromInt(3000)))
}
