package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/application/dto"
	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
	"github.com/jhoicas/BancoSangre-api/internal/application/request"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/memory"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/BancoSangre-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/BancoSangre-api/pkg/jwt"
)

var hoy = time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	app   *fiber.App
	store *memory.Store
}

// newTestEnv arma la API completa sobre el ledger en memoria con reloj fijo.
// sweepAt es la fecha que usa el barrido manual.
func newTestEnv(t *testing.T, sweepAt time.Time) *testEnv {
	t.Helper()
	store := memory.NewStore()
	store.AddHospital(entity.HospitalRef{ID: "H1", Name: "Hospital Central", Approved: true})
	store.AddHospital(entity.HospitalRef{ID: "H2", Name: "Clínica Sur", Approved: true})
	store.AddActor(entity.Actor{ID: "admin", Role: entity.RoleAdmin})
	store.AddActor(entity.Actor{ID: "staff", Role: entity.RoleHospital, HospitalID: "H1"})
	store.AddActor(entity.Actor{ID: "staff-h2", Role: entity.RoleHospital, HospitalID: "H2"})
	store.AddActor(entity.Actor{ID: "P1", Role: entity.RolePatient, PatientID: "P1"})

	clock := func() time.Time { return hoy }
	guard := auth.NewGuard(store, store)

	donation := inventory.NewDonationUseCase(store.Entries(), guard, entity.ShelfLifeDays)
	donation.Now = clock
	query := inventory.NewQueryUseCase(store.Entries(), guard, 7)
	query.Now = clock
	engine := inventory.NewAllocationEngine(store)
	engine.Now = clock
	requests := request.NewUseCase(store, store.Requests(), engine, guard)
	requests.Now = clock
	issues := issue.NewUseCase(store.Issues(), store.Requests(), guard, pdf.NewSlipGenerator())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Donation:  donation,
		Query:     query,
		Sweeper:   inventory.NewExpirySweeper(store, zerolog.Nop()),
		Requests:  requests,
		Issues:    issues,
		Guard:     guard,
		JWTSecret: testJWTSecret,
		Now:       func() time.Time { return sweepAt },
	})
	return &testEnv{app: app, store: store}
}

func bearer(t *testing.T, userID, hospitalID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, hospitalID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (e *testEnv) donate(t *testing.T, token, group string, units int, collected string) dto.InventoryEntryResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/donations", token, dto.RecordDonationRequest{
		HospitalID:     "H1",
		BloodGroup:     group,
		Units:          units,
		CollectionDate: collected,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var entry dto.InventoryEntryResponse
	require.NoError(t, json.Unmarshal(body, &entry))
	return entry
}

func (e *testEnv) submit(t *testing.T, token string, units int) dto.BloodRequestResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/requests", token, dto.SubmitRequestRequest{
		PatientID:  "P1",
		HospitalID: "H1",
		BloodGroup: "A+",
		Units:      units,
		Urgency:    "high",
		Reason:     "cirugía programada",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var req dto.BloodRequestResponse
	require.NoError(t, json.Unmarshal(body, &req))
	return req
}

// ──────────────────────────────────────────────────────────────────────────────
// Donaciones e inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestDonacion_CreaLoteConVencimiento(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)

	entry := env.donate(t, staff, "O-", 2, "2024-01-01")

	assert.Equal(t, "O-", entry.BloodGroup)
	assert.Equal(t, 2, entry.UnitsAvailable)
	assert.Equal(t, "2024-02-12", entry.ExpiryDate)
	assert.Equal(t, "available", entry.Status)
}

func TestDonacion_GrupoInvalido_Retorna400ConCampo(t *testing.T) {
	env := newTestEnv(t, hoy)
	resp, body := env.do(t, http.MethodPost, "/api/donations", bearer(t, "staff", "H1", entity.RoleHospital),
		dto.RecordDonationRequest{HospitalID: "H1", BloodGroup: "C+", Units: 1, CollectionDate: "2024-01-01"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "VALIDATION", er.Code)
	assert.Equal(t, "blood_group", er.Field)
}

func TestDonacion_FechaMalFormada_Retorna400(t *testing.T) {
	env := newTestEnv(t, hoy)
	resp, body := env.do(t, http.MethodPost, "/api/donations", bearer(t, "staff", "H1", entity.RoleHospital),
		dto.RecordDonationRequest{HospitalID: "H1", BloodGroup: "A+", Units: 1, CollectionDate: "01/01/2024"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "collection_date", er.Field)
}

func TestDonacion_OtroHospital_Retorna403(t *testing.T) {
	env := newTestEnv(t, hoy)
	resp, _ := env.do(t, http.MethodPost, "/api/donations", bearer(t, "staff-h2", "H2", entity.RoleHospital),
		dto.RecordDonationRequest{HospitalID: "H1", BloodGroup: "A+", Units: 1, CollectionDate: "2024-01-01"})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInventario_PacienteNoAccede(t *testing.T) {
	env := newTestEnv(t, hoy)
	resp, _ := env.do(t, http.MethodGet, "/api/inventory", bearer(t, "P1", "", entity.RolePatient), nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestInventario_DisponibilidadYResumen(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	env.donate(t, staff, "A+", 4, "2024-01-01")
	env.donate(t, staff, "A+", 3, "2024-01-03")

	resp, body := env.do(t, http.MethodGet, "/api/inventory/availability?blood_group=A%2B&units=8", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var av dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(body, &av))
	assert.Equal(t, "H1", av.HospitalID)
	assert.Equal(t, 7, av.UnitsEligible)
	assert.False(t, av.Available)

	resp, body = env.do(t, http.MethodGet, "/api/inventory/summary", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var sum dto.InventorySummaryResponse
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, 7, sum.TotalUnits)

	resp, body = env.do(t, http.MethodGet, "/api/inventory?blood_group=A%2B", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list struct {
		Items []dto.InventoryEntryResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, "2024-02-12", list.Items[0].ExpiryDate, "orden FEFO")
}

func TestInventario_BarridoSoloAdmin(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	env.donate(t, staff, "B+", 2, "2024-01-01")

	resp, _ := env.do(t, http.MethodPost, "/api/inventory/sweep", staff, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/inventory/sweep", bearer(t, "admin", "", entity.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var sw dto.SweepResponse
	require.NoError(t, json.Unmarshal(body, &sw))
	assert.Equal(t, 1, sw.Expired)
}

// ──────────────────────────────────────────────────────────────────────────────
// Solicitudes y emisión
// ──────────────────────────────────────────────────────────────────────────────

func TestSolicitud_AprobarYEmitir_ConsumeFEFO(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	first := env.donate(t, staff, "A+", 4, "2024-01-01")
	second := env.donate(t, staff, "A+", 3, "2024-01-03")

	req := env.submit(t, bearer(t, "P1", "", entity.RolePatient), 5)
	assert.Equal(t, "pending", req.Status)

	resp, body := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/approve-and-fulfill", staff,
		dto.ApproveAndFulfillRequest{Note: "ok", IssuedTo: "quirófano 2"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out dto.FulfillResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "fulfilled", out.Request.Status)
	require.NotNil(t, out.Issue)
	assert.Equal(t, 5, out.Issue.UnitsIssued)
	assert.Equal(t, []dto.ConsumptionResponse{
		{EntryID: first.ID, Units: 4},
		{EntryID: second.ID, Units: 1},
	}, out.Issue.Consumed)

	resp, body = env.do(t, http.MethodGet, "/api/requests/"+req.ID+"/issue", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rec dto.IssueRecordResponse
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, out.Issue.ID, rec.ID)

	resp, body = env.do(t, http.MethodGet, "/api/issues/"+rec.ID+"/pdf", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestSolicitud_InventarioInsuficiente_QuedaAprobada(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	env.donate(t, staff, "A+", 2, "2024-01-01")
	req := env.submit(t, staff, 5)

	resp, body := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/approve-and-fulfill", staff, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	var ins dto.InsufficientInventoryResponse
	require.NoError(t, json.Unmarshal(body, &ins))
	assert.Equal(t, "INSUFFICIENT_INVENTORY", ins.Code)
	assert.Equal(t, 3, ins.Shortfall)

	resp, body = env.do(t, http.MethodGet, "/api/requests/"+req.ID, staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got dto.BloodRequestResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "approved", got.Status)

	resp, body = env.do(t, http.MethodGet, "/api/inventory/availability?blood_group=A%2B&units=2", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var av dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(body, &av))
	assert.Equal(t, 2, av.UnitsEligible, "la asignación fallida no consume lotes")
}

func TestSolicitud_EmitirDosVeces_Retorna409(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	env.donate(t, staff, "A+", 6, "2024-01-01")
	req := env.submit(t, staff, 2)

	resp, _ := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/decision", staff, dto.DecisionRequest{Decision: "approved"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/fulfill", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/fulfill", staff, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "INVALID_STATE", er.Code)
}

func TestSolicitud_RechazarNoTocaInventario(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	env.donate(t, staff, "A+", 3, "2024-01-01")
	req := env.submit(t, staff, 2)

	resp, body := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/decision", staff,
		dto.DecisionRequest{Decision: "rejected", Note: "sin indicación clínica"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got dto.BloodRequestResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "rejected", got.Status)
	assert.Equal(t, "sin indicación clínica", got.DecisionNote)

	resp, _ = env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/fulfill", staff, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSolicitud_PacienteNoPuedeDecidir(t *testing.T) {
	env := newTestEnv(t, hoy)
	patient := bearer(t, "P1", "", entity.RolePatient)
	req := env.submit(t, patient, 1)

	resp, _ := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/decision", patient, dto.DecisionRequest{Decision: "approved"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/requests", patient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list struct {
		Items []dto.BloodRequestResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, req.ID, list.Items[0].ID)
}

func TestSolicitud_Inexistente_Retorna404(t *testing.T) {
	env := newTestEnv(t, hoy)
	resp, body := env.do(t, http.MethodGet, "/api/requests/no-existe", bearer(t, "staff", "H1", entity.RoleHospital), nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "NOT_FOUND", er.Code)
}

func TestSolicitud_UnidadesFueraDeRango_Retorna400(t *testing.T) {
	env := newTestEnv(t, hoy)
	resp, body := env.do(t, http.MethodPost, "/api/requests", bearer(t, "staff", "H1", entity.RoleHospital), dto.SubmitRequestRequest{
		PatientID: "P1", HospitalID: "H1", BloodGroup: "A+", Units: 11, Urgency: "low", Reason: "anemia",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "units", er.Field)
}

func TestSalidas_ListadoDelHospital(t *testing.T) {
	env := newTestEnv(t, hoy)
	staff := bearer(t, "staff", "H1", entity.RoleHospital)
	env.donate(t, staff, "A+", 3, "2024-01-01")
	req := env.submit(t, staff, 1)
	resp, _ := env.do(t, http.MethodPost, "/api/requests/"+req.ID+"/approve-and-fulfill", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodGet, "/api/issues", staff, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list struct {
		Items []dto.IssueRecordResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, req.ID, list.Items[0].RequestID)

	resp, _ = env.do(t, http.MethodGet, "/api/issues?hospital_id=H1", bearer(t, "staff-h2", "H2", entity.RoleHospital), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
