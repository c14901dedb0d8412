package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/marketplace-payments/internal/auth"
	"github.com/nurpe/marketplace-payments/internal/config"
	"github.com/nurpe/marketplace-payments/internal/excel"
	"github.com/nurpe/marketplace-payments/internal/http/middleware"
	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/pdf"
	"github.com/nurpe/marketplace-payments/internal/repository/memory"
	"github.com/nurpe/marketplace-payments/internal/service"
)

type testServer struct {
	router     *gin.Engine
	store      *memory.Store
	parser     *auth.Parser
	client     model.Profile
	contractor model.Profile
	stranger   model.Profile
	contract   model.Contract
	job        model.Job
	paidAt     time.Time
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	s := &testServer{store: store, parser: auth.NewParser("test-secret")}
	s.paidAt = time.Date(2020, 8, 15, 19, 11, 26, 0, time.UTC)
	paid := true

	s.client = store.AddProfile(model.Profile{FirstName: "Harry", LastName: "Potter", Profession: "Wizard", Balance: dec("24"), Type: model.ProfileTypeClient})
	s.contractor = store.AddProfile(model.Profile{FirstName: "John", LastName: "Lenon", Profession: "Musician", Balance: dec("64"), Type: model.ProfileTypeContractor})
	s.stranger = store.AddProfile(model.Profile{FirstName: "Mr", LastName: "Robot", Profession: "Hacker", Balance: dec("231.11"), Type: model.ProfileTypeClient})
	s.contract = store.AddContract(model.Contract{Terms: "bla bla bla", Status: model.ContractStatusInProgress, ClientID: s.client.ID, ContractorID: s.contractor.ID})
	s.job = store.AddJob(model.Job{Description: "work", Price: dec("12"), ContractID: s.contract.ID})
	store.AddJob(model.Job{Description: "more work", Price: dec("188"), ContractID: s.contract.ID})
	store.AddJob(model.Job{Description: "old work", Price: dec("300"), Paid: &paid, PaymentDate: &s.paidAt, ContractID: s.contract.ID, CreatedAt: s.paidAt})

	cfg := &config.Config{Reports: config.ReportsConfig{BestClientsLimit: 2, MaxLimit: 100, ProfessionMetric: "max"}}
	log := zerolog.Nop()
	pdfGenerator, err := pdf.NewGenerator()
	require.NoError(t, err)

	handler := NewHandler(
		service.NewContractService(store),
		service.NewJobService(store),
		service.NewPaymentService(store, log),
		service.NewReportService(store, excel.NewGenerator(), pdfGenerator, cfg),
		log,
	)
	authMiddleware := middleware.Auth(s.parser, service.NewProfileService(store), true)
	s.router = NewRouter(handler, authMiddleware, "test", []string{"*"})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, caller *uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set(middleware.ProfileHeader, caller.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAuthRejectsMissingOrUnknownProfile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/contracts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown := uuid.New()
	rec = s.do(t, http.MethodGet, "/contracts", &unknown, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
	req.Header.Set(middleware.ProfileHeader, "1")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	s := newTestServer(t)
	token, err := s.parser.Issue(s.client.ID, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/contracts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/contracts", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetContract(t *testing.T) {
	s := newTestServer(t)
	path := "/contracts/" + s.contract.ID.String()

	rec := s.do(t, http.MethodGet, path, &s.client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	contract := decode[model.Contract](t, rec)
	assert.Equal(t, s.contract.ID, contract.ID)
	assert.Contains(t, rec.Body.String(), `"ClientId"`)

	rec = s.do(t, http.MethodGet, path, &s.contractor.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, path, &s.stranger.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/contracts/"+uuid.NewString(), &s.client.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/contracts/abc", &s.client.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListContractsAndUnpaidJobs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/contracts", &s.contractor.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Contract](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/contracts", &s.stranger.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/jobs/unpaid", &s.client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decode[[]model.Job](t, rec)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.Nil(t, job.Paid)
		require.NotNil(t, job.Contract)
	}
}

func TestPayJob(t *testing.T) {
	s := newTestServer(t)
	path := "/jobs/" + s.job.ID.String() + "/pay"

	rec := s.do(t, http.MethodPost, path, &s.client.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[model.PaymentResult](t, rec)
	assert.True(t, result.Client.Balance.Equal(dec("12")))
	assert.True(t, result.Contractor.Balance.Equal(dec("76")))
	assert.True(t, result.Job.IsPaid())

	rec = s.do(t, http.MethodPost, path, &s.client.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	contractor, _ := s.store.Profile(s.contractor.ID)
	assert.True(t, contractor.Balance.Equal(dec("76")))
}

func TestPayJobFailures(t *testing.T) {
	s := newTestServer(t)
	expensive := s.store.AddJob(model.Job{Description: "big", Price: dec("25"), ContractID: s.contract.ID})

	rec := s.do(t, http.MethodPost, "/jobs/"+expensive.ID.String()+"/pay", &s.client.ID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient funds")

	rec = s.do(t, http.MethodPost, "/jobs/"+s.job.ID.String()+"/pay", &s.contractor.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/jobs/"+uuid.NewString()+"/pay", &s.client.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.store.FailOn(memory.OpMarkJobPaid, assert.AnError)
	rec = s.do(t, http.MethodPost, "/jobs/"+s.job.ID.String()+"/pay", &s.client.ID, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	client, _ := s.store.Profile(s.client.ID)
	assert.True(t, client.Balance.Equal(dec("24")))
}

func TestDeposit(t *testing.T) {
	s := newTestServer(t)

	// outstanding is 12 + 188 = 200, so the cap is 50
	rec := s.do(t, http.MethodPost, "/balances/deposit", &s.client.ID, map[string]any{"amountToDeposit": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[model.Profile](t, rec)
	assert.True(t, profile.Balance.Equal(dec("44")))

	rec = s.do(t, http.MethodPost, "/balances/deposit", &s.client.ID, map[string]any{"amountToDeposit": 200})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/balances/deposit", &s.client.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/balances/deposit", &s.client.ID, map[string]any{"amountToDeposit": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stored, _ := s.store.Profile(s.client.ID)
	assert.True(t, stored.Balance.Equal(dec("44")))
}

func TestAdminReports(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/admin/best-profession?start=2020-08-15&end=2020-08-15", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	best := decode[model.ProfessionEarnings](t, rec)
	assert.Equal(t, "Musician", best.Profession)
	assert.True(t, best.Amount.Equal(dec("300")))

	rec = s.do(t, http.MethodGet, "/admin/best-profession?start=2019-01-01&end=2019-12-31", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/best-clients?start=2020-08-01T00:00:00Z&end=2020-08-31T00:00:00Z", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decode[[]model.ClientSpending](t, rec)
	require.Len(t, clients, 1)
	assert.Equal(t, s.client.ID, clients[0].ID)
	assert.Equal(t, "Harry Potter", clients[0].FullName)

	rec = s.do(t, http.MethodGet, "/admin/best-clients?start=2020-08-01&end=2020-08-31&limit=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/best-clients?start=yesterday&end=2020-08-31", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminReportExport(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/admin/report/export?start=2020-08-01&end=2020-08-31", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "revenue-report-20200801-20200831.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec = s.do(t, http.MethodGet, "/admin/report/export?start=2020-08-01&end=2020-08-31&format=pdf", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.do(t, http.MethodGet, "/admin/report/export?start=2020-08-01&end=2020-08-31&format=csv", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodPost, "/jobs/"+s.job.ID.String()+"/pay", &s.client.ID, nil)
	rec = s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_payments_job_payments_total")
}

func TestParseDate(t *testing.T) {
	parsed, dateOnly, err := parseDate("2020-08-15")
	require.NoError(t, err)
	assert.True(t, dateOnly)
	assert.Equal(t, 15, parsed.Day())

	_, dateOnly, err = parseDate("2020-08-15T10:00:00Z")
	require.NoError(t, err)
	assert.False(t, dateOnly)

	_, _, err = parseDate("")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
