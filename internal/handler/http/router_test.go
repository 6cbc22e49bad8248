package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// ===== FAKES =====

type fakeEngine struct {
	attendance.TimeEngine
	clockInErr    error
	clockedIn     []string
	overtimeCalls []decimal.Decimal
	summaryCalls  []string
}

func (f *fakeEngine) ClockIn(ctx context.Context, employeeID string, now time.Time) (attendance.Record, error) {
	if f.clockInErr != nil {
		return attendance.Record{}, f.clockInErr
	}
	f.clockedIn = append(f.clockedIn, employeeID)
	in := "08:00:00"
	return attendance.Record{
		ID:         "rec-1",
		EmployeeID: employeeID,
		Date:       time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		ClockIn:    &in,
		TotalHours: decimal.Zero,
		Status:     attendance.StatusPresent,
	}, nil
}

func (f *fakeEngine) PeriodSummary(ctx context.Context, employeeID string, start, end time.Time) (attendance.PeriodSummary, error) {
	f.summaryCalls = append(f.summaryCalls, employeeID)
	return attendance.PeriodSummary{
		EmployeeID: employeeID,
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		TotalHours: decimal.NewFromInt(40),
		DaysWorked: 5,
	}, nil
}

func (f *fakeEngine) PeriodOvertimeHours(ctx context.Context, employeeID string, start, end time.Time, dailyThreshold decimal.Decimal) (decimal.Decimal, error) {
	f.overtimeCalls = append(f.overtimeCalls, dailyThreshold)
	return decimal.NewFromInt(3), nil
}

type fakePayslipService struct {
	breakdown payroll.PayslipBreakdown
	err       error
}

func (f *fakePayslipService) Preview(ctx context.Context, req payroll.PreviewRequest) (payroll.PayslipBreakdown, error) {
	if f.err != nil {
		return payroll.PayslipBreakdown{}, f.err
	}
	return f.breakdown, nil
}

type fakeProcessor struct {
	payroll.BatchProcessor
	batches map[string]payroll.PayrollBatch
}

func (f *fakeProcessor) GetBatch(ctx context.Context, periodID string) (payroll.PayrollBatch, error) {
	b, ok := f.batches[periodID]
	if !ok {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}
	return b, nil
}

func (f *fakeProcessor) CreateBatch(ctx context.Context, req payroll.CreateBatchRequest) (payroll.PayrollBatch, error) {
	start, end, err := req.Validate()
	if err != nil {
		return payroll.PayrollBatch{}, err
	}
	if _, ok := f.batches[req.PeriodID]; ok {
		return payroll.PayrollBatch{}, payroll.ErrBatchAlreadyExists
	}
	b := payroll.PayrollBatch{
		ID:           req.PeriodID,
		Jurisdiction: tax.Jurisdiction{Country: req.Country},
		StartDate:    start,
		EndDate:      end,
		Status:       payroll.BatchStatusDraft,
	}
	f.batches[req.PeriodID] = b
	return b, nil
}

func (f *fakeProcessor) UpdateTotals(ctx context.Context, periodID string) (payroll.Totals, error) {
	return payroll.Totals{TotalGross: decimal.NewFromInt(100), TotalNet: decimal.NewFromInt(80), EmployeeCount: 1}, nil
}

type fakeRunner struct {
	running map[string][]string
}

func (f *fakeRunner) Start(ctx context.Context, periodID string, employeeIDs []string) error {
	if _, ok := f.running[periodID]; ok {
		return payroll.ErrBatchAlreadyRunning
	}
	f.running[periodID] = employeeIDs
	return nil
}

func (f *fakeRunner) Cancel(periodID string) error {
	if _, ok := f.running[periodID]; !ok {
		return payroll.ErrBatchNotRunning
	}
	delete(f.running, periodID)
	return nil
}

func (f *fakeRunner) IsRunning(periodID string) bool {
	_, ok := f.running[periodID]
	return ok
}

type fakeConfigService struct {
	tax.ConfigurationService
	active *tax.Configuration
}

func (f *fakeConfigService) Create(ctx context.Context, req tax.CreateConfigurationRequest) (tax.Configuration, error) {
	cfg := req.Configuration()
	if err := cfg.Validate(); err != nil {
		return tax.Configuration{}, err
	}
	cfg.ID = "cfg-1"
	return cfg, nil
}

func (f *fakeConfigService) GetActive(ctx context.Context, jurisdiction tax.Jurisdiction) (tax.Configuration, error) {
	if f.active == nil || f.active.Jurisdiction != jurisdiction {
		return tax.Configuration{}, tax.ErrNoActiveConfiguration
	}
	return *f.active, nil
}

// ===== HELPERS =====

type routerFixture struct {
	router   *chi.Mux
	jwt      jwt.Service
	engine   *fakeEngine
	payslips *fakePayslipService
	batches  *fakeProcessor
	runner   *fakeRunner
	configs  *fakeConfigService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		jwt:      jwt.NewJWTService(handlerTestSecret, time.Hour),
		engine:   &fakeEngine{},
		payslips: &fakePayslipService{},
		batches:  &fakeProcessor{batches: make(map[string]payroll.PayrollBatch)},
		runner:   &fakeRunner{running: make(map[string][]string)},
		configs:  &fakeConfigService{},
	}
	f.router = NewRouter(
		RouterConfig{Env: "test", LogLevel: slog.LevelError},
		f.jwt,
		NewAttendanceHandler(f.engine, decimal.NewFromInt(8)),
		NewPayrollHandler(f.payslips, f.batches, f.runner),
		NewTaxConfigurationHandler(f.configs),
	)
	return f
}

func (f *routerFixture) employeeToken(t *testing.T, employeeID string) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("user-"+employeeID, &employeeID, false)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("admin-1", nil, true)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

// ===== AUTH =====

func TestRouter_RejectsMissingToken(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/attendance/clock-in", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp["success"].(bool))
	assert.Empty(t, f.engine.clockedIn)
}

func TestRouter_RejectsTokenSignedWithOtherSecret(t *testing.T) {
	f := newRouterFixture(t)
	employeeID := "emp-1"
	other := jwt.NewJWTService("another-secret", time.Hour)
	token, _, err := other.GenerateAccessToken("user-1", &employeeID, true)
	require.NoError(t, err)

	w, _ := f.do(t, http.MethodGet, "/api/v1/attendance/status", token, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AttendanceRequiresEmployeeClaim(t *testing.T) {
	f := newRouterFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/attendance/clock-in", f.adminToken(t), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_PayrollRequiresAdmin(t *testing.T) {
	f := newRouterFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-01/run", f.employeeToken(t, "emp-1"), nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.runner.running)
}

// ===== ATTENDANCE =====

func TestAttendanceHandler_ClockIn_UsesEmployeeClaim(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/attendance/clock-in", f.employeeToken(t, "emp-7"), nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"emp-7"}, f.engine.clockedIn)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "emp-7", data["employee_id"])
	assert.Equal(t, "08:00:00", data["clock_in"])
	assert.Equal(t, "2025-01-06", data["date"])
}

func TestAttendanceHandler_ClockIn_AlreadyClockedIn(t *testing.T) {
	f := newRouterFixture(t)
	f.engine.clockInErr = attendance.ErrAlreadyClockedIn

	w, resp := f.do(t, http.MethodPost, "/api/v1/attendance/clock-in", f.employeeToken(t, "emp-1"), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", resp["error"].(map[string]interface{})["code"])
}

func TestAttendanceHandler_Summary_InvalidRange(t *testing.T) {
	f := newRouterFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/v1/attendance/summary?start_date=2025-01-31&end_date=2025-01-01", f.employeeToken(t, "emp-1"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.engine.summaryCalls)
}

func TestAttendanceHandler_Summary_MissingDates(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/attendance/summary", f.employeeToken(t, "emp-1"), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp["error"].(map[string]interface{})["code"])
}

func TestAttendanceHandler_Summary_AdminForEmployee(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/employees/emp-9/attendance/summary?start_date=2025-01-01&end_date=2025-01-31", f.adminToken(t), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"emp-9"}, f.engine.summaryCalls)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "40", data["total_hours"])
	assert.Equal(t, float64(5), data["days_worked"])
}

func TestAttendanceHandler_Overtime_Threshold(t *testing.T) {
	f := newRouterFixture(t)
	token := f.employeeToken(t, "emp-1")

	w, resp := f.do(t, http.MethodGet, "/api/v1/attendance/overtime?start_date=2025-01-01&end_date=2025-01-31", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", resp["data"].(map[string]interface{})["overtime_hours"])

	w, _ = f.do(t, http.MethodGet, "/api/v1/attendance/overtime?start_date=2025-01-01&end_date=2025-01-31&threshold_hours=9.5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/attendance/overtime?start_date=2025-01-01&end_date=2025-01-31&threshold_hours=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Len(t, f.engine.overtimeCalls, 2)
	assert.True(t, f.engine.overtimeCalls[0].Equal(decimal.NewFromInt(8)))
	assert.True(t, f.engine.overtimeCalls[1].Equal(decimal.RequireFromString("9.5")))
}

// ===== PAYROLL =====

func TestPayrollHandler_Preview(t *testing.T) {
	f := newRouterFixture(t)
	f.payslips.breakdown = payroll.PayslipBreakdown{
		BasicSalary: decimal.NewFromInt(10000),
		GrossSalary: decimal.NewFromInt(13040),
		NetSalary:   decimal.RequireFromString("10900.1"),
	}

	w, resp := f.do(t, http.MethodPost, "/api/v1/payroll/preview", f.adminToken(t), map[string]interface{}{
		"country":      "ZM",
		"basic_salary": "10000",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "13040", data["gross_salary"])
	assert.Equal(t, "10900.1", data["net_salary"])
}

func TestPayrollHandler_Preview_NoActiveConfiguration(t *testing.T) {
	f := newRouterFixture(t)
	f.payslips.err = tax.ErrNoActiveConfiguration

	w, _ := f.do(t, http.MethodPost, "/api/v1/payroll/preview", f.adminToken(t), map[string]interface{}{
		"country":      "ZM",
		"basic_salary": "10000",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPayrollHandler_CreateAndGetBatch(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)
	body := map[string]interface{}{
		"period_id":  "2025-01",
		"country":    "ZM",
		"start_date": "2025-01-01",
		"end_date":   "2025-01-31",
	}

	w, resp := f.do(t, http.MethodPost, "/api/v1/payroll/batches", token, body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "draft", resp["data"].(map[string]interface{})["status"])

	w, _ = f.do(t, http.MethodPost, "/api/v1/payroll/batches", token, body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp = f.do(t, http.MethodGet, "/api/v1/payroll/batches/2025-01", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "2025-01", data["id"])
	assert.Equal(t, false, data["running"])
}

func TestPayrollHandler_GetBatch_NotFound(t *testing.T) {
	f := newRouterFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/v1/payroll/batches/missing", f.adminToken(t), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPayrollHandler_RunAndCancel(t *testing.T) {
	f := newRouterFixture(t)
	token := f.adminToken(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-01/run", token, map[string]interface{}{
		"employee_ids": []string{"emp-1", "emp-2"},
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"emp-1", "emp-2"}, f.runner.running["2025-01"])

	w, _ = f.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-01/run", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-01/cancel", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-01/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPayrollHandler_RunWithoutBodyRunsEveryone(t *testing.T) {
	f := newRouterFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-02/run", f.adminToken(t), nil)

	require.Equal(t, http.StatusAccepted, w.Code)
	ids, ok := f.runner.running["2025-02"]
	assert.True(t, ok)
	assert.Empty(t, ids)
}

func TestPayrollHandler_RecomputeTotals_UnknownBatch(t *testing.T) {
	f := newRouterFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/v1/payroll/batches/missing/totals", f.adminToken(t), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===== TAX CONFIGURATIONS =====

func TestTaxConfigurationHandler_Create_InvalidBands(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/tax-configurations", f.adminToken(t), map[string]interface{}{
		"version":         1,
		"country":         "ZM",
		"rounding_method": "nearest",
		"bands": []map[string]interface{}{
			{"lower_limit": "100", "upper_limit": "5100", "rate": "0"},
		},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	details := resp["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Contains(t, details, "bands[0].lower_limit")
}

func TestTaxConfigurationHandler_GetActive(t *testing.T) {
	f := newRouterFixture(t)
	f.configs.active = &tax.Configuration{
		ID:           "cfg-zm-1",
		Version:      1,
		Jurisdiction: tax.Jurisdiction{Country: "ZM"},
		IsActive:     true,
	}
	token := f.adminToken(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/tax-configurations/active?country=ZM", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cfg-zm-1", resp["data"].(map[string]interface{})["id"])

	w, _ = f.do(t, http.MethodGet, "/api/v1/tax-configurations/active?country=MW", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/tax-configurations/active", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaxConfigurationHandler_Activate_InvalidID(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodPost, "/api/v1/tax-configurations/not-a-uuid/activate", f.adminToken(t), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", resp["error"].(map[string]interface{})["code"])
}
