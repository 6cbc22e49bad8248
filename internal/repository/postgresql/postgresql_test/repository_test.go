package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func insertEmployee(t *testing.T, setup *TestDatabaseSetup, code string, salary *decimal.Decimal) string {
	t.Helper()
	id := uuid.Must(uuid.NewV7()).String()
	_, err := setup.DB.Exec(context.Background(),
		`INSERT INTO employees (id, employee_code, full_name, base_salary) VALUES ($1, $2, $3, $4)`,
		id, code, "Employee "+code, salary,
	)
	require.NoError(t, err)
	return id
}

func zambiaConfig(version int) tax.Configuration {
	return tax.Configuration{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Version:      version,
		Jurisdiction: tax.Jurisdiction{Country: "ZM"},
		Bands: []tax.Band{
			{LowerLimit: d("0"), UpperLimit: dp("4800"), Rate: d("0")},
			{LowerLimit: d("4801"), UpperLimit: dp("6900"), Rate: d("0.20")},
			{LowerLimit: d("6901"), UpperLimit: dp("9900"), Rate: d("0.30")},
			{LowerLimit: d("9901"), Rate: d("0.375")},
		},
		NapsaRate:            d("0.05"),
		NapsaMaxSalary:       d("34164"),
		NapsaMaxContribution: d("1708.20"),
		NhimaRate:            d("0.01"),
		HousingAllowanceRate: d("0.25"),
		TransportAllowance:   d("300"),
		LunchAllowance:       d("240"),
		RoundingMethod:       tax.RoundingNearest,
	}
}

func TestEmployeeDirectory(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	dir := postgresql.NewEmployeeDirectory(setup.DB)

	withSalary := insertEmployee(t, setup, "E001", dp("10000"))
	withoutSalary := insertEmployee(t, setup, "E002", nil)

	salary, err := dir.GetBasicSalary(ctx, withSalary)
	require.NoError(t, err)
	assert.Equal(t, "10000", salary.String())

	_, err = dir.GetBasicSalary(ctx, withoutSalary)
	assert.ErrorIs(t, err, employee.ErrEmployeeHasNoBaseSalary)

	_, err = dir.GetBasicSalary(ctx, uuid.Must(uuid.NewV7()).String())
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = dir.GetBasicSalary(ctx, "2")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	exists, err := dir.Exists(ctx, withSalary)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = dir.Exists(ctx, "2")
	require.NoError(t, err)
	assert.False(t, exists)

	ids, err := dir.ListActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{withSalary, withoutSalary}, ids)
}

func TestAttendanceRepository_OpenRecords(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)

	empID := insertEmployee(t, setup, "E001", dp("10000"))
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	clockIn := "08:00"

	rec, err := repo.Create(ctx, attendance.Record{
		EmployeeID: empID,
		Date:       day,
		ClockIn:    &clockIn,
		TotalHours: decimal.Zero,
		Status:     attendance.StatusPresent,
	})
	require.NoError(t, err)
	require.NotNil(t, rec.ClockIn)
	assert.Equal(t, "08:00:00", *rec.ClockIn)
	assert.Nil(t, rec.ClockOut)

	open, err := repo.ListOpenByEmployee(ctx, empID)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	employees, err := repo.ListEmployeesWithOpenRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{empID}, employees)

	clockOut := "17:30:00"
	rec.ClockOut = &clockOut
	rec.TotalHours = d("8.5")
	require.NoError(t, repo.Update(ctx, rec))

	open, err = repo.ListOpenByEmployee(ctx, empID)
	require.NoError(t, err)
	assert.Empty(t, open)

	got, err := repo.ListByEmployeeAndRange(ctx, empID, day, day.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "8.5", got[0].TotalHours.String())

	_, err = repo.GetByID(ctx, uuid.Must(uuid.NewV7()).String())
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestTaxConfigurationRepository_ActivateIsExclusive(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewTaxConfigurationRepository(setup.DB)

	v1, err := repo.Create(ctx, zambiaConfig(1))
	require.NoError(t, err)
	v2, err := repo.Create(ctx, zambiaConfig(2))
	require.NoError(t, err)

	_, err = repo.Create(ctx, zambiaConfig(2))
	assert.ErrorIs(t, err, tax.ErrConfigurationVersionExists)

	_, err = repo.GetActive(ctx, tax.Jurisdiction{Country: "ZM"})
	assert.ErrorIs(t, err, tax.ErrNoActiveConfiguration)

	_, err = repo.Activate(ctx, v1.ID)
	require.NoError(t, err)
	_, err = repo.Activate(ctx, v2.ID)
	require.NoError(t, err)

	active, err := repo.GetActive(ctx, tax.Jurisdiction{Country: "ZM"})
	require.NoError(t, err)
	assert.Equal(t, v2.ID, active.ID)
	require.Len(t, active.Bands, 4)
	assert.Nil(t, active.Bands[3].UpperLimit)
	assert.Equal(t, "0.375", active.Bands[3].Rate.String())

	all, err := repo.ListByJurisdiction(ctx, tax.Jurisdiction{Country: "ZM"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[1].IsActive)
}

func TestPayslipRepository_UniquePerEmployeeAndPeriod(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()

	empID := insertEmployee(t, setup, "E001", dp("10000"))
	cfg, err := postgresql.NewTaxConfigurationRepository(setup.DB).Create(ctx, zambiaConfig(1))
	require.NoError(t, err)

	batches := postgresql.NewPayrollBatchRepository(setup.DB)
	_, err = batches.Create(ctx, payroll.PayrollBatch{
		ID:           "2025-01",
		Jurisdiction: tax.Jurisdiction{Country: "ZM"},
		StartDate:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:       payroll.BatchStatusDraft,
		TotalGross:   decimal.Zero,
		TotalNet:     decimal.Zero,
	})
	require.NoError(t, err)

	repo := postgresql.NewPayslipRepository(setup.DB)
	slip := payroll.Payslip{
		EmployeeID:              empID,
		PeriodID:                "2025-01",
		TaxConfigurationID:      cfg.ID,
		TaxConfigurationVersion: cfg.Version,
		Breakdown: payroll.PayslipBreakdown{
			BasicSalary: d("10000"),
			GrossSalary: d("13040"),
			NetSalary:   d("10900.1"),
		},
	}

	created, err := repo.Create(ctx, slip)
	require.NoError(t, err)

	_, err = repo.Create(ctx, slip)
	assert.ErrorIs(t, err, payroll.ErrPayslipAlreadyExists)

	found, err := repo.FindByEmployeeAndPeriod(ctx, empID, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "10900.1", found.Breakdown.NetSalary.String())

	totals, err := repo.SumByPeriod(ctx, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, "13040", totals.TotalGross.String())
	assert.Equal(t, 1, totals.EmployeeCount)

	require.NoError(t, batches.UpdateTotals(ctx, "2025-01", totals))
	processedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, batches.UpdateStatus(ctx, "2025-01", payroll.StatusChange{
		Status:      payroll.BatchStatusCompleted,
		ProcessedAt: &processedAt,
	}))

	b, err := batches.GetByID(ctx, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, payroll.BatchStatusCompleted, b.Status)
	assert.True(t, b.TotalNet.Equal(d("10900.1")))
	require.NotNil(t, b.ProcessedAt)
}
