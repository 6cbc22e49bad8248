package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PayslipRepository stores at most one payslip per (employee, period).
type PayslipRepository interface {
	FindByEmployeeAndPeriod(ctx context.Context, employeeID, periodID string) (Payslip, error)
	Create(ctx context.Context, payslip Payslip) (Payslip, error)
	Update(ctx context.Context, payslip Payslip) (Payslip, error)
	ListByPeriod(ctx context.Context, periodID string) ([]Payslip, error)

	// SumByPeriod aggregates gross, net and count of the period's payslips
	SumByPeriod(ctx context.Context, periodID string) (Totals, error)
}

// BatchRepository stores payroll batches.
type BatchRepository interface {
	Create(ctx context.Context, batch PayrollBatch) (PayrollBatch, error)
	GetByID(ctx context.Context, id string) (PayrollBatch, error)

	UpdateStatus(ctx context.Context, id string, change StatusChange) error
	UpdateTotals(ctx context.Context, id string, totals Totals) error
}

// AdjustmentSource supplies bonuses and other deductions (loans, advances)
// of one employee effective within a period.
type AdjustmentSource interface {
	PeriodAdjustments(ctx context.Context, employeeID string, start, end time.Time) (Adjustments, error)
}

// OvertimeSource supplies overtime hours worked in a date range.
type OvertimeSource interface {
	PeriodOvertimeHours(ctx context.Context, employeeID string, start, end time.Time, dailyThreshold decimal.Decimal) (decimal.Decimal, error)
}
