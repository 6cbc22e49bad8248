package payroll

import (
	"context"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// Calculator assembles payslip breakdowns. It is pure and never fails.
type Calculator interface {
	Calculate(input CalculationInput, cfg tax.Configuration) PayslipBreakdown
	OvertimeRate(basicSalary decimal.Decimal, policy OvertimePolicy) decimal.Decimal
}

// BatchProcessor drives the calculator over a period's employees.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, batch PayrollBatch, employeeIDs []string, cfg tax.Configuration) (BatchResult, error)
	UpdateTotals(ctx context.Context, periodID string) (Totals, error)

	// Run executes the batch lifecycle from processing to completed or failed
	Run(ctx context.Context, periodID string, employeeIDs []string) (BatchResult, error)

	CreateBatch(ctx context.Context, req CreateBatchRequest) (PayrollBatch, error)
	GetBatch(ctx context.Context, periodID string) (PayrollBatch, error)
	ListPayslips(ctx context.Context, periodID string) ([]Payslip, error)
}

// BatchCompletedNotifier is told when a batch run completes.
type BatchCompletedNotifier interface {
	BatchCompleted(ctx context.Context, batch PayrollBatch, result BatchResult) error
}

// PayslipService previews a breakdown against the active configuration
// without persisting it.
type PayslipService interface {
	Preview(ctx context.Context, req PreviewRequest) (PayslipBreakdown, error)
}

// BatchJobRunner runs batches in the background, detached from the request
// that started them.
type BatchJobRunner interface {
	Start(ctx context.Context, periodID string, employeeIDs []string) error
	Cancel(periodID string) error
	IsRunning(periodID string) bool
}
