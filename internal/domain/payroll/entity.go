package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// Allowances - computed allowance lines
type Allowances struct {
	Housing   decimal.Decimal `json:"housing"`
	Transport decimal.Decimal `json:"transport"`
	Lunch     decimal.Decimal `json:"lunch"`
	Total     decimal.Decimal `json:"total"`
}

// Deductions - statutory and other deductions
type Deductions struct {
	PAYE  decimal.Decimal `json:"paye"`
	NAPSA decimal.Decimal `json:"napsa"`
	NHIMA decimal.Decimal `json:"nhima"`
	Other decimal.Decimal `json:"other"`
	Total decimal.Decimal `json:"total"`
}

// PayslipBreakdown - full gross to net computation with every intermediate value
type PayslipBreakdown struct {
	BasicSalary        decimal.Decimal    `json:"basic_salary"`
	Allowances         Allowances         `json:"allowances"`
	OvertimeHours      decimal.Decimal    `json:"overtime_hours"`
	OvertimeRate       decimal.Decimal    `json:"overtime_rate"`
	OvertimePay        decimal.Decimal    `json:"overtime_pay"`
	Bonuses            decimal.Decimal    `json:"bonuses"`
	GrossSalary        decimal.Decimal    `json:"gross_salary"`
	Deductions         Deductions         `json:"deductions"`
	NetSalary          decimal.Decimal    `json:"net_salary"`
	RoundingMethodUsed tax.RoundingMethod `json:"rounding_method_used"`
}

// CalculationInput - everything besides the tax configuration a payslip depends on
type CalculationInput struct {
	BasicSalary        decimal.Decimal
	OvertimeHours      decimal.Decimal
	HourlyOvertimeRate decimal.Decimal
	Bonuses            decimal.Decimal
	OtherDeductions    decimal.Decimal
}

// OvertimePolicy - how overtime hours and their hourly rate are derived
type OvertimePolicy struct {
	StandardMonthlyHours decimal.Decimal
	Multiplier           decimal.Decimal
	DailyThresholdHours  decimal.Decimal
}

// Payslip - persisted breakdown of one employee for one period
type Payslip struct {
	ID                      string
	EmployeeID              string
	PeriodID                string
	TaxConfigurationID      string
	TaxConfigurationVersion int
	Breakdown               PayslipBreakdown
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// BatchStatus enum
type BatchStatus string

const (
	BatchStatusDraft      BatchStatus = "draft"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// A failed or completed batch may be run again, which re-enters processing.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	switch next {
	case BatchStatusProcessing:
		return true
	case BatchStatusCompleted, BatchStatusFailed:
		return s == BatchStatusProcessing
	default:
		return false
	}
}

// PayrollBatch - the payroll of one period
type PayrollBatch struct {
	ID            string
	Jurisdiction  tax.Jurisdiction
	StartDate     time.Time
	EndDate       time.Time
	Status        BatchStatus
	TotalGross    decimal.Decimal
	TotalNet      decimal.Decimal
	EmployeeCount int
	FailureCount  int
	LastError     *string
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusChange - a lifecycle transition of a batch
type StatusChange struct {
	Status       BatchStatus
	LastError    *string
	ProcessedAt  *time.Time
	FailureCount int
}

// Totals - aggregate of every payslip attached to a period
type Totals struct {
	TotalGross    decimal.Decimal `json:"total_gross"`
	TotalNet      decimal.Decimal `json:"total_net"`
	EmployeeCount int             `json:"employee_count"`
}

// Failure - one employee skipped by a batch run
type Failure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// BatchResult - outcome of processing a set of employees
type BatchResult struct {
	ProcessedCount int       `json:"processed_count"`
	Failures       []Failure `json:"failures"`
}

// Adjustments - per-period bonuses and other deductions of one employee
type Adjustments struct {
	Bonuses         decimal.Decimal
	OtherDeductions decimal.Decimal
}
