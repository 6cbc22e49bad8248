package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// BATCH DTOs
// ========================================

type CreateBatchRequest struct {
	PeriodID  string `json:"period_id" validate:"required"`
	Country   string `json:"country" validate:"required"`
	State     string `json:"state"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// Validate checks the request and returns the parsed period range.
func (r CreateBatchRequest) Validate() (time.Time, time.Time, error) {
	if err := validator.Struct(r); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
	return start, end, nil
}

type RunBatchRequest struct {
	EmployeeIDs []string `json:"employee_ids" validate:"dive,required"`
}

type BatchResponse struct {
	ID            string           `json:"id"`
	Jurisdiction  tax.Jurisdiction `json:"jurisdiction"`
	StartDate     string           `json:"start_date"`
	EndDate       string           `json:"end_date"`
	Status        BatchStatus      `json:"status"`
	TotalGross    decimal.Decimal  `json:"total_gross"`
	TotalNet      decimal.Decimal  `json:"total_net"`
	EmployeeCount int              `json:"employee_count"`
	FailureCount  int              `json:"failure_count"`
	LastError     *string          `json:"last_error,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
}

func NewBatchResponse(b PayrollBatch) BatchResponse {
	return BatchResponse{
		ID:            b.ID,
		Jurisdiction:  b.Jurisdiction,
		StartDate:     b.StartDate.Format("2006-01-02"),
		EndDate:       b.EndDate.Format("2006-01-02"),
		Status:        b.Status,
		TotalGross:    b.TotalGross,
		TotalNet:      b.TotalNet,
		EmployeeCount: b.EmployeeCount,
		FailureCount:  b.FailureCount,
		LastError:     b.LastError,
		ProcessedAt:   b.ProcessedAt,
	}
}

type PayslipResponse struct {
	ID                      string           `json:"id"`
	EmployeeID              string           `json:"employee_id"`
	PeriodID                string           `json:"period_id"`
	TaxConfigurationID      string           `json:"tax_configuration_id"`
	TaxConfigurationVersion int              `json:"tax_configuration_version"`
	Breakdown               PayslipBreakdown `json:"breakdown"`
}

func NewPayslipResponse(p Payslip) PayslipResponse {
	return PayslipResponse{
		ID:                      p.ID,
		EmployeeID:              p.EmployeeID,
		PeriodID:                p.PeriodID,
		TaxConfigurationID:      p.TaxConfigurationID,
		TaxConfigurationVersion: p.TaxConfigurationVersion,
		Breakdown:               p.Breakdown,
	}
}

// ========================================
// PREVIEW DTOs
// ========================================

type PreviewRequest struct {
	Country         string          `json:"country" validate:"required"`
	State           string          `json:"state"`
	BasicSalary     decimal.Decimal `json:"basic_salary" validate:"gte=0"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours" validate:"gte=0"`
	Bonuses         decimal.Decimal `json:"bonuses" validate:"gte=0"`
	OtherDeductions decimal.Decimal `json:"other_deductions" validate:"gte=0"`
}

func (r PreviewRequest) Validate() error {
	return validator.Struct(r)
}
