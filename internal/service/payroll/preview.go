package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
)

type PayslipServiceImpl struct {
	taxConfigs tax.ConfigurationRepository
	calculator payroll.Calculator
	policy     payroll.OvertimePolicy
}

func NewPayslipService(taxConfigs tax.ConfigurationRepository, calculator payroll.Calculator, policy payroll.OvertimePolicy) payroll.PayslipService {
	return &PayslipServiceImpl{
		taxConfigs: taxConfigs,
		calculator: calculator,
		policy:     policy,
	}
}

// Preview computes a breakdown against the jurisdiction's active
// configuration. Nothing is stored.
func (s *PayslipServiceImpl) Preview(ctx context.Context, req payroll.PreviewRequest) (payroll.PayslipBreakdown, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayslipBreakdown{}, err
	}

	active, err := s.taxConfigs.GetActive(ctx, tax.Jurisdiction{Country: req.Country, State: req.State})
	if err != nil {
		return payroll.PayslipBreakdown{}, err
	}
	cfg := active.Snapshot()
	if err := cfg.Validate(); err != nil {
		return payroll.PayslipBreakdown{}, fmt.Errorf("active tax configuration %s v%d is invalid: %w", cfg.ID, cfg.Version, err)
	}

	return s.calculator.Calculate(payroll.CalculationInput{
		BasicSalary:        req.BasicSalary,
		OvertimeHours:      req.OvertimeHours,
		HourlyOvertimeRate: s.calculator.OvertimeRate(req.BasicSalary, s.policy),
		Bonuses:            req.Bonuses,
		OtherDeductions:    req.OtherDeductions,
	}, cfg), nil
}
