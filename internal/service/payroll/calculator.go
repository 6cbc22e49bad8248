package payroll

import (
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	taxService "github.com/cmlabs-hris/payroll-engine-go/internal/service/tax"
	"github.com/shopspring/decimal"
)

type CalculatorImpl struct{}

func NewCalculator() payroll.Calculator {
	return &CalculatorImpl{}
}

// Calculate builds the gross to net breakdown of one payslip. The caller
// must supply an active configuration.
func (c *CalculatorImpl) Calculate(input payroll.CalculationInput, cfg tax.Configuration) payroll.PayslipBreakdown {
	rules := taxService.NewRules(cfg)

	allowances := rules.ComputeAllowances(input.BasicSalary)
	overtimePay := input.OvertimeHours.Mul(input.HourlyOvertimeRate)

	gross := rules.ApplyRounding(
		input.BasicSalary.
			Add(allowances.Total).
			Add(overtimePay).
			Add(input.Bonuses),
	)

	paye := rules.ComputePAYE(input.BasicSalary)
	napsa := rules.ComputeNAPSA(gross)
	nhima := rules.ComputeNHIMA(gross)
	// rounded before summing so that net equals gross minus the listed parts
	other := rules.ApplyRounding(input.OtherDeductions)

	total := rules.ApplyRounding(paye.Add(napsa).Add(nhima).Add(other))
	net := rules.ApplyRounding(gross.Sub(total))

	return payroll.PayslipBreakdown{
		BasicSalary:   input.BasicSalary,
		Allowances:    allowances,
		OvertimeHours: input.OvertimeHours,
		OvertimeRate:  input.HourlyOvertimeRate,
		OvertimePay:   overtimePay,
		Bonuses:       input.Bonuses,
		GrossSalary:   gross,
		Deductions: payroll.Deductions{
			PAYE:  paye,
			NAPSA: napsa,
			NHIMA: nhima,
			Other: other,
			Total: total,
		},
		NetSalary:          net,
		RoundingMethodUsed: rules.RoundingMethod(),
	}
}

// OvertimeRate is the hourly overtime rate: basic salary spread over the
// standard monthly hours, times the multiplier.
func (c *CalculatorImpl) OvertimeRate(basicSalary decimal.Decimal, policy payroll.OvertimePolicy) decimal.Decimal {
	if !policy.StandardMonthlyHours.IsPositive() {
		return decimal.Zero
	}
	return basicSalary.Div(policy.StandardMonthlyHours).Mul(policy.Multiplier)
}
