package tax

import (
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// Rules evaluates one tax configuration. Every method is pure.
type Rules struct {
	cfg   tax.Configuration
	bands []tax.Band
}

func NewRules(cfg tax.Configuration) *Rules {
	return &Rules{
		cfg:   cfg,
		bands: cfg.SortedBands(),
	}
}

// ApplyRounding rounds amount with the configured method. Unknown methods
// round to the nearest cent.
func (r *Rules) ApplyRounding(amount decimal.Decimal) decimal.Decimal {
	switch r.cfg.RoundingMethod {
	case tax.RoundingUp:
		return amount.Ceil()
	case tax.RoundingDown:
		return amount.Floor()
	case tax.RoundingNone:
		return amount
	default:
		return amount.Round(2)
	}
}

// ComputeAllowances derives housing from basic salary and adds the fixed
// transport and lunch amounts. No salary means no allowances.
func (r *Rules) ComputeAllowances(basicSalary decimal.Decimal) payroll.Allowances {
	if !basicSalary.IsPositive() {
		return payroll.Allowances{
			Housing:   decimal.Zero,
			Transport: decimal.Zero,
			Lunch:     decimal.Zero,
			Total:     decimal.Zero,
		}
	}

	housing := r.ApplyRounding(basicSalary.Mul(r.cfg.HousingAllowanceRate))
	transport := r.ApplyRounding(r.cfg.TransportAllowance)
	lunch := r.ApplyRounding(r.cfg.LunchAllowance)

	return payroll.Allowances{
		Housing:   housing,
		Transport: transport,
		Lunch:     lunch,
		Total:     r.ApplyRounding(housing.Add(transport).Add(lunch)),
	}
}

// ComputePAYE applies the progressive bands to basic salary.
func (r *Rules) ComputePAYE(basicSalary decimal.Decimal) decimal.Decimal {
	remaining := basicSalary
	total := decimal.Zero

	for i, band := range r.bands {
		if !remaining.IsPositive() {
			break
		}

		width := tax.TaxableWidth(r.bands, i)
		if width == nil {
			total = total.Add(remaining.Mul(band.Rate))
			break
		}

		taxed := decimal.Min(remaining, *width)
		total = total.Add(taxed.Mul(band.Rate))
		remaining = remaining.Sub(taxed)
	}

	return r.ApplyRounding(total)
}

// ComputeNAPSA is the pension contribution on gross salary, capped both on
// assessable salary and on the contribution itself. The contribution cap is
// applied after rounding so no rounding method can exceed it.
func (r *Rules) ComputeNAPSA(grossSalary decimal.Decimal) decimal.Decimal {
	if !grossSalary.IsPositive() {
		return decimal.Zero
	}
	assessable := decimal.Min(grossSalary, r.cfg.NapsaMaxSalary)
	amount := r.ApplyRounding(assessable.Mul(r.cfg.NapsaRate))
	return decimal.Min(amount, r.cfg.NapsaMaxContribution)
}

// ComputeNHIMA is the health insurance contribution on gross salary.
func (r *Rules) ComputeNHIMA(grossSalary decimal.Decimal) decimal.Decimal {
	if !grossSalary.IsPositive() {
		return decimal.Zero
	}
	base := grossSalary
	if r.cfg.NhimaMaxSalary != nil {
		base = decimal.Min(base, *r.cfg.NhimaMaxSalary)
	}
	return r.ApplyRounding(base.Mul(r.cfg.NhimaRate))
}

// RoundingMethod is the method the rules apply.
func (r *Rules) RoundingMethod() tax.RoundingMethod {
	switch r.cfg.RoundingMethod {
	case tax.RoundingUp, tax.RoundingDown, tax.RoundingNone:
		return r.cfg.RoundingMethod
	default:
		return tax.RoundingNearest
	}
}
