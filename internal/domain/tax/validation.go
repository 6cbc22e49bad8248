package tax

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// bandJoinTolerance is the largest step allowed between one band's upper
// limit and the next band's lower limit. Bands are commonly written with
// inclusive whole-unit limits (0–4800, 4801–6900).
var bandJoinTolerance = decimal.NewFromInt(1)

// Validate checks field ranges and the shape of the band table. Bands must
// start at zero, be contiguous and non-overlapping, and only the last band may
// be unbounded.
func (c Configuration) Validate() error {
	var errs validator.ValidationErrors

	if err := validator.Struct(c); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if c.NhimaMaxSalary != nil && c.NhimaMaxSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "nhima_max_salary",
			Message: "must be greater than or equal to 0",
		})
	}

	errs = append(errs, validateBands(c.Bands)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateBands(bands []Band) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if len(bands) == 0 {
		return errs
	}

	for i := 1; i < len(bands); i++ {
		if bands[i].LowerLimit.LessThan(bands[i-1].LowerLimit) {
			errs = append(errs, validator.ValidationError{
				Field:   "bands",
				Message: "bands must be ordered by lower_limit",
			})
			return errs
		}
	}

	if !bands[0].LowerLimit.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "bands[0].lower_limit",
			Message: "first band must start at 0",
		})
	}

	for i, b := range bands {
		field := fmt.Sprintf("bands[%d]", i)
		last := i == len(bands)-1

		if b.UpperLimit == nil {
			if !last {
				errs = append(errs, validator.ValidationError{
					Field:   field + ".upper_limit",
					Message: "only the last band may be unbounded",
				})
			}
			continue
		}

		if !b.UpperLimit.GreaterThan(b.LowerLimit) {
			errs = append(errs, validator.ValidationError{
				Field:   field + ".upper_limit",
				Message: "must be greater than lower_limit",
			})
		}

		if last {
			continue
		}

		step := bands[i+1].LowerLimit.Sub(*b.UpperLimit)
		switch {
		case step.IsNegative():
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("bands[%d].lower_limit", i+1),
				Message: fmt.Sprintf("overlaps band %d", i),
			})
		case step.GreaterThan(bandJoinTolerance):
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("bands[%d].lower_limit", i+1),
				Message: fmt.Sprintf("leaves a gap after band %d", i),
			})
		}
	}

	return errs
}

// bandFloor is where taxable income of band i starts. A band whose lower
// limit sits within one unit above the previous upper limit continues from
// that upper limit, so inclusive whole-unit tables tax the full width.
func bandFloor(sorted []Band, i int) decimal.Decimal {
	lower := sorted[i].LowerLimit
	if i == 0 || sorted[i-1].UpperLimit == nil {
		return lower
	}
	prevUpper := *sorted[i-1].UpperLimit
	step := lower.Sub(prevUpper)
	if step.IsPositive() && step.LessThanOrEqual(bandJoinTolerance) {
		return prevUpper
	}
	return lower
}

// TaxableWidth returns the part of income band i of the sorted table covers,
// or nil for an unbounded band.
func TaxableWidth(sorted []Band, i int) *decimal.Decimal {
	if sorted[i].UpperLimit == nil {
		return nil
	}
	width := sorted[i].UpperLimit.Sub(bandFloor(sorted, i))
	if width.IsNegative() {
		width = decimal.Zero
	}
	return &width
}
