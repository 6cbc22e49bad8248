package tax

import "github.com/shopspring/decimal"

type CreateConfigurationRequest struct {
	Version              int              `json:"version"`
	Country              string           `json:"country"`
	State                string           `json:"state"`
	Bands                []Band           `json:"bands"`
	NapsaRate            decimal.Decimal  `json:"napsa_rate"`
	NapsaMaxSalary       decimal.Decimal  `json:"napsa_max_salary"`
	NapsaMaxContribution decimal.Decimal  `json:"napsa_max_contribution"`
	NhimaRate            decimal.Decimal  `json:"nhima_rate"`
	NhimaMaxSalary       *decimal.Decimal `json:"nhima_max_salary"`
	HousingAllowanceRate decimal.Decimal  `json:"housing_allowance_rate"`
	TransportAllowance   decimal.Decimal  `json:"transport_allowance"`
	LunchAllowance       decimal.Decimal  `json:"lunch_allowance"`
	RoundingMethod       RoundingMethod   `json:"rounding_method"`
}

// Configuration builds the inactive configuration the request describes.
func (r CreateConfigurationRequest) Configuration() Configuration {
	rounding := r.RoundingMethod
	if rounding == "" {
		rounding = RoundingNearest
	}
	return Configuration{
		Version:              r.Version,
		Jurisdiction:         Jurisdiction{Country: r.Country, State: r.State},
		Bands:                r.Bands,
		NapsaRate:            r.NapsaRate,
		NapsaMaxSalary:       r.NapsaMaxSalary,
		NapsaMaxContribution: r.NapsaMaxContribution,
		NhimaRate:            r.NhimaRate,
		NhimaMaxSalary:       r.NhimaMaxSalary,
		HousingAllowanceRate: r.HousingAllowanceRate,
		TransportAllowance:   r.TransportAllowance,
		LunchAllowance:       r.LunchAllowance,
		RoundingMethod:       rounding,
	}
}
