package tax

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RoundingMethod enum
type RoundingMethod string

const (
	RoundingNearest RoundingMethod = "nearest"
	RoundingUp      RoundingMethod = "up"
	RoundingDown    RoundingMethod = "down"
	RoundingNone    RoundingMethod = "none"
)

// SchemaVersion is the current shape of Configuration.
const SchemaVersion = 1

// Jurisdiction identifies the country, and optionally the state, a
// configuration applies to.
type Jurisdiction struct {
	Country string `json:"country" validate:"required"`
	State   string `json:"state,omitempty"`
}

func (j Jurisdiction) String() string {
	if j.State == "" {
		return j.Country
	}
	return j.Country + "/" + j.State
}

// Band taxes income between LowerLimit and UpperLimit at Rate.
// A nil UpperLimit means the band is unbounded.
type Band struct {
	LowerLimit decimal.Decimal  `json:"lower_limit" validate:"gte=0"`
	UpperLimit *decimal.Decimal `json:"upper_limit"`
	Rate       decimal.Decimal  `json:"rate" validate:"gte=0,lte=1"`
}

// Configuration is an immutable, versioned set of tax rules.
type Configuration struct {
	ID                   string           `json:"id"`
	Version              int              `json:"version" validate:"gte=1"`
	Jurisdiction         Jurisdiction     `json:"jurisdiction"`
	Bands                []Band           `json:"bands" validate:"min=1,dive"`
	NapsaRate            decimal.Decimal  `json:"napsa_rate" validate:"gte=0,lte=1"`
	NapsaMaxSalary       decimal.Decimal  `json:"napsa_max_salary" validate:"gte=0"`
	NapsaMaxContribution decimal.Decimal  `json:"napsa_max_contribution" validate:"gte=0"`
	NhimaRate            decimal.Decimal  `json:"nhima_rate" validate:"gte=0,lte=1"`
	NhimaMaxSalary       *decimal.Decimal `json:"nhima_max_salary"`
	HousingAllowanceRate decimal.Decimal  `json:"housing_allowance_rate" validate:"gte=0,lte=1"`
	TransportAllowance   decimal.Decimal  `json:"transport_allowance" validate:"gte=0"`
	LunchAllowance       decimal.Decimal  `json:"lunch_allowance" validate:"gte=0"`
	RoundingMethod       RoundingMethod   `json:"rounding_method" validate:"required,oneof=nearest up down none"`
	IsActive             bool             `json:"is_active"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Snapshot returns a deep copy that shares no mutable state with c.
func (c Configuration) Snapshot() Configuration {
	snap := c
	snap.Bands = make([]Band, len(c.Bands))
	for i, b := range c.Bands {
		snap.Bands[i] = b
		if b.UpperLimit != nil {
			upper := *b.UpperLimit
			snap.Bands[i].UpperLimit = &upper
		}
	}
	if c.NhimaMaxSalary != nil {
		max := *c.NhimaMaxSalary
		snap.NhimaMaxSalary = &max
	}
	return snap
}

// SortedBands returns the bands ordered by lower limit.
func (c Configuration) SortedBands() []Band {
	bands := make([]Band, len(c.Bands))
	copy(bands, c.Bands)
	sort.SliceStable(bands, func(i, j int) bool {
		return bands[i].LowerLimit.LessThan(bands[j].LowerLimit)
	})
	return bands
}
