package employee

import (
	"context"

	"github.com/shopspring/decimal"
)

// Directory is the read-only employee lookup used by payroll.
type Directory interface {
	// GetBasicSalary returns ErrEmployeeNotFound or ErrEmployeeHasNoBaseSalary
	GetBasicSalary(ctx context.Context, employeeID string) (decimal.Decimal, error)
	Exists(ctx context.Context, employeeID string) (bool, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}
