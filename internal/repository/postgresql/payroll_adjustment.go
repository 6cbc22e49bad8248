package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
)

type payrollAdjustmentRepository struct {
	db *database.DB
}

// NewPayrollAdjustmentRepository reads bonuses and other deductions from the
// employee's assigned payroll components. A component counts when its
// effective range overlaps the period.
func NewPayrollAdjustmentRepository(db *database.DB) payroll.AdjustmentSource {
	return &payrollAdjustmentRepository{db: db}
}

// PeriodAdjustments implements payroll.AdjustmentSource.
func (r *payrollAdjustmentRepository) PeriodAdjustments(ctx context.Context, employeeID string, start, end time.Time) (payroll.Adjustments, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COALESCE(SUM(epc.amount) FILTER (WHERE pc.type = 'bonus'), 0),
			COALESCE(SUM(epc.amount) FILTER (WHERE pc.type = 'deduction'), 0)
		FROM employee_payroll_components epc
		JOIN payroll_components pc ON epc.payroll_component_id = pc.id
		WHERE epc.employee_id = $1
		  AND pc.is_active
		  AND epc.effective_date <= $3
		  AND (epc.end_date IS NULL OR epc.end_date >= $2)
	`

	var a payroll.Adjustments
	err := q.QueryRow(ctx, query, employeeID, start, end).Scan(&a.Bonuses, &a.OtherDeductions)
	if err != nil {
		return payroll.Adjustments{}, fmt.Errorf("failed to get payroll adjustments: %w", err)
	}

	return a, nil
}
