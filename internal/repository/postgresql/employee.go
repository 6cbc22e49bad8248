package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeDirectoryImpl struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) employee.Directory {
	return &employeeDirectoryImpl{db: db}
}

// GetBasicSalary implements employee.Directory.
func (e *employeeDirectoryImpl) GetBasicSalary(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	if uuid.Validate(employeeID) != nil {
		return decimal.Zero, employee.ErrEmployeeNotFound
	}
	q := GetQuerier(ctx, e.db)

	query := `SELECT base_salary FROM employees WHERE id = $1 AND deleted_at IS NULL`

	var salary *decimal.Decimal
	err := q.QueryRow(ctx, query, employeeID).Scan(&salary)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, employee.ErrEmployeeNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get base salary for employee with id %s: %w", employeeID, err)
	}
	if salary == nil {
		return decimal.Zero, employee.ErrEmployeeHasNoBaseSalary
	}

	return *salary, nil
}

// Exists implements employee.Directory.
// Ids that are not UUIDs cannot match a row.
func (e *employeeDirectoryImpl) Exists(ctx context.Context, employeeID string) (bool, error) {
	if uuid.Validate(employeeID) != nil {
		return false, nil
	}
	q := GetQuerier(ctx, e.db)

	query := `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check employee with id %s: %w", employeeID, err)
	}

	return exists, nil
}

// ListActiveIDs implements employee.Directory.
func (e *employeeDirectoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id
		FROM employees
		WHERE employment_status = $1 AND deleted_at IS NULL
		ORDER BY employee_code
	`

	rows, err := q.Query(ctx, query, employee.EmploymentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
