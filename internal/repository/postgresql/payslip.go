package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type payslipRepository struct {
	db *database.DB
}

func NewPayslipRepository(db *database.DB) payroll.PayslipRepository {
	return &payslipRepository{db: db}
}

const payslipColumns = `
	id, employee_id, period_id, tax_configuration_id, tax_configuration_version,
	breakdown, created_at, updated_at
`

func scanPayslip(row pgx.Row) (payroll.Payslip, error) {
	var p payroll.Payslip
	var breakdown []byte
	if err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodID, &p.TaxConfigurationID, &p.TaxConfigurationVersion,
		&breakdown, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return payroll.Payslip{}, err
	}
	if err := json.Unmarshal(breakdown, &p.Breakdown); err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to decode payslip breakdown: %w", err)
	}
	return p, nil
}

// FindByEmployeeAndPeriod implements payroll.PayslipRepository.
func (r *payslipRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID, periodID string) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE employee_id = $1 AND period_id = $2`

	p, err := scanPayslip(q.QueryRow(ctx, query, employeeID, periodID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to find payslip: %w", err)
	}

	return p, nil
}

// Create implements payroll.PayslipRepository. The (employee_id, period_id)
// unique index reports a concurrent insert as ErrPayslipAlreadyExists.
func (r *payslipRepository) Create(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to encode payslip breakdown: %w", err)
	}

	query := `
		INSERT INTO payslips (
			employee_id, period_id, tax_configuration_id, tax_configuration_version,
			gross_salary, net_salary, breakdown
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + payslipColumns

	created, err := scanPayslip(q.QueryRow(ctx, query,
		p.EmployeeID, p.PeriodID, p.TaxConfigurationID, p.TaxConfigurationVersion,
		p.Breakdown.GrossSalary, p.Breakdown.NetSalary, breakdown,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
		}
		return payroll.Payslip{}, fmt.Errorf("failed to create payslip: %w", err)
	}

	return created, nil
}

// Update implements payroll.PayslipRepository.
func (r *payslipRepository) Update(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	breakdown, err := json.Marshal(p.Breakdown)
	if err != nil {
		return payroll.Payslip{}, fmt.Errorf("failed to encode payslip breakdown: %w", err)
	}

	query := `
		UPDATE payslips
		SET tax_configuration_id = $2,
			tax_configuration_version = $3,
			gross_salary = $4,
			net_salary = $5,
			breakdown = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + payslipColumns

	updated, err := scanPayslip(q.QueryRow(ctx, query,
		p.ID, p.TaxConfigurationID, p.TaxConfigurationVersion,
		p.Breakdown.GrossSalary, p.Breakdown.NetSalary, breakdown,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payslip{}, payroll.ErrPayslipNotFound
		}
		return payroll.Payslip{}, fmt.Errorf("failed to update payslip: %w", err)
	}

	return updated, nil
}

// ListByPeriod implements payroll.PayslipRepository.
func (r *payslipRepository) ListByPeriod(ctx context.Context, periodID string) ([]payroll.Payslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payslipColumns + ` FROM payslips WHERE period_id = $1 ORDER BY employee_id`

	rows, err := q.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payslips: %w", err)
	}
	defer rows.Close()

	payslips := []payroll.Payslip{}
	for rows.Next() {
		p, err := scanPayslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payslip: %w", err)
		}
		payslips = append(payslips, p)
	}

	return payslips, rows.Err()
}

// SumByPeriod implements payroll.PayslipRepository.
func (r *payslipRepository) SumByPeriod(ctx context.Context, periodID string) (payroll.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COALESCE(SUM(gross_salary), 0), COALESCE(SUM(net_salary), 0), COUNT(*)
		FROM payslips
		WHERE period_id = $1
	`

	var totals payroll.Totals
	err := q.QueryRow(ctx, query, periodID).Scan(&totals.TotalGross, &totals.TotalNet, &totals.EmployeeCount)
	if err != nil {
		return payroll.Totals{}, fmt.Errorf("failed to sum payslips: %w", err)
	}

	return totals, nil
}
