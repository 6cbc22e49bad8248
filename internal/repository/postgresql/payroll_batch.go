package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollBatchRepository struct {
	db *database.DB
}

func NewPayrollBatchRepository(db *database.DB) payroll.BatchRepository {
	return &payrollBatchRepository{db: db}
}

const payrollBatchColumns = `
	id, country, state, start_date, end_date, status,
	total_gross, total_net, employee_count, failure_count,
	last_error, processed_at, created_at, updated_at
`

func scanPayrollBatch(row pgx.Row) (payroll.PayrollBatch, error) {
	var b payroll.PayrollBatch
	err := row.Scan(
		&b.ID, &b.Jurisdiction.Country, &b.Jurisdiction.State, &b.StartDate, &b.EndDate, &b.Status,
		&b.TotalGross, &b.TotalNet, &b.EmployeeCount, &b.FailureCount,
		&b.LastError, &b.ProcessedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// Create implements payroll.BatchRepository.
func (r *payrollBatchRepository) Create(ctx context.Context, b payroll.PayrollBatch) (payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_batches (id, country, state, start_date, end_date, status, total_gross, total_net)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + payrollBatchColumns

	created, err := scanPayrollBatch(q.QueryRow(ctx, query,
		b.ID, b.Jurisdiction.Country, b.Jurisdiction.State, b.StartDate, b.EndDate, b.Status,
		b.TotalGross, b.TotalNet,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return payroll.PayrollBatch{}, payroll.ErrBatchAlreadyExists
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}

	return created, nil
}

// GetByID implements payroll.BatchRepository.
func (r *payrollBatchRepository) GetByID(ctx context.Context, id string) (payroll.PayrollBatch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollBatchColumns + ` FROM payroll_batches WHERE id = $1`

	b, err := scanPayrollBatch(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}

	return b, nil
}

// UpdateStatus implements payroll.BatchRepository. processed_at is kept
// when the change carries none.
func (r *payrollBatchRepository) UpdateStatus(ctx context.Context, id string, change payroll.StatusChange) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET status = $2,
			last_error = $3,
			failure_count = $4,
			processed_at = COALESCE($5, processed_at),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, change.Status, change.LastError, change.FailureCount, change.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to update payroll batch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrBatchNotFound
	}

	return nil
}

// UpdateTotals implements payroll.BatchRepository.
func (r *payrollBatchRepository) UpdateTotals(ctx context.Context, id string, totals payroll.Totals) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET total_gross = $2,
			total_net = $3,
			employee_count = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, totals.TotalGross, totals.TotalNet, totals.EmployeeCount)
	if err != nil {
		return fmt.Errorf("failed to update payroll batch totals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrBatchNotFound
	}

	return nil
}
