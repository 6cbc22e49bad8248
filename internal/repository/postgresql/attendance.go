package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

const attendanceColumns = `
	id, employee_id, date,
	to_char(clock_in, 'HH24:MI:SS'), to_char(clock_out, 'HH24:MI:SS'),
	break_minutes, total_hours, status, notes, created_at, updated_at
`

func scanAttendance(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date,
		&rec.ClockIn, &rec.ClockOut,
		&rec.BreakMinutes, &rec.TotalHours, &rec.Status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func collectAttendances(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return records, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			employee_id, date, clock_in, clock_out, break_minutes, total_hours, status, notes
		) VALUES (
			$1, $2, $3::text::time, $4::text::time, $5, $6, $7, $8
		) RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		rec.EmployeeID,
		rec.Date,
		rec.ClockIn,
		rec.ClockOut,
		rec.BreakMinutes,
		rec.TotalHours,
		rec.Status,
		rec.Notes,
	))
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return created, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, rec attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET clock_in = $2::text::time,
			clock_out = $3::text::time,
			break_minutes = $4,
			total_hours = $5,
			status = $6,
			notes = $7,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		rec.ID,
		rec.ClockIn,
		rec.ClockOut,
		rec.BreakMinutes,
		rec.TotalHours,
		rec.Status,
		rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`

	rec, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}

	return rec, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date = $2
		ORDER BY created_at
	`

	rows, err := q.Query(ctx, query, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return collectAttendances(rows)
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, created_at
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by range: %w", err)
	}
	return collectAttendances(rows)
}

// ListOpenByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpenByEmployee(ctx context.Context, employeeID string) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE employee_id = $1
		  AND clock_in IS NOT NULL
		  AND clock_out IS NULL
		ORDER BY date, created_at
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	return collectAttendances(rows)
}

// ListEmployeesWithOpenRecords implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListEmployeesWithOpenRecords(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT DISTINCT employee_id
		FROM attendance_records
		WHERE clock_in IS NOT NULL AND clock_out IS NULL
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees with open attendance: %w", err)
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

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}
