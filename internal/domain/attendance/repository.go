package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Dates are civil dates; only the year, month and day are significant.
type AttendanceRepository interface {
	// Create creates a new attendance record
	Create(ctx context.Context, record Record) (Record, error)

	// Update updates clock times, hours, status and notes of an existing record
	Update(ctx context.Context, record Record) error

	// GetByID retrieves a single record
	GetByID(ctx context.Context, id string) (Record, error)

	// GetByEmployeeAndDate retrieves every record of the employee on date
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) ([]Record, error)

	// ListByEmployeeAndRange retrieves records with start <= date <= end, ordered by date
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]Record, error)

	// ListOpenByEmployee retrieves records with a clock-in and no clock-out
	ListOpenByEmployee(ctx context.Context, employeeID string) ([]Record, error)

	// ListEmployeesWithOpenRecords returns the ids of employees with at least one open record
	ListEmployeesWithOpenRecords(ctx context.Context) ([]string, error)
}
