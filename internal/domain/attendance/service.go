package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TimeEngine owns shift arithmetic and the clock-in/clock-out state machine.
type TimeEngine interface {
	// ComputeShiftHours derives worked hours of one shift. It never fails.
	ComputeShiftHours(date time.Time, clockIn, clockOut *string, breakMinutes int) Hours

	// CloseStaleOpenShifts closes open records left behind before asOf
	CloseStaleOpenShifts(ctx context.Context, employeeID string, asOf time.Time, cutoff TimeOfDay) (int, error)

	// SweepAll closes stale open records of every employee
	SweepAll(ctx context.Context, asOf time.Time) (int, error)

	ClockIn(ctx context.Context, employeeID string, now time.Time) (Record, error)
	ClockOut(ctx context.Context, employeeID string, now time.Time) (Record, error)
	CurrentStatus(ctx context.Context, employeeID string, now time.Time) (DayStatus, error)

	PeriodOvertimeHours(ctx context.Context, employeeID string, start, end time.Time, dailyThreshold decimal.Decimal) (decimal.Decimal, error)
	PeriodSummary(ctx context.Context, employeeID string, start, end time.Time) (PeriodSummary, error)
}
