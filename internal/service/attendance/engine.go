package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/lock"
	"github.com/shopspring/decimal"
)

// Config holds the operational attendance policy.
type Config struct {
	Location      *time.Location
	ExpectedStart attendance.TimeOfDay
	LateGrace     time.Duration
	Cutoff        attendance.TimeOfDay
	Now           func() time.Time
}

type TimeEngineImpl struct {
	repo   attendance.AttendanceRepository
	locker lock.Locker
	cfg    Config
}

func NewTimeEngine(repo attendance.AttendanceRepository, locker lock.Locker, cfg Config) attendance.TimeEngine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TimeEngineImpl{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
	}
}

// civilDate strips the clock from t, keeping its calendar date.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ComputeShiftHours implements attendance.TimeEngine.
func (e *TimeEngineImpl) ComputeShiftHours(date time.Time, clockIn, clockOut *string, breakMinutes int) attendance.Hours {
	if clockIn == nil || clockOut == nil || strings.TrimSpace(*clockIn) == "" || strings.TrimSpace(*clockOut) == "" {
		return attendance.Hours{Value: decimal.Zero}
	}

	in, err := attendance.ParseTimeOfDay(strings.TrimSpace(*clockIn))
	if err != nil {
		return attendance.Hours{Value: decimal.Zero, Degraded: true, Reason: fmt.Sprintf("unparseable clock-in %q", *clockIn)}
	}
	out, err := attendance.ParseTimeOfDay(strings.TrimSpace(*clockOut))
	if err != nil {
		return attendance.Hours{Value: decimal.Zero, Degraded: true, Reason: fmt.Sprintf("unparseable clock-out %q", *clockOut)}
	}

	start := in.On(date, e.cfg.Location)
	end := out.On(date, e.cfg.Location)
	// overnight shift
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	rawMinutes := int(elapsed / time.Minute)

	if breakMinutes < 0 {
		breakMinutes = 0
	}
	workMinutes := rawMinutes - breakMinutes
	if workMinutes < 0 {
		workMinutes = 0
	}

	return attendance.Hours{Value: decimal.NewFromInt(int64(workMinutes)).Div(decimal.NewFromInt(60)).Round(2)}
}

// deriveHours recomputes a record's hours and reports degraded inputs.
func (e *TimeEngineImpl) deriveHours(rec attendance.Record) decimal.Decimal {
	hours := e.ComputeShiftHours(rec.Date, rec.ClockIn, rec.ClockOut, rec.BreakMinutes)
	if hours.Degraded {
		slog.Warn("Shift hours degraded to zero",
			"attendance_id", rec.ID,
			"employee_id", rec.EmployeeID,
			"date", rec.Date.Format("2006-01-02"),
			"reason", hours.Reason,
		)
	}
	return hours.Value
}

func (e *TimeEngineImpl) withEmployeeLock(ctx context.Context, employeeID string, fn func() error) error {
	unlock, err := e.locker.Lock(ctx, lock.AttendanceKey(employeeID))
	if err != nil {
		return fmt.Errorf("failed to lock attendance of employee %s: %w", employeeID, err)
	}
	defer unlock()
	return fn()
}

// CloseStaleOpenShifts implements attendance.TimeEngine.
func (e *TimeEngineImpl) CloseStaleOpenShifts(ctx context.Context, employeeID string, asOf time.Time, cutoff attendance.TimeOfDay) (int, error) {
	var closed int
	err := e.withEmployeeLock(ctx, employeeID, func() error {
		var err error
		closed, _, err = e.closeStale(ctx, employeeID, asOf, cutoff)
		return err
	})
	return closed, err
}

// closeStale expects the employee lock to be held. It returns how many
// stale shifts it closed and how many it found.
func (e *TimeEngineImpl) closeStale(ctx context.Context, employeeID string, asOf time.Time, cutoff attendance.TimeOfDay) (int, int, error) {
	asOfLocal := asOf.In(e.cfg.Location)
	today := civilDate(asOfLocal)
	pastCutoff := !attendance.TimeOfDayOf(asOfLocal).Before(cutoff)

	open, err := e.repo.ListOpenByEmployee(ctx, employeeID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list open shifts: %w", err)
	}

	closed, stale := 0, 0
	for _, rec := range open {
		recDate := civilDate(rec.Date)
		if !recDate.Before(today) && !(recDate.Equal(today) && pastCutoff) {
			continue
		}
		stale++

		clockOut := cutoff.String()
		rec.ClockOut = &clockOut
		rec.TotalHours = e.deriveHours(rec)
		rec.AppendNote(fmt.Sprintf("Auto-closed at %s: no clock-out recorded (sweep at %s)", clockOut, asOfLocal.Format(time.RFC3339)))

		if err := e.repo.Update(ctx, rec); err != nil {
			slog.Error("Failed to auto-close stale shift", "attendance_id", rec.ID, "employee_id", employeeID, "error", err)
			continue
		}
		closed++
	}

	if closed > 0 {
		slog.Info("Closed stale open shifts", "employee_id", employeeID, "count", closed)
	}
	return closed, stale, nil
}

// SweepAll implements attendance.TimeEngine.
func (e *TimeEngineImpl) SweepAll(ctx context.Context, asOf time.Time) (int, error) {
	employeeIDs, err := e.repo.ListEmployeesWithOpenRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list employees with open shifts: %w", err)
	}

	total := 0
	for _, employeeID := range employeeIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := e.CloseStaleOpenShifts(ctx, employeeID, asOf, e.cfg.Cutoff)
		if err != nil {
			slog.Error("Failed to sweep stale shifts", "employee_id", employeeID, "error", err)
			continue
		}
		total += n
	}
	return total, nil
}

func (e *TimeEngineImpl) isLate(local time.Time) bool {
	threshold := e.cfg.ExpectedStart.On(local, e.cfg.Location).Add(e.cfg.LateGrace)
	return local.After(threshold)
}

// ClockIn implements attendance.TimeEngine.
func (e *TimeEngineImpl) ClockIn(ctx context.Context, employeeID string, now time.Time) (attendance.Record, error) {
	var created attendance.Record
	err := e.withEmployeeLock(ctx, employeeID, func() error {
		closed, stale, err := e.closeStale(ctx, employeeID, now, e.cfg.Cutoff)
		if err != nil {
			return err
		}
		if closed < stale {
			return attendance.ErrStaleShiftOpen
		}

		local := now.In(e.cfg.Location)
		date := civilDate(local)

		records, err := e.repo.GetByEmployeeAndDate(ctx, employeeID, date)
		if err != nil {
			return fmt.Errorf("failed to get attendance of the day: %w", err)
		}
		for _, rec := range records {
			if rec.IsOpen() {
				return attendance.ErrAlreadyClockedIn
			}
		}

		status := attendance.StatusPresent
		if e.isLate(local) {
			status = attendance.StatusLate
		}

		clockIn := attendance.TimeOfDayOf(local).String()
		created, err = e.repo.Create(ctx, attendance.Record{
			EmployeeID: employeeID,
			Date:       date,
			ClockIn:    &clockIn,
			TotalHours: decimal.Zero,
			Status:     status,
		})
		if err != nil {
			return fmt.Errorf("failed to create attendance: %w", err)
		}
		return nil
	})
	return created, err
}

// ClockOut implements attendance.TimeEngine.
func (e *TimeEngineImpl) ClockOut(ctx context.Context, employeeID string, now time.Time) (attendance.Record, error) {
	var updated attendance.Record
	err := e.withEmployeeLock(ctx, employeeID, func() error {
		if _, _, err := e.closeStale(ctx, employeeID, now, e.cfg.Cutoff); err != nil {
			return err
		}

		local := now.In(e.cfg.Location)
		records, err := e.repo.GetByEmployeeAndDate(ctx, employeeID, civilDate(local))
		if err != nil {
			return fmt.Errorf("failed to get attendance of the day: %w", err)
		}

		var open *attendance.Record
		for i := range records {
			if records[i].IsOpen() {
				open = &records[i]
				break
			}
		}
		if open == nil {
			return attendance.ErrNoOpenShift
		}

		clockOut := attendance.TimeOfDayOf(local).String()
		open.ClockOut = &clockOut
		open.TotalHours = e.deriveHours(*open)

		if err := e.repo.Update(ctx, *open); err != nil {
			return fmt.Errorf("failed to update attendance: %w", err)
		}
		updated = *open
		return nil
	})
	return updated, err
}

// CurrentStatus implements attendance.TimeEngine.
func (e *TimeEngineImpl) CurrentStatus(ctx context.Context, employeeID string, now time.Time) (attendance.DayStatus, error) {
	local := now.In(e.cfg.Location)
	status := attendance.DayStatus{EmployeeID: employeeID, Date: civilDate(local)}

	err := e.withEmployeeLock(ctx, employeeID, func() error {
		if _, _, err := e.closeStale(ctx, employeeID, now, e.cfg.Cutoff); err != nil {
			return err
		}
		records, err := e.repo.GetByEmployeeAndDate(ctx, employeeID, status.Date)
		if err != nil {
			return fmt.Errorf("failed to get attendance of the day: %w", err)
		}
		status.Records = records
		for i := range records {
			if records[i].IsOpen() {
				status.Open = &records[i]
				break
			}
		}
		return nil
	})
	return status, err
}

// periodRecords sweeps, then loads the records of the range.
func (e *TimeEngineImpl) periodRecords(ctx context.Context, employeeID string, start, end time.Time) ([]attendance.Record, error) {
	start, end = civilDate(start), civilDate(end)
	if start.After(end) {
		return nil, attendance.ErrInvalidDateRange
	}

	var records []attendance.Record
	err := e.withEmployeeLock(ctx, employeeID, func() error {
		if _, _, err := e.closeStale(ctx, employeeID, e.cfg.Now(), e.cfg.Cutoff); err != nil {
			return err
		}
		var err error
		records, err = e.repo.ListByEmployeeAndRange(ctx, employeeID, start, end)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		return nil
	})
	return records, err
}

// PeriodOvertimeHours implements attendance.TimeEngine.
func (e *TimeEngineImpl) PeriodOvertimeHours(ctx context.Context, employeeID string, start, end time.Time, dailyThreshold decimal.Decimal) (decimal.Decimal, error) {
	records, err := e.periodRecords(ctx, employeeID, start, end)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, rec := range records {
		if !rec.IsClosed() {
			continue
		}
		excess := e.deriveHours(rec).Sub(dailyThreshold)
		if excess.IsPositive() {
			total = total.Add(excess)
		}
	}
	return total.Round(2), nil
}

// PeriodSummary implements attendance.TimeEngine.
func (e *TimeEngineImpl) PeriodSummary(ctx context.Context, employeeID string, start, end time.Time) (attendance.PeriodSummary, error) {
	records, err := e.periodRecords(ctx, employeeID, start, end)
	if err != nil {
		return attendance.PeriodSummary{}, err
	}

	present := make(map[string]struct{})
	late := make(map[string]struct{})
	worked := make(map[string]struct{})
	total := decimal.Zero

	for _, rec := range records {
		day := rec.Date.Format("2006-01-02")
		switch rec.Status {
		case attendance.StatusPresent:
			present[day] = struct{}{}
		case attendance.StatusLate:
			late[day] = struct{}{}
		}
		if rec.IsClosed() {
			worked[day] = struct{}{}
			total = total.Add(e.deriveHours(rec))
		}
	}

	return attendance.PeriodSummary{
		EmployeeID:  employeeID,
		StartDate:   civilDate(start).Format("2006-01-02"),
		EndDate:     civilDate(end).Format("2006-01-02"),
		TotalHours:  total.Round(2),
		DaysPresent: len(present),
		DaysLate:    len(late),
		DaysWorked:  len(worked),
	}, nil
}
