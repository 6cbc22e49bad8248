package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
)

type AttendanceJobs struct {
	engine attendance.TimeEngine
	spec   string
	now    func() time.Time
}

// NewAttendanceJobs schedules the stale-shift sweep on spec.
func NewAttendanceJobs(engine attendance.TimeEngine, spec string) *AttendanceJobs {
	return &AttendanceJobs{
		engine: engine,
		spec:   spec,
		now:    time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) error {
	return scheduler.AddJob("close_stale_open_shifts", j.spec, j.CloseStaleOpenShifts)
}

// CloseStaleOpenShifts closes every open shift left over from an earlier day.
func (j *AttendanceJobs) CloseStaleOpenShifts(ctx context.Context) error {
	slog.Info("Cron: Starting stale open shift sweep")

	closed, err := j.engine.SweepAll(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to sweep stale shifts: %w", err)
	}

	if closed == 0 {
		slog.Info("Cron: No stale open shifts found")
		return nil
	}

	slog.Info("Cron: Stale open shifts closed", "count", closed)
	return nil
}
