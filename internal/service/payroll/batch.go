package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/lock"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// BatchConfig holds batch processing policy.
type BatchConfig struct {
	Workers  int
	Overtime payroll.OvertimePolicy
	Now      func() time.Time
}

type BatchProcessorImpl struct {
	payslips    payroll.PayslipRepository
	batches     payroll.BatchRepository
	employees   employee.Directory
	taxConfigs  tax.ConfigurationRepository
	overtime    payroll.OvertimeSource
	adjustments payroll.AdjustmentSource
	notifier    payroll.BatchCompletedNotifier
	locker      lock.Locker
	calculator  payroll.Calculator
	cfg         BatchConfig
}

// NewBatchProcessor wires the batch processor. adjustments and notifier may be nil.
func NewBatchProcessor(
	payslips payroll.PayslipRepository,
	batches payroll.BatchRepository,
	employees employee.Directory,
	taxConfigs tax.ConfigurationRepository,
	overtime payroll.OvertimeSource,
	adjustments payroll.AdjustmentSource,
	notifier payroll.BatchCompletedNotifier,
	locker lock.Locker,
	calculator payroll.Calculator,
	cfg BatchConfig,
) payroll.BatchProcessor {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &BatchProcessorImpl{
		payslips:    payslips,
		batches:     batches,
		employees:   employees,
		taxConfigs:  taxConfigs,
		overtime:    overtime,
		adjustments: adjustments,
		notifier:    notifier,
		locker:      locker,
		calculator:  calculator,
		cfg:         cfg,
	}
}

// ========== BATCH ==========

func (p *BatchProcessorImpl) CreateBatch(ctx context.Context, req payroll.CreateBatchRequest) (payroll.PayrollBatch, error) {
	start, end, err := req.Validate()
	if err != nil {
		return payroll.PayrollBatch{}, err
	}

	batch, err := p.batches.Create(ctx, payroll.PayrollBatch{
		ID:           req.PeriodID,
		Jurisdiction: tax.Jurisdiction{Country: req.Country, State: req.State},
		StartDate:    start,
		EndDate:      end,
		Status:       payroll.BatchStatusDraft,
		TotalGross:   decimal.Zero,
		TotalNet:     decimal.Zero,
	})
	if err != nil {
		if errors.Is(err, payroll.ErrBatchAlreadyExists) {
			return payroll.PayrollBatch{}, err
		}
		return payroll.PayrollBatch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}
	return batch, nil
}

func (p *BatchProcessorImpl) GetBatch(ctx context.Context, periodID string) (payroll.PayrollBatch, error) {
	return p.batches.GetByID(ctx, periodID)
}

func (p *BatchProcessorImpl) ListPayslips(ctx context.Context, periodID string) ([]payroll.Payslip, error) {
	if _, err := p.batches.GetByID(ctx, periodID); err != nil {
		return nil, err
	}
	return p.payslips.ListByPeriod(ctx, periodID)
}

func (p *BatchProcessorImpl) transition(ctx context.Context, batch *payroll.PayrollBatch, change payroll.StatusChange) error {
	if !batch.Status.CanTransitionTo(change.Status) {
		return fmt.Errorf("%w: %s to %s", payroll.ErrInvalidStatusTransition, batch.Status, change.Status)
	}
	if err := p.batches.UpdateStatus(ctx, batch.ID, change); err != nil {
		return fmt.Errorf("failed to set payroll batch status %s: %w", change.Status, err)
	}
	batch.Status = change.Status
	return nil
}

// Run implements payroll.BatchProcessor. A cancelled run is left in
// processing and can be run again.
func (p *BatchProcessorImpl) Run(ctx context.Context, periodID string, employeeIDs []string) (payroll.BatchResult, error) {
	batch, err := p.batches.GetByID(ctx, periodID)
	if err != nil {
		return payroll.BatchResult{}, err
	}

	if err := p.transition(ctx, &batch, payroll.StatusChange{Status: payroll.BatchStatusProcessing}); err != nil {
		return payroll.BatchResult{}, err
	}
	slog.Info("Payroll: batch started", "period_id", periodID, "jurisdiction", batch.Jurisdiction.String())

	result, err := p.run(ctx, &batch, employeeIDs)
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		slog.Warn("Payroll: batch cancelled, left in processing",
			"period_id", periodID,
			"processed", result.ProcessedCount,
			"failed", len(result.Failures),
		)
		return result, err
	}

	msg := err.Error()
	change := payroll.StatusChange{
		Status:       payroll.BatchStatusFailed,
		LastError:    &msg,
		FailureCount: len(result.Failures),
	}
	if uerr := p.transition(context.WithoutCancel(ctx), &batch, change); uerr != nil {
		slog.Error("Failed to mark payroll batch as failed", "period_id", periodID, "error", uerr)
	}
	slog.Error("Payroll: batch failed", "period_id", periodID, "error", err)
	return result, err
}

func (p *BatchProcessorImpl) run(ctx context.Context, batch *payroll.PayrollBatch, employeeIDs []string) (payroll.BatchResult, error) {
	active, err := p.taxConfigs.GetActive(ctx, batch.Jurisdiction)
	if err != nil {
		return payroll.BatchResult{}, fmt.Errorf("failed to load active tax configuration: %w", err)
	}
	// later edits to the configuration must not reach this run
	snapshot := active.Snapshot()
	if err := snapshot.Validate(); err != nil {
		return payroll.BatchResult{}, fmt.Errorf("active tax configuration %s v%d is invalid: %w", snapshot.ID, snapshot.Version, err)
	}

	if len(employeeIDs) == 0 {
		employeeIDs, err = p.employees.ListActiveIDs(ctx)
		if err != nil {
			return payroll.BatchResult{}, fmt.Errorf("failed to list active employees: %w", err)
		}
	}

	result, err := p.ProcessBatch(ctx, *batch, employeeIDs, snapshot)
	if err != nil {
		return result, err
	}

	totals, err := p.UpdateTotals(ctx, batch.ID)
	if err != nil {
		return result, err
	}

	processedAt := p.cfg.Now()
	err = p.transition(ctx, batch, payroll.StatusChange{
		Status:       payroll.BatchStatusCompleted,
		ProcessedAt:  &processedAt,
		FailureCount: len(result.Failures),
	})
	if err != nil {
		return result, err
	}

	slog.Info("Payroll: batch completed",
		"period_id", batch.ID,
		"processed", result.ProcessedCount,
		"failed", len(result.Failures),
		"total_gross", totals.TotalGross.String(),
		"total_net", totals.TotalNet.String(),
	)

	p.notifyCompleted(ctx, batch.ID, result)
	return result, nil
}

func (p *BatchProcessorImpl) notifyCompleted(ctx context.Context, periodID string, result payroll.BatchResult) {
	if p.notifier == nil {
		return
	}
	batch, err := p.batches.GetByID(ctx, periodID)
	if err != nil {
		slog.Warn("Failed to reload payroll batch for notification", "period_id", periodID, "error", err)
		return
	}
	if err := p.notifier.BatchCompleted(ctx, batch, result); err != nil {
		slog.Warn("Failed to publish payroll batch completion", "period_id", periodID, "error", err)
	}
}

// ProcessBatch implements payroll.BatchProcessor. Employees run on a bounded
// pool; a failing employee is recorded and skipped. Cancellation is checked
// before each employee starts.
func (p *BatchProcessorImpl) ProcessBatch(ctx context.Context, batch payroll.PayrollBatch, employeeIDs []string, cfg tax.Configuration) (payroll.BatchResult, error) {
	ids := uniqueIDs(employeeIDs)
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}

	var (
		mu     sync.Mutex
		result = payroll.BatchResult{Failures: []payroll.Failure{}}
		eg     errgroup.Group
	)
	eg.SetLimit(p.cfg.Workers)

	for _, employeeID := range ids {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			err := p.processEmployee(ctx, batch, employeeID, cfg)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				result.ProcessedCount++
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil
			}
			slog.Warn("Payroll: employee skipped", "period_id", batch.ID, "employee_id", employeeID, "error", err)
			result.Failures = append(result.Failures, payroll.Failure{EmployeeID: employeeID, Reason: err.Error()})
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return position[result.Failures[i].EmployeeID] < position[result.Failures[j].EmployeeID]
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// processEmployee computes and stores one payslip. The (period, employee)
// lock scopes the read-modify-write to this employee's row.
func (p *BatchProcessorImpl) processEmployee(ctx context.Context, batch payroll.PayrollBatch, employeeID string, cfg tax.Configuration) error {
	unlock, err := p.locker.Lock(ctx, lock.PayslipKey(batch.ID, employeeID))
	if err != nil {
		return fmt.Errorf("failed to lock payslip: %w", err)
	}
	defer unlock()

	exists, err := p.employees.Exists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to check employee: %w", err)
	}
	if !exists {
		return employee.ErrEmployeeNotFound
	}

	basic, err := p.employees.GetBasicSalary(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get basic salary: %w", err)
	}

	input, err := p.calculationInput(ctx, batch, employeeID, basic)
	if err != nil {
		return err
	}
	breakdown := p.calculator.Calculate(input, cfg)

	return p.savePayslip(ctx, payroll.Payslip{
		EmployeeID:              employeeID,
		PeriodID:                batch.ID,
		TaxConfigurationID:      cfg.ID,
		TaxConfigurationVersion: cfg.Version,
		Breakdown:               breakdown,
	})
}

func (p *BatchProcessorImpl) calculationInput(ctx context.Context, batch payroll.PayrollBatch, employeeID string, basic decimal.Decimal) (payroll.CalculationInput, error) {
	policy := p.cfg.Overtime

	overtimeHours := decimal.Zero
	if p.overtime != nil {
		hours, err := p.overtime.PeriodOvertimeHours(ctx, employeeID, batch.StartDate, batch.EndDate, policy.DailyThresholdHours)
		if err != nil {
			return payroll.CalculationInput{}, fmt.Errorf("failed to get overtime hours: %w", err)
		}
		overtimeHours = hours
	}

	adjustments := payroll.Adjustments{Bonuses: decimal.Zero, OtherDeductions: decimal.Zero}
	if p.adjustments != nil {
		a, err := p.adjustments.PeriodAdjustments(ctx, employeeID, batch.StartDate, batch.EndDate)
		if err != nil {
			return payroll.CalculationInput{}, fmt.Errorf("failed to get payroll adjustments: %w", err)
		}
		adjustments = a
	}

	return payroll.CalculationInput{
		BasicSalary:        basic,
		OvertimeHours:      overtimeHours,
		HourlyOvertimeRate: p.calculator.OvertimeRate(basic, policy),
		Bonuses:            adjustments.Bonuses,
		OtherDeductions:    adjustments.OtherDeductions,
	}, nil
}

// savePayslip updates the existing payslip of the (employee, period) or
// creates it. A create that loses a race falls back to update.
func (p *BatchProcessorImpl) savePayslip(ctx context.Context, slip payroll.Payslip) error {
	existing, err := p.payslips.FindByEmployeeAndPeriod(ctx, slip.EmployeeID, slip.PeriodID)
	switch {
	case err == nil:
		return p.updatePayslip(ctx, existing, slip)
	case !errors.Is(err, payroll.ErrPayslipNotFound):
		return fmt.Errorf("failed to find existing payslip: %w", err)
	}

	if _, err := p.payslips.Create(ctx, slip); err != nil {
		if !errors.Is(err, payroll.ErrPayslipAlreadyExists) {
			return fmt.Errorf("failed to create payslip: %w", err)
		}
		existing, err := p.payslips.FindByEmployeeAndPeriod(ctx, slip.EmployeeID, slip.PeriodID)
		if err != nil {
			return fmt.Errorf("failed to find existing payslip: %w", err)
		}
		return p.updatePayslip(ctx, existing, slip)
	}
	return nil
}

func (p *BatchProcessorImpl) updatePayslip(ctx context.Context, existing, computed payroll.Payslip) error {
	existing.Breakdown = computed.Breakdown
	existing.TaxConfigurationID = computed.TaxConfigurationID
	existing.TaxConfigurationVersion = computed.TaxConfigurationVersion
	if _, err := p.payslips.Update(ctx, existing); err != nil {
		return fmt.Errorf("failed to update payslip: %w", err)
	}
	return nil
}

// UpdateTotals implements payroll.BatchProcessor. Serialized per period.
func (p *BatchProcessorImpl) UpdateTotals(ctx context.Context, periodID string) (payroll.Totals, error) {
	unlock, err := p.locker.Lock(ctx, lock.PayrollTotalsKey(periodID))
	if err != nil {
		return payroll.Totals{}, fmt.Errorf("failed to lock payroll totals: %w", err)
	}
	defer unlock()

	totals, err := p.payslips.SumByPeriod(ctx, periodID)
	if err != nil {
		return payroll.Totals{}, fmt.Errorf("failed to sum payslips: %w", err)
	}
	if err := p.batches.UpdateTotals(ctx, periodID, totals); err != nil {
		return payroll.Totals{}, fmt.Errorf("failed to update payroll totals: %w", err)
	}
	return totals, nil
}
