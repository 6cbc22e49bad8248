package payroll

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/shopspring/decimal"
)

// ===== PAYSLIPS =====

type fakePayslipRepository struct {
	mu       sync.Mutex
	seq      int
	payslips map[string]payroll.Payslip
	creates  int
	updates  int

	// raceOnCreate makes the next Create store the row and report a conflict,
	// as if a concurrent writer had won
	raceOnCreate bool
}

func newFakePayslipRepository() *fakePayslipRepository {
	return &fakePayslipRepository{payslips: make(map[string]payroll.Payslip)}
}

func payslipKey(employeeID, periodID string) string {
	return periodID + "|" + employeeID
}

func (f *fakePayslipRepository) FindByEmployeeAndPeriod(ctx context.Context, employeeID, periodID string) (payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payslips[payslipKey(employeeID, periodID)]
	if !ok {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	return p, nil
}

func (f *fakePayslipRepository) Create(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := payslipKey(p.EmployeeID, p.PeriodID)
	if _, ok := f.payslips[key]; ok {
		return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
	}
	f.seq++
	p.ID = fmt.Sprintf("slip-%03d", f.seq)
	f.payslips[key] = p
	if f.raceOnCreate {
		f.raceOnCreate = false
		return payroll.Payslip{}, payroll.ErrPayslipAlreadyExists
	}
	f.creates++
	return p, nil
}

func (f *fakePayslipRepository) Update(ctx context.Context, p payroll.Payslip) (payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := payslipKey(p.EmployeeID, p.PeriodID)
	existing, ok := f.payslips[key]
	if !ok || existing.ID != p.ID {
		return payroll.Payslip{}, payroll.ErrPayslipNotFound
	}
	f.payslips[key] = p
	f.updates++
	return p, nil
}

func (f *fakePayslipRepository) ListByPeriod(ctx context.Context, periodID string) ([]payroll.Payslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Payslip
	for _, p := range f.payslips {
		if p.PeriodID == periodID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (f *fakePayslipRepository) SumByPeriod(ctx context.Context, periodID string) (payroll.Totals, error) {
	slips, _ := f.ListByPeriod(ctx, periodID)
	totals := payroll.Totals{TotalGross: decimal.Zero, TotalNet: decimal.Zero}
	for _, p := range slips {
		totals.TotalGross = totals.TotalGross.Add(p.Breakdown.GrossSalary)
		totals.TotalNet = totals.TotalNet.Add(p.Breakdown.NetSalary)
		totals.EmployeeCount++
	}
	return totals, nil
}

// ===== BATCHES =====

type fakeBatchRepository struct {
	mu      sync.Mutex
	batches map[string]payroll.PayrollBatch
	history []payroll.BatchStatus
}

func newFakeBatchRepository() *fakeBatchRepository {
	return &fakeBatchRepository{batches: make(map[string]payroll.PayrollBatch)}
}

func (f *fakeBatchRepository) Create(ctx context.Context, b payroll.PayrollBatch) (payroll.PayrollBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.batches[b.ID]; ok {
		return payroll.PayrollBatch{}, payroll.ErrBatchAlreadyExists
	}
	f.batches[b.ID] = b
	return b, nil
}

func (f *fakeBatchRepository) GetByID(ctx context.Context, id string) (payroll.PayrollBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return payroll.PayrollBatch{}, payroll.ErrBatchNotFound
	}
	return b, nil
}

func (f *fakeBatchRepository) UpdateStatus(ctx context.Context, id string, change payroll.StatusChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return payroll.ErrBatchNotFound
	}
	b.Status = change.Status
	b.LastError = change.LastError
	b.FailureCount = change.FailureCount
	if change.ProcessedAt != nil {
		b.ProcessedAt = change.ProcessedAt
	}
	f.batches[id] = b
	f.history = append(f.history, change.Status)
	return nil
}

func (f *fakeBatchRepository) UpdateTotals(ctx context.Context, id string, totals payroll.Totals) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return payroll.ErrBatchNotFound
	}
	b.TotalGross = totals.TotalGross
	b.TotalNet = totals.TotalNet
	b.EmployeeCount = totals.EmployeeCount
	f.batches[id] = b
	return nil
}

// ===== EMPLOYEES =====

type fakeDirectory struct {
	salaries map[string]decimal.Decimal
	active   []string

	// onSalary runs before each salary lookup
	onSalary func(employeeID string)
}

func (f *fakeDirectory) GetBasicSalary(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	if f.onSalary != nil {
		f.onSalary(employeeID)
	}
	s, ok := f.salaries[employeeID]
	if !ok {
		return decimal.Zero, employee.ErrEmployeeNotFound
	}
	return s, nil
}

func (f *fakeDirectory) Exists(ctx context.Context, employeeID string) (bool, error) {
	_, ok := f.salaries[employeeID]
	return ok, nil
}

func (f *fakeDirectory) ListActiveIDs(ctx context.Context) ([]string, error) {
	return f.active, nil
}

// ===== TAX CONFIGURATIONS =====

type fakeTaxConfigRepository struct {
	mu     sync.Mutex
	active *tax.Configuration
	err    error
}

func (f *fakeTaxConfigRepository) Create(ctx context.Context, cfg tax.Configuration) (tax.Configuration, error) {
	return cfg, nil
}

func (f *fakeTaxConfigRepository) GetByID(ctx context.Context, id string) (tax.Configuration, error) {
	return f.GetActive(ctx, tax.Jurisdiction{})
}

func (f *fakeTaxConfigRepository) GetActive(ctx context.Context, jurisdiction tax.Jurisdiction) (tax.Configuration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tax.Configuration{}, f.err
	}
	if f.active == nil {
		return tax.Configuration{}, tax.ErrNoActiveConfiguration
	}
	return *f.active, nil
}

func (f *fakeTaxConfigRepository) Activate(ctx context.Context, id string) (tax.Configuration, error) {
	return f.GetActive(ctx, tax.Jurisdiction{})
}

func (f *fakeTaxConfigRepository) ListByJurisdiction(ctx context.Context, jurisdiction tax.Jurisdiction) ([]tax.Configuration, error) {
	return nil, nil
}

// ===== OVERTIME / ADJUSTMENTS / NOTIFIER =====

type fakeOvertime struct {
	hours map[string]decimal.Decimal
	calls func(employeeID string)
}

func (f *fakeOvertime) PeriodOvertimeHours(ctx context.Context, employeeID string, start, end time.Time, threshold decimal.Decimal) (decimal.Decimal, error) {
	if f.calls != nil {
		f.calls(employeeID)
	}
	if h, ok := f.hours[employeeID]; ok {
		return h, nil
	}
	return decimal.Zero, nil
}

type fakeAdjustments struct {
	byEmployee map[string]payroll.Adjustments
}

func (f *fakeAdjustments) PeriodAdjustments(ctx context.Context, employeeID string, start, end time.Time) (payroll.Adjustments, error) {
	if a, ok := f.byEmployee[employeeID]; ok {
		return a, nil
	}
	return payroll.Adjustments{Bonuses: decimal.Zero, OtherDeductions: decimal.Zero}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches []payroll.PayrollBatch
	err     error
}

func (f *fakeNotifier) BatchCompleted(ctx context.Context, batch payroll.PayrollBatch, result payroll.BatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return f.err
}
