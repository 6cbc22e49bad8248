package payroll

import "errors"

var (
	ErrPayslipNotFound         = errors.New("payslip not found")
	ErrPayslipAlreadyExists    = errors.New("payslip already exists for this employee and period")
	ErrBatchNotFound           = errors.New("payroll batch not found")
	ErrBatchAlreadyExists      = errors.New("payroll batch already exists for this period")
	ErrBatchAlreadyRunning     = errors.New("payroll batch is already running")
	ErrBatchNotRunning         = errors.New("payroll batch is not running")
	ErrInvalidStatusTransition = errors.New("invalid payroll batch status transition")
	ErrInvalidPeriod           = errors.New("invalid payroll period")
)
