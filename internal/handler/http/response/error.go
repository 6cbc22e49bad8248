package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "Already clocked in")
	case errors.Is(err, attendance.ErrNoOpenShift):
		Conflict(w, "No open shift found for today")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrInvalidDateRange):
		BadRequest(w, "Start date must not be after end date", nil)
	case errors.Is(err, attendance.ErrInvalidTimeOfDay):
		BadRequest(w, "Invalid time of day", nil)
	case errors.Is(err, attendance.ErrStaleShiftOpen):
		Conflict(w, "A previous shift is still open, try again")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeHasNoBaseSalary):
		UnprocessableEntity(w, "Employee has no base salary configured")

	// Tax domain errors
	case errors.Is(err, tax.ErrConfigurationNotFound):
		NotFound(w, "Tax configuration not found")
	case errors.Is(err, tax.ErrNoActiveConfiguration):
		UnprocessableEntity(w, "No active tax configuration for jurisdiction")
	case errors.Is(err, tax.ErrConfigurationVersionExists):
		Conflict(w, "Tax configuration version already exists")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrBatchNotFound):
		NotFound(w, "Payroll batch not found")
	case errors.Is(err, payroll.ErrPayslipNotFound):
		NotFound(w, "Payslip not found")
	case errors.Is(err, payroll.ErrBatchAlreadyExists):
		Conflict(w, "Payroll batch already exists for this period")
	case errors.Is(err, payroll.ErrBatchAlreadyRunning):
		Conflict(w, "Payroll batch is already running")
	case errors.Is(err, payroll.ErrBatchNotRunning):
		Conflict(w, "Payroll batch is not running")
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		Conflict(w, "Invalid payroll batch status transition")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
