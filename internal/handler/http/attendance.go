package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Overtime(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	engine         attendance.TimeEngine
	dailyThreshold decimal.Decimal
	now            func() time.Time
}

func NewAttendanceHandler(engine attendance.TimeEngine, dailyThreshold decimal.Decimal) AttendanceHandler {
	return &attendanceHandlerImpl{
		engine:         engine,
		dailyThreshold: dailyThreshold,
		now:            time.Now,
	}
}

// employeeID prefers the {employeeID} route param used by admin routes and
// falls back to the caller's own employee claim.
func employeeID(r *http.Request) (string, bool) {
	if id := chi.URLParam(r, "employeeID"); id != "" {
		return id, true
	}
	return middleware.EmployeeIDFromContext(r.Context())
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		response.Forbidden(w, "Employee account required")
		return
	}

	record, err := h.engine.ClockIn(r.Context(), id, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", attendance.NewRecordResponse(record))
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		response.Forbidden(w, "Employee account required")
		return
	}

	record, err := h.engine.ClockOut(r.Context(), id, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", attendance.NewRecordResponse(record))
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(r)
	if !ok {
		response.Forbidden(w, "Employee account required")
		return
	}

	status, err := h.engine.CurrentStatus(r.Context(), id, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewDayStatusResponse(status))
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.periodRequest(w, r)
	if !ok {
		return
	}

	start, end, err := req.Validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	summary, err := h.engine.PeriodSummary(r.Context(), req.EmployeeID, start, end)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}

// Overtime implements AttendanceHandler.
func (h *attendanceHandlerImpl) Overtime(w http.ResponseWriter, r *http.Request) {
	req, ok := h.periodRequest(w, r)
	if !ok {
		return
	}

	start, end, err := req.Validate()
	if err != nil {
		response.HandleError(w, err)
		return
	}

	threshold := h.dailyThreshold
	if raw := r.URL.Query().Get("threshold_hours"); raw != "" {
		threshold, err = decimal.NewFromString(raw)
		if err != nil || threshold.IsNegative() {
			response.BadRequest(w, "Invalid threshold_hours", map[string]string{"threshold_hours": "must be a non-negative number"})
			return
		}
	}

	hours, err := h.engine.PeriodOvertimeHours(r.Context(), req.EmployeeID, start, end, threshold)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.OvertimeResponse{
		EmployeeID:     req.EmployeeID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ThresholdHours: threshold,
		OvertimeHours:  hours,
	})
}

func (h *attendanceHandlerImpl) periodRequest(w http.ResponseWriter, r *http.Request) (attendance.PeriodRequest, bool) {
	id, ok := employeeID(r)
	if !ok {
		response.Forbidden(w, "Employee account required")
		return attendance.PeriodRequest{}, false
	}

	query := r.URL.Query()
	return attendance.PeriodRequest{
		EmployeeID: id,
		StartDate:  query.Get("start_date"),
		EndDate:    query.Get("end_date"),
	}, true
}
