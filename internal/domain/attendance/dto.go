package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type PeriodRequest struct {
	EmployeeID string `validate:"required"`
	StartDate  string `validate:"required,datetime=2006-01-02"`
	EndDate    string `validate:"required,datetime=2006-01-02"`
}

// Validate checks the request and returns the parsed range.
func (r PeriodRequest) Validate() (time.Time, time.Time, error) {
	if err := validator.Struct(r); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

type RecordResponse struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	Date         string          `json:"date"`
	ClockIn      *string         `json:"clock_in"`
	ClockOut     *string         `json:"clock_out"`
	BreakMinutes int             `json:"break_minutes"`
	TotalHours   decimal.Decimal `json:"total_hours"`
	Status       Status          `json:"status"`
	Notes        string          `json:"notes,omitempty"`
}

func NewRecordResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		Date:         r.Date.Format("2006-01-02"),
		ClockIn:      r.ClockIn,
		ClockOut:     r.ClockOut,
		BreakMinutes: r.BreakMinutes,
		TotalHours:   r.TotalHours,
		Status:       r.Status,
		Notes:        r.Notes,
	}
}

type OvertimeResponse struct {
	EmployeeID     string          `json:"employee_id"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	ThresholdHours decimal.Decimal `json:"threshold_hours"`
	OvertimeHours  decimal.Decimal `json:"overtime_hours"`
}

type DayStatusResponse struct {
	EmployeeID string           `json:"employee_id"`
	Date       string           `json:"date"`
	ClockedIn  bool             `json:"clocked_in"`
	Open       *RecordResponse  `json:"open,omitempty"`
	Records    []RecordResponse `json:"records"`
}

func NewDayStatusResponse(s DayStatus) DayStatusResponse {
	resp := DayStatusResponse{
		EmployeeID: s.EmployeeID,
		Date:       s.Date.Format("2006-01-02"),
		ClockedIn:  s.Open != nil,
		Records:    make([]RecordResponse, 0, len(s.Records)),
	}
	if s.Open != nil {
		open := NewRecordResponse(*s.Open)
		resp.Open = &open
	}
	for _, r := range s.Records {
		resp.Records = append(resp.Records, NewRecordResponse(r))
	}
	return resp
}
