package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum
type Status string

const (
	StatusPresent   Status = "present"
	StatusLate      Status = "late"
	StatusAbsent    Status = "absent"
	StatusCompleted Status = "completed"
)

// Record is one shift of one employee on one calendar date.
// ClockIn and ClockOut are local times of day ("15:04" or "15:04:05").
type Record struct {
	ID           string
	EmployeeID   string
	Date         time.Time
	ClockIn      *string
	ClockOut     *string
	BreakMinutes int
	TotalHours   decimal.Decimal
	Status       Status
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOpen reports whether the shift has a clock-in without a clock-out.
func (r Record) IsOpen() bool {
	return r.ClockIn != nil && r.ClockOut == nil
}

// IsClosed reports whether both clock times are set.
func (r Record) IsClosed() bool {
	return r.ClockIn != nil && r.ClockOut != nil
}

// AppendNote adds a line to the free-text notes.
func (r *Record) AppendNote(note string) {
	if r.Notes == "" {
		r.Notes = note
		return
	}
	r.Notes = r.Notes + "\n" + note
}

// Hours is the result of a shift duration computation. Degraded is set when
// the inputs could not be parsed and Value fell back to zero.
type Hours struct {
	Value    decimal.Decimal
	Degraded bool
	Reason   string
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts "15:04" and "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, ErrInvalidTimeOfDay
}

// TimeOfDayOf returns the wall-clock part of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60 + t.Second
}

// Before reports whether t is strictly earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.seconds() < u.seconds()
}

// On combines t with the calendar date of d in loc.
func (t TimeOfDay) On(d time.Time, loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, loc)
}

func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format("15:04:05")
}

// PeriodSummary aggregates an employee's attendance over a date range.
type PeriodSummary struct {
	EmployeeID  string          `json:"employee_id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	DaysPresent int             `json:"days_present"`
	DaysLate    int             `json:"days_late"`
	DaysWorked  int             `json:"days_worked"`
}

// DayStatus is what an employee sees for the current day.
type DayStatus struct {
	EmployeeID string
	Date       time.Time
	Open       *Record
	Records    []Record
}
