package model

import (
	"fmt"
	"strings"
	"time"
)

// AttendanceStatus mirrors the status values the attendance API reports.
// The scheduler never branches on it; it is carried for display only.
type AttendanceStatus string

const (
	StatusPresent        AttendanceStatus = "present"
	StatusLate           AttendanceStatus = "late"
	StatusAbsent         AttendanceStatus = "absent"
	StatusLeave          AttendanceStatus = "leave"
	StatusHalfDay        AttendanceStatus = "half_day"
	StatusHoliday        AttendanceStatus = "holiday"
	StatusEarlyDeparture AttendanceStatus = "early-departure"
)

// CheckoutTrigger records which path closed an attendance record.
type CheckoutTrigger string

const (
	TriggerCutoff    CheckoutTrigger = "CUTOFF"    // evening cutoff fired by the scheduler
	TriggerBackfill  CheckoutTrigger = "BACKFILL"  // reconciler closed a stale open record
	TriggerImmediate CheckoutTrigger = "IMMEDIATE" // post-check-in immediate close (optional mode)
	TriggerManual    CheckoutTrigger = "MANUAL"    // user-initiated checkout proxied through the agent
)

// NotifyStatus defines the state of the employee notification for a
// journaled checkout.
type NotifyStatus string

const (
	StatusNotifyPending    NotifyStatus = "PENDING"
	StatusNotifyProcessing NotifyStatus = "PROCESSING"
	StatusNotifyCompleted  NotifyStatus = "COMPLETED"
	StatusNotifyFailed     NotifyStatus = "FAILED"
)

// LocalDate is a calendar date in the consumer's timezone. "Is this today's
// record" decisions compare LocalDate values, never raw instants or UTC date
// strings, because the server's dates can render differently across zones.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf derives the calendar date of an instant in the given location.
func DateOf(t time.Time, loc *time.Location) LocalDate {
	y, m, d := t.In(loc).Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD date. The attendance API sometimes returns
// full timestamps for the date column; anything past a 'T' is dropped.
func ParseDate(s string) (LocalDate, error) {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid attendance date %q: %w", s, err)
	}
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}, nil
}

// String formats the date as YYYY-MM-DD, the wire format of the API.
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is unset.
func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

// At returns the instant of the given time-of-day on this date in loc.
func (d LocalDate) At(hour, min, sec int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, min, sec, 0, loc)
}

// AddDays returns the date shifted by the given number of calendar days.
func (d LocalDate) AddDays(days int) LocalDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	y, m, dd := t.Date()
	return LocalDate{Year: y, Month: m, Day: dd}
}

// MonthBounds returns the first and last day of this date's month.
func (d LocalDate) MonthBounds() (LocalDate, LocalDate) {
	first := LocalDate{Year: d.Year, Month: d.Month, Day: 1}
	firstNext := first.AddDays(31)
	firstNext = LocalDate{Year: firstNext.Year, Month: firstNext.Month, Day: 1}
	return first, firstNext.AddDays(-1)
}

// AttendanceRecord is one attendance row per (user, calendar date) as served
// by the attendance API. Times are HH:MM:SS time-of-day strings; a nil
// CheckOutTime means the record is still open.
type AttendanceRecord struct {
	ID             int64            `json:"id"`
	UserID         int64            `json:"user_id"`
	Date           string           `json:"date"`
	CheckInTime    *string          `json:"check_in_time"`
	CheckOutTime   *string          `json:"check_out_time"`
	Status         AttendanceStatus `json:"status"`
	IsAutoCheckout bool             `json:"is_auto_checkout"`
}

// Open reports whether the record represents a shift that was clocked in and
// never clocked out.
func (r AttendanceRecord) Open() bool {
	return r.CheckInTime != nil && *r.CheckInTime != "" &&
		(r.CheckOutTime == nil || *r.CheckOutTime == "")
}

// LocalDate parses the record's date column.
func (r AttendanceRecord) LocalDate() (LocalDate, error) {
	return ParseDate(r.Date)
}

// JournalEntry is one checkout closure recorded in the agent's journal. The
// journal is an audit and notification record, not scheduler state; the
// scheduler's daily latch stays in memory.
type JournalEntry struct {
	ID               int64
	EmployeeID       string
	Date             string // YYYY-MM-DD
	CheckOutTime     string // HH:MM:SS
	Trigger          CheckoutTrigger
	NotifyStatus     NotifyStatus
	NotifyRetryCount int
}
