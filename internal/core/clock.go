package core

import (
	"fmt"
	"time"

	"autocheckout.service/internal/core/model"
)

// Daily cutoff after which an open shift is auto-closed. Fixed by product,
// not runtime-configurable.
const (
	CutoffHour   = 18
	CutoffMinute = 30
)

// Clock supplies wall-clock time so the scheduler and reconciler can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// CutoffFor returns the 18:30:00 instant of the given date in loc.
func CutoffFor(d model.LocalDate, loc *time.Location) time.Time {
	return d.At(CutoffHour, CutoffMinute, 0, loc)
}

// CutoffTimeOfDay is the HH:MM:SS form of the cutoff, used to backfill
// checkout times for records from previous days.
func CutoffTimeOfDay() string {
	return fmt.Sprintf("%02d:%02d:00", CutoffHour, CutoffMinute)
}

// TimeOfDay formats an instant as the HH:MM:SS wire format in loc.
func TimeOfDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04:05")
}
