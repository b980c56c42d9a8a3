package core

import (
	"time"

	"autocheckout.service/internal/core/model"
)

// Status is the pull-based surface exposed to the hosting side. It is
// recomputed from current inputs on every call; the completion callback is
// the only push signal.
type Status struct {
	IsAutoCheckoutEnabled bool       `json:"isAutoCheckoutEnabled"`
	NextAutoCheckoutTime  *time.Time `json:"nextAutoCheckoutTime"`
	WasAutoCheckedOut     bool       `json:"wasAutoCheckedOut"`
	LastCheckoutTime      *time.Time `json:"lastCheckoutTime"`
}

// Snapshot reports the scheduler's current state. NextAutoCheckoutTime is
// nil while auto-checkout is disabled; WasAutoCheckedOut reflects whether
// the daily latch is set for today.
func (s *Scheduler) Snapshot() Status {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		IsAutoCheckoutEnabled: s.enabled,
		WasAutoCheckedOut:     !s.triggeredDate.IsZero() && s.triggeredDate == model.DateOf(now, s.loc),
		LastCheckoutTime:      s.lastCheckoutTime,
	}
	if s.enabled {
		next := s.NextTriggerTime(now)
		st.NextAutoCheckoutTime = &next
	}
	return st
}
