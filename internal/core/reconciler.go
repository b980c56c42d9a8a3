package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/gateway"
)

// Reconciler restores the one-open-record invariant: it scans the current
// month for records left open past the cutoff, including ones from previous
// days the scheduler slept through, and closes them.
type Reconciler struct {
	gateway  gateway.AttendanceAPI
	executor Executor
	loc      *time.Location
}

// NewReconciler wires a reconciler over the attendance API and the executor
// used to close records.
func NewReconciler(api gateway.AttendanceAPI, executor Executor, loc *time.Location) *Reconciler {
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{gateway: api, executor: executor, loc: loc}
}

// Reconcile runs one pass. Before today's cutoff it does nothing. A failed
// fetch abandons the whole pass for this tick; a failed closure of one
// record never blocks closing the others.
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time) {
	today := model.DateOf(now, r.loc)
	if now.Before(CutoffFor(today, r.loc)) {
		return
	}

	start, end := today.MonthBounds()
	records, err := r.gateway.GetMyAttendance(ctx, gateway.AttendanceQuery{
		StartDate: start,
		EndDate:   end,
		Limit:     31,
	})
	if err != nil {
		// Background correction: silent to the user, retried next tick.
		log.Ctx(ctx).Warn().Err(err).Msg("Stale-record scan failed; will retry on next poll")
		return
	}

	for _, rec := range records {
		if !rec.Open() {
			continue
		}
		date, err := rec.LocalDate()
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("record_id", rec.ID).Msg("Skipping record with unparseable date")
			continue
		}

		// A record from a previous day gets the deterministic cutoff time;
		// "now" would be misleading on a multi-day-old record.
		checkOutTime := CutoffTimeOfDay()
		if date == today {
			checkOutTime = TimeOfDay(now, r.loc)
		}

		if err := r.executor.PerformCheckout(ctx, date, checkOutTime, model.TriggerBackfill); err != nil {
			log.Ctx(ctx).Error().Err(err).
				Str("date", date.String()).
				Int64("record_id", rec.ID).
				Msg("Failed to close stale record")
			continue
		}
		log.Ctx(ctx).Info().
			Str("date", date.String()).
			Str("check_out_time", checkOutTime).
			Msg("Closed stale attendance record")
	}
}
