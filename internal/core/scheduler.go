package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"autocheckout.service/internal/core/model"
)

const (
	// ImmediateDelay is how long after a check-in the immediate-close mode
	// waits before issuing its checkout.
	ImmediateDelay = 5 * time.Second

	// Baseline poll; a faster poll runs only near the cutoff so trigger
	// latency stays tight without busy-polling all day.
	basePollInterval  = time.Minute
	rapidPollInterval = 10 * time.Second
	rapidWindow       = 5 * time.Minute
)

// latchBeforeConfirm keeps the observed at-most-one-attempt-per-day
// semantics: the daily latch is set before the checkout result is known, so
// a failed automatic attempt is not retried the same day and the reconciler
// covers it later. Flip to false to retry on subsequent polls instead.
const latchBeforeConfirm = true

// Executor performs a single checkout attempt against the attendance API.
type Executor interface {
	PerformCheckout(ctx context.Context, date model.LocalDate, checkOutTime string, trigger model.CheckoutTrigger) error
}

// StaleReconciler closes records left open past their expected close time.
type StaleReconciler interface {
	Reconcile(ctx context.Context, now time.Time)
}

// Scheduler decides when an automatic checkout fires and guarantees at most
// one cutoff trigger per calendar day. Its state is process-local and
// in-memory; the server's open/closed record stays authoritative, so the
// enabled flag is always supplied from outside rather than trusted.
type Scheduler struct {
	clock      Clock
	loc        *time.Location
	executor   Executor
	reconciler StaleReconciler

	// ImmediateCheckout closes a shift a few seconds after check-in instead
	// of waiting for the evening cutoff. Off by default; the evening cutoff
	// is the primary design and the one the reconciler's backfill pairs with.
	ImmediateCheckout bool

	immediateDelay time.Duration

	mu               sync.Mutex
	enabled          bool
	triggeredDate    model.LocalDate // one-shot latch: last date a cutoff checkout was issued
	lastCheckoutTime *time.Time
	immediateTimer   *time.Timer

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler wires a scheduler. reconciler may be nil when reconciliation
// runs elsewhere.
func NewScheduler(clock Clock, loc *time.Location, executor Executor, reconciler StaleReconciler) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		clock:          clock,
		loc:            loc,
		executor:       executor,
		reconciler:     reconciler,
		immediateDelay: ImmediateDelay,
	}
}

// Start launches the polling loops. It evaluates once immediately, then on
// every poll interval until Stop is called or ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runCtx = runCtx
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
}

// Stop releases every timer the scheduler owns and waits for the loop to
// exit. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	if s.immediateTimer != nil {
		s.immediateTimer.Stop()
		s.immediateTimer = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// SetEnabled records whether the user currently holds an open record for
// today. The caller re-derives this from server state; the scheduler never
// guesses. Enabling arms the immediate-close timer when that mode is on.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	was := s.enabled
	s.enabled = enabled
	if !enabled && s.immediateTimer != nil {
		s.immediateTimer.Stop()
		s.immediateTimer = nil
	}
	armImmediate := s.ImmediateCheckout && enabled && !was && s.runCtx != nil
	s.mu.Unlock()

	if armImmediate {
		s.armImmediateCheckout()
	}
}

// Enabled reports the last value the caller supplied.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Evaluate decides whether now is a valid moment to fire the automatic
// checkout. For a given calendar day it invokes the executor at most once,
// no matter how often it is called and independent of network outcome.
func (s *Scheduler) Evaluate(ctx context.Context, now time.Time, isEnabled bool) {
	today := model.DateOf(now, s.loc)

	s.mu.Lock()
	if !isEnabled {
		// New day with no open record: clear the latch so the next shift
		// can arm again.
		if s.triggeredDate != today {
			s.triggeredDate = model.LocalDate{}
		}
		s.mu.Unlock()
		return
	}
	if now.Before(CutoffFor(today, s.loc)) || s.triggeredDate == today {
		s.mu.Unlock()
		return
	}
	if latchBeforeConfirm {
		s.triggeredDate = today
	}
	s.mu.Unlock()

	err := s.executor.PerformCheckout(ctx, today, TimeOfDay(now, s.loc), model.TriggerCutoff)
	if err != nil {
		// Never fatal: the poll loop keeps running and the reconciler will
		// backfill the record if this day stays missed.
		log.Ctx(ctx).Warn().Err(err).
			Str("date", today.String()).
			Msg("Automatic checkout failed; manual checkout recommended")
		return
	}

	s.mu.Lock()
	s.triggeredDate = today
	t := now
	s.lastCheckoutTime = &t
	s.mu.Unlock()
}

// NextTriggerTime returns today's cutoff if it has not yet passed, otherwise
// tomorrow's. Pure; used for display only.
func (s *Scheduler) NextTriggerTime(now time.Time) time.Time {
	cutoff := CutoffFor(model.DateOf(now, s.loc), s.loc)
	if now.After(cutoff) {
		return cutoff.AddDate(0, 0, 1)
	}
	return cutoff
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	// First evaluation happens on start, not a full interval later.
	s.tick(ctx)

	ticker := time.NewTicker(basePollInterval)
	defer ticker.Stop()

	var rapid *time.Ticker
	var rapidC <-chan time.Time
	stopRapid := func() {
		if rapid != nil {
			rapid.Stop()
			rapid = nil
			rapidC = nil
		}
	}
	defer stopRapid()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		case <-rapidC:
			s.tick(ctx)
		}

		if s.inRapidWindow(s.clock.Now()) && s.Enabled() {
			if rapid == nil {
				rapid = time.NewTicker(rapidPollInterval)
				rapidC = rapid.C
			}
		} else {
			stopRapid()
		}
	}
}

// tick runs one poll cycle: scheduler evaluation, then reconciliation. The
// two are independent; both may attempt a checkout for the same day and the
// attendance API resolves that idempotently per (user, date).
func (s *Scheduler) tick(ctx context.Context) {
	now := s.clock.Now()
	s.Evaluate(ctx, now, s.Enabled())
	if s.reconciler != nil {
		s.reconciler.Reconcile(ctx, now)
	}
}

func (s *Scheduler) inRapidWindow(now time.Time) bool {
	cutoff := CutoffFor(model.DateOf(now, s.loc), s.loc)
	diff := now.Sub(cutoff)
	if diff < 0 {
		diff = -diff
	}
	return diff <= rapidWindow
}

// armImmediateCheckout schedules the optional immediate close a short delay
// after check-in. It deliberately does not touch the daily latch: the cutoff
// path stays available if the immediate attempt fails.
func (s *Scheduler) armImmediateCheckout() {
	s.mu.Lock()
	ctx := s.runCtx
	if s.immediateTimer != nil {
		s.immediateTimer.Stop()
	}
	s.immediateTimer = time.AfterFunc(s.immediateDelay, func() {
		if ctx.Err() != nil || !s.Enabled() {
			return
		}
		now := s.clock.Now()
		date := model.DateOf(now, s.loc)
		if err := s.executor.PerformCheckout(ctx, date, TimeOfDay(now, s.loc), model.TriggerImmediate); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Immediate auto-checkout failed")
		}
	})
	s.mu.Unlock()
}
