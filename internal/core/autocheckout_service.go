package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/gateway"
	"autocheckout.service/internal/ports/messaging"
	"autocheckout.service/internal/ports/repository"
)

// CompleteFunc is invoked after every successful checkout so the hosting
// side can refresh its attendance view. Notification only; the service
// retains no state about past invocations.
type CompleteFunc func(date model.LocalDate, checkOutTime string)

// AutoCheckoutService performs single checkout attempts against the
// attendance API. It deduplicates nothing itself beyond what the server's
// idempotent per-(user, date) checkout gives it, and it never retries: a
// failed attempt is covered by the next poll cycle or the reconciler.
type AutoCheckoutService struct {
	gateway    gateway.AttendanceAPI
	journal    repository.Repository
	producer   messaging.CheckoutProducer
	cb         *gobreaker.CircuitBreaker
	employeeID string
	location   string
	onComplete CompleteFunc
}

// NewAutoCheckoutService wires the executor. It sets up a circuit breaker so
// a struggling attendance backend is not hammered by the poll loops.
func NewAutoCheckoutService(
	api gateway.AttendanceAPI,
	journal repository.Repository,
	producer messaging.CheckoutProducer,
	employeeID string,
	location string,
	onComplete CompleteFunc,
) *AutoCheckoutService {
	settings := gobreaker.Settings{
		Name:        "Attendance-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger than 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &AutoCheckoutService{
		gateway:    api,
		journal:    journal,
		producer:   producer,
		cb:         gobreaker.NewCircuitBreaker(settings),
		employeeID: employeeID,
		location:   location,
		onComplete: onComplete,
	}
}

// PerformCheckout issues one checkout for the given local calendar date.
// On success it journals the closure, publishes a checkout-completed event
// and fires the completion callback; journal and publish failures are logged
// but never undo a checkout that already landed.
func (s *AutoCheckoutService) PerformCheckout(ctx context.Context, date model.LocalDate, checkOutTime string, trigger model.CheckoutTrigger) error {
	req := gateway.CheckOutRequest{
		Date:           date.String(),
		CheckOutTime:   checkOutTime,
		Location:       s.location,
		IsAutoCheckout: trigger != model.TriggerManual,
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.gateway.CheckOut(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is OPEN; skipping attendance API call")
		}
		return fmt.Errorf("checkout for %s failed: %w", date, err)
	}

	s.recordAndNotify(ctx, date, checkOutTime, trigger)

	if s.onComplete != nil {
		s.onComplete(date, checkOutTime)
	}
	return nil
}

func (s *AutoCheckoutService) recordAndNotify(ctx context.Context, date model.LocalDate, checkOutTime string, trigger model.CheckoutTrigger) {
	id, err := s.journal.RecordCheckout(ctx, model.JournalEntry{
		EmployeeID:   s.employeeID,
		Date:         date.String(),
		CheckOutTime: checkOutTime,
		Trigger:      trigger,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("date", date.String()).Msg("Failed to journal checkout")
		return
	}

	event := messaging.CheckoutCompletedEvent{
		JournalID:    id,
		EmployeeID:   s.employeeID,
		Date:         date.String(),
		CheckOutTime: checkOutTime,
		Trigger:      trigger,
		OccurredAt:   time.Now(),
	}
	if err := s.producer.PublishCheckout(ctx, event); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("journal_id", id).Msg("Failed to publish checkout event")
	}
}
