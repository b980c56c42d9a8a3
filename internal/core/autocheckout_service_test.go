package core

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/gateway"
	"autocheckout.service/internal/ports/messaging"
)

type fakeJournal struct {
	entries []model.JournalEntry
	nextID  int64
	err     error
	updates []struct {
		id     int64
		status model.NotifyStatus
		retry  int
	}
}

func (j *fakeJournal) RecordCheckout(_ context.Context, entry model.JournalEntry) (int64, error) {
	if j.err != nil {
		return 0, j.err
	}
	j.nextID++
	entry.ID = j.nextID
	j.entries = append(j.entries, entry)
	return entry.ID, nil
}

func (j *fakeJournal) GetEntry(_ context.Context, id int64) (*model.JournalEntry, error) {
	for _, e := range j.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, errors.New("entry not found")
}

func (j *fakeJournal) UpdateNotifyStatus(_ context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	j.updates = append(j.updates, struct {
		id     int64
		status model.NotifyStatus
		retry  int
	}{id, status, retryCount})
	return nil
}

func (j *fakeJournal) ListForDate(context.Context, string, string) ([]model.JournalEntry, error) {
	return nil, nil
}

type fakeProducer struct {
	events []messaging.CheckoutCompletedEvent
	err    error
}

func (p *fakeProducer) PublishCheckout(_ context.Context, ev messaging.CheckoutCompletedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type serviceFixture struct {
	svc       *AutoCheckoutService
	gw        *fakeGateway
	journal   *fakeJournal
	producer  *fakeProducer
	completed []checkoutCall
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		gw:       &fakeGateway{},
		journal:  &fakeJournal{},
		producer: &fakeProducer{},
	}
	f.svc = NewAutoCheckoutService(f.gw, f.journal, f.producer, "emp-42", "Office", func(date model.LocalDate, tod string) {
		f.completed = append(f.completed, checkoutCall{date: date, timeOfD: tod})
	})
	return f
}

func TestPerformCheckout_Success(t *testing.T) {
	f := newServiceFixture()
	date := model.LocalDate{Year: 2026, Month: 1, Day: 20}

	err := f.svc.PerformCheckout(context.Background(), date, "18:30:00", model.TriggerCutoff)
	require.NoError(t, err)

	require.Len(t, f.gw.checkOutReqs, 1)
	req := f.gw.checkOutReqs[0]
	assert.Equal(t, "2026-01-20", req.Date)
	assert.Equal(t, "18:30:00", req.CheckOutTime)
	assert.Equal(t, "Office", req.Location)
	assert.True(t, req.IsAutoCheckout)

	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, "emp-42", f.journal.entries[0].EmployeeID)
	assert.Equal(t, model.TriggerCutoff, f.journal.entries[0].Trigger)

	require.Len(t, f.producer.events, 1)
	assert.Equal(t, f.journal.entries[0].ID, f.producer.events[0].JournalID)
	assert.Equal(t, "2026-01-20", f.producer.events[0].Date)

	require.Len(t, f.completed, 1)
	assert.Equal(t, date, f.completed[0].date)
}

func TestPerformCheckout_ManualIsNotFlaggedAuto(t *testing.T) {
	f := newServiceFixture()

	err := f.svc.PerformCheckout(context.Background(), model.LocalDate{Year: 2026, Month: 1, Day: 20}, "17:05:00", model.TriggerManual)
	require.NoError(t, err)

	require.Len(t, f.gw.checkOutReqs, 1)
	assert.False(t, f.gw.checkOutReqs[0].IsAutoCheckout)
}

func TestPerformCheckout_GatewayFailure(t *testing.T) {
	f := newServiceFixture()
	f.gw.checkOutErr = assert.AnError

	err := f.svc.PerformCheckout(context.Background(), model.LocalDate{Year: 2026, Month: 1, Day: 20}, "18:30:00", model.TriggerCutoff)
	require.Error(t, err)

	// Nothing downstream fires for a checkout that never landed.
	assert.Empty(t, f.journal.entries)
	assert.Empty(t, f.producer.events)
	assert.Empty(t, f.completed)
}

func TestPerformCheckout_JournalFailureDoesNotFailCheckout(t *testing.T) {
	f := newServiceFixture()
	f.journal.err = assert.AnError

	err := f.svc.PerformCheckout(context.Background(), model.LocalDate{Year: 2026, Month: 1, Day: 20}, "18:30:00", model.TriggerCutoff)
	require.NoError(t, err)

	// The attendance record is closed; the audit trail miss is log-only.
	assert.Empty(t, f.producer.events)
	assert.Len(t, f.completed, 1)
}

func TestPerformCheckout_PublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newServiceFixture()
	f.producer.err = assert.AnError

	err := f.svc.PerformCheckout(context.Background(), model.LocalDate{Year: 2026, Month: 1, Day: 20}, "18:30:00", model.TriggerCutoff)
	require.NoError(t, err)

	assert.Len(t, f.journal.entries, 1)
	assert.Len(t, f.completed, 1)
}

func TestPerformCheckout_BreakerOpensUnderSustainedFailure(t *testing.T) {
	f := newServiceFixture()
	f.gw.checkOutErr = assert.AnError
	date := model.LocalDate{Year: 2026, Month: 1, Day: 20}

	for i := 0; i < 10; i++ {
		err := f.svc.PerformCheckout(context.Background(), date, "18:30:00", model.TriggerBackfill)
		require.Error(t, err)
	}

	err := f.svc.PerformCheckout(context.Background(), date, "18:30:00", model.TriggerBackfill)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	// The open breaker short-circuits before the HTTP call.
	assert.Len(t, f.gw.checkOutReqs, 10)
}

var _ gateway.AttendanceAPI = (*fakeGateway)(nil)
