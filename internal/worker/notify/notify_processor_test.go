package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/ports/messaging"
)

type fakeNotices struct {
	sent []model.JournalEntry
	to   []string
	err  error
}

func (n *fakeNotices) SendCheckoutNotice(_ context.Context, to string, entry model.JournalEntry) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, entry)
	n.to = append(n.to, to)
	return nil
}

type statusUpdate struct {
	id     int64
	status model.NotifyStatus
	retry  int
}

type fakeRepo struct {
	entry   *model.JournalEntry
	getErr  error
	updates []statusUpdate
}

func (r *fakeRepo) RecordCheckout(context.Context, model.JournalEntry) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *fakeRepo) GetEntry(context.Context, int64) (*model.JournalEntry, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.entry, nil
}

func (r *fakeRepo) UpdateNotifyStatus(_ context.Context, id int64, status model.NotifyStatus, retryCount int) error {
	r.updates = append(r.updates, statusUpdate{id, status, retryCount})
	return nil
}

func (r *fakeRepo) ListForDate(context.Context, string, string) ([]model.JournalEntry, error) {
	return nil, nil
}

func eventMessage(t *testing.T, journalID int64) types.Message {
	t.Helper()
	body, err := json.Marshal(messaging.CheckoutCompletedEvent{
		JournalID:    journalID,
		EmployeeID:   "emp-42",
		Date:         "2026-01-20",
		CheckOutTime: "18:30:00",
		Trigger:      model.TriggerCutoff,
	})
	require.NoError(t, err)
	return types.Message{Body: aws.String(string(body))}
}

func TestProcess_SendsNoticeAndCompletes(t *testing.T) {
	notices := &fakeNotices{}
	repo := &fakeRepo{entry: &model.JournalEntry{
		ID:           7,
		EmployeeID:   "emp-42",
		Date:         "2026-01-20",
		CheckOutTime: "18:30:00",
		Trigger:      model.TriggerCutoff,
		NotifyStatus: model.StatusNotifyPending,
	}}
	p := NewProcessor(notices, repo, "emp@example.com")

	retry, delay, err := p.Process(context.Background(), eventMessage(t, 7))

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Zero(t, delay)
	require.Len(t, notices.sent, 1)
	assert.Equal(t, "emp@example.com", notices.to[0])
	require.Len(t, repo.updates, 1)
	assert.Equal(t, statusUpdate{7, model.StatusNotifyCompleted, 0}, repo.updates[0])
}

func TestProcess_MalformedMessageIsNotRetried(t *testing.T) {
	p := NewProcessor(&fakeNotices{}, &fakeRepo{}, "emp@example.com")

	retry, _, err := p.Process(context.Background(), types.Message{Body: aws.String("{not-json")})

	require.Error(t, err)
	assert.False(t, retry)
}

func TestProcess_EntryNotReadableYetIsRetried(t *testing.T) {
	repo := &fakeRepo{getErr: assert.AnError}
	p := NewProcessor(&fakeNotices{}, repo, "emp@example.com")

	retry, delay, err := p.Process(context.Background(), eventMessage(t, 7))

	require.Error(t, err)
	assert.True(t, retry)
	assert.Equal(t, int32(10), delay)
}

func TestProcess_AlreadyCompletedIsSkipped(t *testing.T) {
	notices := &fakeNotices{}
	repo := &fakeRepo{entry: &model.JournalEntry{ID: 7, NotifyStatus: model.StatusNotifyCompleted}}
	p := NewProcessor(notices, repo, "emp@example.com")

	retry, _, err := p.Process(context.Background(), eventMessage(t, 7))

	require.NoError(t, err)
	assert.False(t, retry)
	assert.Empty(t, notices.sent)
	assert.Empty(t, repo.updates)
}

func TestProcess_SendFailureBacksOff(t *testing.T) {
	notices := &fakeNotices{err: assert.AnError}
	repo := &fakeRepo{entry: &model.JournalEntry{ID: 7, NotifyStatus: model.StatusNotifyPending, NotifyRetryCount: 1}}
	p := NewProcessor(notices, repo, "emp@example.com")

	retry, delay, err := p.Process(context.Background(), eventMessage(t, 7))

	require.Error(t, err)
	assert.True(t, retry)
	assert.Equal(t, int32(40), delay) // 2^2 * 10
	require.Len(t, repo.updates, 1)
	assert.Equal(t, statusUpdate{7, model.StatusNotifyPending, 2}, repo.updates[0])
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, int32(20), calculateBackoff(1))
	assert.Equal(t, int32(40), calculateBackoff(2))
	assert.Equal(t, int32(1280), calculateBackoff(7))
	assert.Equal(t, int32(3600), calculateBackoff(12), "delay is capped at one hour")
}
