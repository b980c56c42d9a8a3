package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"

	"autocheckout.service/internal/core"
	"autocheckout.service/internal/core/model"
	"autocheckout.service/internal/ports/messaging"
	"autocheckout.service/internal/ports/repository"
)

// NotifyProcessor handles checkout-completed events and emails the employee
// a notice. Delivery is idempotent per journal row: an already-notified
// closure is skipped.
type NotifyProcessor struct {
	notices   core.NoticeService
	repo      repository.Repository
	recipient string
}

// NewProcessor sets up a processor for the notify queue.
func NewProcessor(notices core.NoticeService, repo repository.Repository, recipient string) *NotifyProcessor {
	return &NotifyProcessor{
		notices:   notices,
		repo:      repo,
		recipient: recipient,
	}
}

// Process is the main entry point for handling a message from the notify
// queue. It sends the notice and tells the worker to retry on failure.
func (p *NotifyProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.CheckoutCompletedEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal checkout event")
		return false, 0, err // Do not retry on malformed message
	}

	entry, err := p.repo.GetEntry(ctx, event.JournalID)
	if err != nil {
		// If the journal row is not readable yet, retry after a short delay.
		return true, 10, fmt.Errorf("failed to get journal entry for notification: %w", err)
	}

	if entry.NotifyStatus == model.StatusNotifyCompleted {
		log.Ctx(ctx).Info().Int64("journal_id", entry.ID).Msg("Notice already sent. Skipping.")
		return false, 0, nil
	}

	if err := p.notices.SendCheckoutNotice(ctx, p.recipient, *entry); err != nil {
		newCount := entry.NotifyRetryCount + 1
		p.repo.UpdateNotifyStatus(ctx, entry.ID, model.StatusNotifyPending, newCount)

		delay := calculateBackoff(newCount)
		return true, delay, err
	}

	err = p.repo.UpdateNotifyStatus(ctx, entry.ID, model.StatusNotifyCompleted, 0)
	return false, 0, err
}

// calculateBackoff determines how long to wait before retrying a failed
// notification. The delay grows exponentially with each retry.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 { // Cap at 1 hour
		return 3600
	}
	return backoff
}
