package repository

import (
	"context"

	"autocheckout.service/internal/core/model"
)

// Repository contract for the checkout journal.
type Repository interface {
	RecordCheckout(ctx context.Context, entry model.JournalEntry) (int64, error)
	GetEntry(ctx context.Context, id int64) (*model.JournalEntry, error)
	UpdateNotifyStatus(ctx context.Context, id int64, status model.NotifyStatus, retryCount int) error
	ListForDate(ctx context.Context, employeeID, date string) ([]model.JournalEntry, error)
}
