package messaging

import (
	"time"

	"autocheckout.service/internal/core/model"
)

// CheckoutCompletedEvent is the JSON payload published after a checkout has
// been recorded in the attendance system. The notify worker consumes it.
type CheckoutCompletedEvent struct {
	JournalID    int64                 `json:"journalId"`
	EmployeeID   string                `json:"employeeId"`
	Date         string                `json:"date"`
	CheckOutTime string                `json:"checkOutTime"`
	Trigger      model.CheckoutTrigger `json:"trigger"`
	OccurredAt   time.Time             `json:"occurredAt"`
}
