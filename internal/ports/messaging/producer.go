package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes checkout events to the notify queue.
type Producer struct {
	sender         MessageSender
	notifyQueueURL string
}

func NewProducer(sender MessageSender, notifyQueueURL string) *Producer {
	return &Producer{
		sender:         sender,
		notifyQueueURL: notifyQueueURL,
	}
}

// NewSQSProducer creates a Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, notifyQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, notifyQueueURL)
}

// PublishCheckout sends a checkout-completed event to the notify queue.
func (p *Producer) PublishCheckout(ctx context.Context, event CheckoutCompletedEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Enrich the current span with the employee id for trace search
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("app.employee_id", event.EmployeeID))
	}

	if err := p.sender.SendMessage(ctx, p.notifyQueueURL, b); err != nil {
		return fmt.Errorf("failed to send message to notify queue: %w", err)
	}
	return nil
}
