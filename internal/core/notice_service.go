package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"autocheckout.service/internal/core/model"
)

// NoticeService sends the employee a notice that a checkout was recorded on
// their behalf.
type NoticeService interface {
	SendCheckoutNotice(ctx context.Context, to string, entry model.JournalEntry) error
}

// SESNoticeService delivers checkout notices via AWS SES.
type SESNoticeService struct {
	client *ses.Client
	sender string
}

func NewSESNoticeService(client *ses.Client, sender string) *SESNoticeService {
	return &SESNoticeService{client: client, sender: sender}
}

// SendCheckoutNotice emails one journaled closure. Backfilled closures get a
// different wording since their checkout time was reconstructed, not observed.
func (s *SESNoticeService) SendCheckoutNotice(ctx context.Context, to string, entry model.JournalEntry) error {
	tracer := otel.Tracer("ses-notice-service")
	ctx, span := tracer.Start(ctx, "send_notice", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(attribute.String("app.employee_id", entry.EmployeeID))

	var body string
	switch entry.Trigger {
	case model.TriggerBackfill:
		body = fmt.Sprintf("Hello,\n\nAn open shift from %s was closed automatically with checkout time %s. If this does not match your actual hours, please contact your manager.",
			entry.Date, entry.CheckOutTime)
	case model.TriggerManual:
		body = fmt.Sprintf("Hello,\n\nYour checkout on %s at %s has been recorded.", entry.Date, entry.CheckOutTime)
	default:
		body = fmt.Sprintf("Hello,\n\nYou were automatically checked out on %s at %s.", entry.Date, entry.CheckOutTime)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Attendance Checkout Notice"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
