package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGrid(apiKey, fromEmail, fromName string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, msg.PlainText, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending to %s: %w", msg.ToEmail, err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sending to %s: sendgrid status %d: %s", msg.ToEmail, response.StatusCode, response.Body)
	}
	return nil
}
