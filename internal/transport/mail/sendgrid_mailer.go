package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers codes through the SendGrid API. Preferred over SMTP
// when an API key is configured.
type SendGridMailer struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGridMailer(apiKey, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (m *SendGridMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Doğrulama kodunuz: %s\n\nKod 30 dakika boyunca geçerlidir.", code)
	return m.send(ctx, email, "Hesabınızı Doğrulayın", body)
}

func (m *SendGridMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Şifre sıfırlama kodunuz: %s\n\nKod 15 dakika boyunca geçerlidir. Bu isteği siz yapmadıysanız bu e-postayı yok sayın.", code)
	return m.send(ctx, email, "Şifre Sıfırlama Kodu", body)
}

func (m *SendGridMailer) send(ctx context.Context, email, subject, body string) error {
	if m == nil || m.client == nil {
		return errors.New("sendgrid mailer not configured")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	from := sgmail.NewEmail(m.fromName, m.fromEmail)
	to := sgmail.NewEmail("", email)
	message := sgmail.NewSingleEmail(from, subject, to, body, "")

	resp, err := m.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
