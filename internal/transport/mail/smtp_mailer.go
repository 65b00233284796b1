package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers verification and password reset codes over plain SMTP.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     strings.TrimSpace(host),
		port:     strings.TrimSpace(port),
		username: username,
		password: password,
		from:     strings.TrimSpace(from),
	}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	subject := "Hesabınızı Doğrulayın"
	body := fmt.Sprintf("Doğrulama kodunuz: %s\n\nKod 30 dakika boyunca geçerlidir.", code)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	subject := "Şifre Sıfırlama Kodu"
	body := fmt.Sprintf("Şifre sıfırlama kodunuz: %s\n\nKod 15 dakika boyunca geçerlidir. Bu isteği siz yapmadıysanız bu e-postayı yok sayın.", code)
	return m.send(ctx, email, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, email, subject, body string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", email))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{email}, []byte(message.String()))
}
