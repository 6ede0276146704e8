package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer delivers a formatted message and returns a provider message id.
// Failures are reported to the caller and never retried here; the
// verification flow decides how a failed delivery surfaces.
type Mailer interface {
	Send(ctx context.Context, to, subject, plain, html string) (string, error)
}

// SendGridMailer sends through the SendGrid v3 API.
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	sandbox  bool
}

// NewSendGridMailer constructs a SendGridMailer. With sandbox enabled
// SendGrid validates the request but does not deliver, which is what the
// dev environment runs with.
func NewSendGridMailer(apiKey, fromName, fromAddr string, sandbox bool) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
		sandbox:  sandbox,
	}
}

// Send delivers one message and returns SendGrid's X-Message-Id, falling
// back to a locally generated id when the header is absent.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, plain, html string) (string, error) {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), plain, html)
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return uuid.New().String(), nil
}

// LogMailer writes messages to the server log instead of delivering them.
// Used when no SendGrid API key is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, plain, _ string) (string, error) {
	id := uuid.New().String()
	log.Printf("mailer: would send to=%s subject=%q id=%s body=%q", to, subject, id, plain)
	return id, nil
}

func verificationPlainBody(code string) string {
	return fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", code)
}

func verificationHTMLBody(code string) string {
	return fmt.Sprintf(`<p>Your verification code is:</p><p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p><p>It expires in 10 minutes. If you did not request this code, you can ignore this email.</p>`, code)
}
