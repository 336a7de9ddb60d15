package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"tunedrop/model"
)

// Mailer delivers one rendered message and returns a provider message id.
type Mailer interface {
	Name() string
	Send(ctx context.Context, msg *Message) (string, error)
}

// SendGridMailer is the primary transactional provider.
type SendGridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridMailer creates the primary mailer. Returns nil if no API key is
// configured so the dispatcher can skip straight to the fallback.
func NewSendGridMailer(apiKey, from, fromName string) *SendGridMailer {
	if apiKey == "" {
		return nil
	}
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (m *SendGridMailer) Name() string {
	return model.EmailMethodSendGrid
}

func (m *SendGridMailer) Send(ctx context.Context, msg *Message) (string, error) {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		"", // plain text part intentionally empty
		msg.HTML,
	)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return "", fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}

	messageID := resp.Headers["X-Message-Id"]
	if len(messageID) > 0 {
		return messageID[0], nil
	}
	return "", nil
}

// SMTPMailer is the fallback relay.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

// NewSMTPMailer creates the fallback mailer. Returns nil when credentials
// are absent.
func NewSMTPMailer(host, port, user, password, from string) *SMTPMailer {
	if host == "" || user == "" || password == "" {
		return nil
	}
	return &SMTPMailer{host: host, port: port, user: user, password: password, from: from}
}

func (m *SMTPMailer) Name() string {
	return model.EmailMethodSMTP
}

func (m *SMTPMailer) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)

	payload := []byte("Subject: " + msg.Subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		msg.HTML + "\r\n")

	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{msg.To}, payload); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}
	// net/smtp does not report a provider message id.
	return "", nil
}

// ErrNoMailer is returned when no provider is configured at all.
var ErrNoMailer = errors.New("no email provider configured")
