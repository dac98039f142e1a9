package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// MailSender delivers notifications over SMTP as HTML mail.
type MailSender struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       []string
}

// NewMailSender creates a MailSender authenticating with PLAIN auth against
// host:port. STARTTLS is negotiated when the server offers it.
func NewMailSender(host string, port int, user, password, from string, to []string) *MailSender {
	return &MailSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
	}
}

// Send delivers one HTML message to all configured recipients.
func (m *MailSender) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mail: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("From: " + m.from + "\r\n")
	sb.WriteString("To: " + strings.Join(m.to, ", ") + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.user, m.password, m.host)

	if err := smtp.SendMail(addr, auth, m.from, m.to, []byte(sb.String())); err != nil {
		return fmt.Errorf("mail: send via %s: %w", addr, err)
	}
	return nil
}

// Name returns the sender identifier.
func (m *MailSender) Name() string {
	return "mail"
}
