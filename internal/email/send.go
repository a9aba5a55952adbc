package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender is the outbound email boundary: fire-and-forget from the pipeline's
// perspective, failures surface as a generic send error.
type Sender interface {
	Send(subject, bodyText, bodyHTML string) error
}

// SMTPSender delivers mail over authenticated SMTP.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	To       string
}

// Send builds a multipart/alternative message (text + html) and submits it.
func (s *SMTPSender) Send(subject, bodyText, bodyHTML string) error {
	if s.Host == "" || s.From == "" || s.To == "" {
		return fmt.Errorf("smtp sender is not configured: host, from and to are required")
	}

	const boundary = "aibrief-boundary"

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.FromName, s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", s.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(bodyText)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(bodyHTML)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)

	if err := smtp.SendMail(addr, auth, s.From, []string{s.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
