package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is a fully rendered email. BCC recipients receive a copy without
// appearing in the headers.
type Message struct {
	To      string
	ReplyTo string
	BCC     string
	Subject string
	HTML    string
}

// Sender delivers transactional mail. Every caller treats a failure as
// log-and-continue: a lost email never rolls back ledger state.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)

	rcpts := []string{msg.To}
	if msg.BCC != "" {
		rcpts = append(rcpts, msg.BCC)
	}

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := s.Host + ":" + s.Port
	if err := smtp.SendMail(addr, auth, s.Username, rcpts, []byte(b.String())); err != nil {
		return fmt.Errorf("mail: send failed: %w", err)
	}
	return nil
}
