package notification

import (
	"os"
	"strconv"
	"sync"

	"gopkg.in/gomail.v2"
)

// Mailer is the outbound email transport. We create this abstraction so that
// we could inject different Mailer implementation into the dispatcher for the
// ease of testing and debugging.
type Mailer interface {
	Send(email Email) error
}

// SMTPMailer delivers through the SMTP relay configured by env.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer() *SMTPMailer {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(os.Getenv("SMTP_HOST"), port, os.Getenv("SMTP_USER"), os.Getenv("SMTP_PASS")),
		from:   os.Getenv("MAIL_FROM"),
	}
}

func (m *SMTPMailer) Send(email Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.Recipients...)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Body)
	return m.dialer.DialAndSend(msg)
}

// RecorderMailer captures sent emails instead of delivering them. Test only.
type RecorderMailer struct {
	mu   sync.Mutex
	sent []Email
}

func (m *RecorderMailer) Send(email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

func (m *RecorderMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Email, len(m.sent))
	copy(out, m.sent)
	return out
}
