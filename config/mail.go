package config

import (
	"os"

	"gopkg.in/gomail.v2"
)

// Mailer wraps the SMTP relay. A nil Mailer means mail is not configured;
// senders treat that as a skipped (not failed) side effect.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailerFromEnv builds a Mailer from SMTP_HOST/SMTP_PORT/SMTP_USER/SMTP_PASS.
// Returns nil when SMTP_HOST is unset.
func NewMailerFromEnv() *Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := intFromEnv("SMTP_PORT", 587)
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")

	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}

	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (m *Mailer) Send(to string, subject string, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}
