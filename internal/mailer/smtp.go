package mailer

import (
	"fmt"
	"time"

	mail "gopkg.in/mail.v2"
)

type SMTPMailer struct {
	dialer    *mail.Dialer
	fromEmail string
	backoff   time.Duration
}

func NewSMTPMailer(host string, port int, username, password, fromEmail string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second
	return &SMTPMailer{dialer: dialer, fromEmail: fromEmail, backoff: time.Second}
}

func (m *SMTPMailer) Send(templateFile, name, email string, data any) error {
	msg, err := Render(templateFile, data)
	if err != nil {
		return err
	}

	message := mail.NewMessage()
	message.SetAddressHeader("From", m.fromEmail, FromName)
	message.SetAddressHeader("To", email, name)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Plain)
	message.AddAlternative("text/html", msg.HTML)

	for i := 0; i < maxRetries; i++ {
		if err = m.dialer.DialAndSend(message); err == nil {
			return nil
		}
		// linear backoff
		time.Sleep(m.backoff * time.Duration(i+1))
	}
	return fmt.Errorf("mailer: failed to send after %d attempts: %w", maxRetries, err)
}
