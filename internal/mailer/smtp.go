package mailer

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gomail "gopkg.in/mail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	fromEmail string
	dialer    dialer
	backoff   time.Duration
}

var _ Client = (*SMTPMailer)(nil)

func NewSMTPMailer(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	if fromEmail == "" {
		return nil, errors.New("from email is required")
	}
	return &SMTPMailer{
		fromEmail: fromEmail,
		dialer:    gomail.NewDialer(host, port, username, password),
		backoff:   time.Second,
	}, nil
}

// Send renders the template and delivers it, retrying with a growing pause.
// The int mirrors an HTTP status so callers can log it.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	subject, body, err := render(templateFile, data)
	if err != nil {
		return -1, err
	}

	message := gomail.NewMessage()
	message.SetAddressHeader("From", m.fromEmail, FromName)
	message.SetAddressHeader("To", email, username)
	message.SetHeader("Subject", subject)
	message.AddAlternative("text/html", body)

	var retryErr error
	for i := 0; i < maxRetries; i++ {
		retryErr = m.dialer.DialAndSend(message)
		if retryErr == nil {
			return http.StatusOK, nil
		}
		time.Sleep(m.backoff * time.Duration(i+1))
	}
	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, retryErr)
}
