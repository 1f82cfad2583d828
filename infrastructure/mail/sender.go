package mail

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-agent/core/config"
	"github.com/AzielCF/az-agent/notifications/domain"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers mail through an SMTP relay. gomail bounds the dial at 10 s.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, email domain.Email) error {
	if email.To == "" {
		return fmt.Errorf("email has no recipient")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	if email.Text != "" {
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	} else {
		m.SetBody("text/html", email.HTML)
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", email.To, err)
		}
		logrus.WithField("to", email.To).Debugf("[MAIL] Sent %q", email.Subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping opens and closes an SMTP session; used by the health check.
func (s *SMTPSender) Ping(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		closer, err := s.dialer.Dial()
		if err == nil {
			err = closer.Close()
		}
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender is used when SMTP is disabled: mails are logged, never delivered.
type LogSender struct{}

func (LogSender) Send(_ context.Context, email domain.Email) error {
	logrus.WithFields(logrus.Fields{"to": email.To, "subject": email.Subject}).Info("[MAIL] SMTP disabled, mail not delivered")
	return nil
}

func (LogSender) Ping(context.Context) error { return nil }
