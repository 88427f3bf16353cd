package mailer

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/johnquangdev/meeting-autopilot/pkg/config"
)

// SMTPSender sends notification mail over SMTP. Email has no externally
// observable state: a successful send is the end of the story for the task.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender from config
func NewSMTPSender(cfg *config.SMTPConfig) *SMTPSender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	// Port 465 is implicit TLS
	dialer.SSL = cfg.Port == 465

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	return &SMTPSender{dialer: dialer, from: from}
}

// Send delivers one HTML email. The context deadline is honored before
// dialing; gomail itself has no context support.
func (s *SMTPSender) Send(ctx context.Context, recipient, subject, body string) error {
	if s.from == "" {
		return fmt.Errorf("mail sender address is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
