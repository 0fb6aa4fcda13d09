package notify

import (
	"context"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"

	"github.com/ballotbox/voting-api/internal/core/ports"
)

const resetSubject = "Password Reset"

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender mails reset links through an SMTP relay.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, n ports.ResetNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(resetMessage(s.cfg.From, n)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

func resetMessage(from string, n ports.ResetNotification) *gomail.Message {
	link := html.EscapeString(n.ResetURL)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", resetSubject)
	m.SetBody("text/plain", "Reset your password: "+n.ResetURL+"\n\nThe link expires at "+n.ExpiresAt.UTC().Format("15:04 MST")+".")
	m.AddAlternative("text/html", `<p><a href="`+link+`">`+link+`</a></p>`)
	return m
}
