package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikkim/captains-log/config"
	"github.com/ikkim/captains-log/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Message is an outbound HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers messages. The password reset flow depends on this
// interface so tests can record what would have been sent.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through an SMTP relay with gomail.
type SMTPSender struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("send email: empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		logger.Error("Failed to send email", err, map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("Email sent", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}

// LogSender is used when SMTP is not configured: the message is written to
// the log instead of being delivered.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logger.Info("[DEV MODE] Email not sent, SMTP not configured", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.HTMLBody,
	})
	return nil
}

// NewSender picks the SMTP sender when the relay is configured.
func NewSender(cfg config.MailConfig) Sender {
	if cfg.Configured() {
		return NewSMTPSender(cfg)
	}
	logger.Warn("SMTP not configured, emails will only be logged", nil)
	return LogSender{}
}
