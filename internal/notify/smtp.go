package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"gearrent-backend/internal/logger"
)

type SMTPConfig struct {
	Host     string `yaml:"host" envconfig:"HOST"`
	Port     int    `yaml:"port" envconfig:"PORT"`
	Username string `yaml:"username" envconfig:"USERNAME"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	From     string `yaml:"from" envconfig:"FROM"`
}

// SMTPNotifier sends plain-text mail through an SMTP relay.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(*gomail.Message) error
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPNotifier{cfg: cfg, send: func(m *gomail.Message) error { return d.DialAndSend(m) }}
}

func (s *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body := Render(msg)

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetAddressHeader("To", msg.ToEmail, msg.ToName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	logger.ExternalServiceCall("smtp", "send", "template", msg.Template, "to", msg.ToEmail)
	err := s.send(m)
	logger.ExternalServiceResult("smtp", "send", err, "template", msg.Template)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}
