package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"gearrent-backend/internal/logger"
)

type SendGridConfig struct {
	APIKey    string `yaml:"api_key" envconfig:"API_KEY"`
	FromEmail string `yaml:"from_email" envconfig:"FROM_EMAIL"`
	FromName  string `yaml:"from_name" envconfig:"FROM_NAME"`
	// Host overrides the API host, mainly for tests.
	Host string `yaml:"host" envconfig:"HOST"`
	// Templates maps a template name to a SendGrid dynamic template id.
	// Templates without an id are sent as plain text.
	Templates map[string]string `yaml:"templates" envconfig:"TEMPLATES"`
}

type SendGridNotifier struct {
	cfg SendGridConfig
}

func NewSendGridNotifier(cfg SendGridConfig) *SendGridNotifier {
	if cfg.Host == "" {
		cfg.Host = "https://api.sendgrid.com"
	}
	return &SendGridNotifier{cfg: cfg}
}

func (s *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)

	var m *mail.SGMailV3
	if templateID := s.cfg.Templates[string(msg.Template)]; templateID != "" {
		m = mail.NewV3Mail()
		m.SetFrom(from)
		m.SetTemplateID(templateID)

		p := mail.NewPersonalization()
		p.AddTos(to)
		for key, value := range msg.Data {
			p.SetDynamicTemplateData(key, value)
		}
		m.AddPersonalizations(p)
	} else {
		subject, body := Render(msg)
		m = mail.NewSingleEmail(from, subject, to, body, "")
	}

	request := sendgrid.GetRequest(s.cfg.APIKey, "/v3/mail/send", s.cfg.Host)
	request.Method = http.MethodPost
	request.Body = mail.GetRequestBody(m)

	logger.ExternalServiceCall("sendgrid", "send", "template", msg.Template, "to", msg.ToEmail)
	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "template", msg.Template)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Template, err)
	}
	return nil
}
