// Package notify sends customer emails.
package notify

import (
	"context"
	"fmt"
	"strings"

	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/resilience"
)

type Template string

const (
	TemplateDamageReport  Template = "damage_report"
	TemplateBookingStatus Template = "booking_status"
)

// Message is one templated email. Data holds the template variables.
type Message struct {
	Template Template
	ToEmail  string
	ToName   string
	Data     map[string]any
}

// Notifier delivers messages. Implementations: SendGridNotifier,
// SMTPNotifier and LogNotifier.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Render produces the subject and plain-text body used when no provider
// template is configured.
func Render(msg Message) (subject, body string) {
	get := func(key string) string {
		if v, ok := msg.Data[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", nonEmpty(msg.ToName, "there"))

	switch msg.Template {
	case TemplateDamageReport:
		subject = fmt.Sprintf("Damage reported for %s", get("itemName"))
		fmt.Fprintf(&b, "A damage report was filed for %s", get("itemName"))
		if id := get("bookingId"); id != "" {
			fmt.Fprintf(&b, " from booking %s", id)
		}
		fmt.Fprintf(&b, ".\n\nSeverity: %s\n", get("severity"))
		if d := get("description"); d != "" {
			fmt.Fprintf(&b, "Details: %s\n", d)
		}
		fmt.Fprintf(&b, "Estimated repair cost: %s\n", get("estimatedRepairCost"))
		fmt.Fprintf(&b, "Report reference: %s\n", get("reportId"))
	case TemplateBookingStatus:
		subject = fmt.Sprintf("Your booking %s is %s", get("bookingId"), get("status"))
		fmt.Fprintf(&b, "Your booking %s is now %s.\n", get("bookingId"), get("status"))
		if period := get("period"); period != "" {
			fmt.Fprintf(&b, "Rental period: %s\n", period)
		}
	default:
		subject = string(msg.Template)
		for k, v := range msg.Data {
			fmt.Fprintf(&b, "%s: %v\n", k, v)
		}
	}
	b.WriteString("\nBest regards,\nThe GearRent Team")
	return subject, b.String()
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// LogNotifier only logs messages. Used when no email provider is set up.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, msg Message) error {
	subject, _ := Render(msg)
	logger.InfoContext(ctx, "Email not sent, no provider configured", "to", msg.ToEmail, "template", msg.Template, "subject", subject)
	return nil
}

type breakerNotifier struct {
	next    Notifier
	breaker *resilience.Breaker
}

// WithBreaker guards n with a circuit breaker.
func WithBreaker(n Notifier, b *resilience.Breaker) Notifier {
	return &breakerNotifier{next: n, breaker: b}
}

func (n *breakerNotifier) Send(ctx context.Context, msg Message) error {
	return n.breaker.Execute(func() error {
		return n.next.Send(ctx, msg)
	})
}
