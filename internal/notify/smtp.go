package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/sentinel-metrics/sentinel/internal/alert"
)

// SMTPConfig configures the plain-text email notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// SMTPNotifier sends a plain-text email per event (§4.13). No third-party
// mail library is used here: the example corpus's own email integration
// (see DESIGN.md) uses net/smtp directly for the same plain-text case.
type SMTPNotifier struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

// NewSMTPNotifier builds a notifier against cfg, using PLAIN auth when
// credentials are supplied.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg}
	if cfg.Username != "" {
		n.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return n
}

// Name implements Notifier.
func (n *SMTPNotifier) Name() string { return "smtp" }

// Send implements Notifier.
func (n *SMTPNotifier) Send(_ context.Context, event alert.Event) error {
	subject := fmt.Sprintf("[%s] %s: %s on %s", event.Severity, event.Status, event.RuleName, event.AgentID)
	body := fmt.Sprintf("rule=%s agent=%s metric=%s value=%.2f threshold=%.2f fingerprint=%s",
		event.RuleName, event.AgentID, event.MetricName, event.Value, event.Threshold, event.Fingerprint)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.cfg.From, joinAddrs(n.cfg.To), subject, body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := smtp.SendMail(addr, n.auth, n.cfg.From, n.cfg.To, []byte(msg)); err != nil {
		return fmt.Errorf("notify: send mail: %w", err)
	}
	return nil
}

func joinAddrs(addrs []string) string {
	out := ""
	for i, a := range addrs {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
