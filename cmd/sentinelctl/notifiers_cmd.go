package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sentinel-metrics/sentinel/internal/alert"
	"github.com/sentinel-metrics/sentinel/internal/notify"
)

// newNotifiersCmd implements `notifiers test`: send a synthetic alert event
// through a configured channel so an operator can confirm webhook URLs,
// Slack/Discord hooks, or SMTP credentials before wiring them into the
// worker (§4.13).
func newNotifiersCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifiers",
		Short: "Exercise a configured notification channel",
	}

	var kind, url, smtpHost, smtpFrom, smtpTo string
	var smtpPort int

	test := &cobra.Command{
		Use:   "test",
		Short: "Send a synthetic alert event through one notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := buildNotifier(kind, url, smtpHost, smtpPort, smtpFrom, smtpTo)
			if err != nil {
				return err
			}

			event := alert.Event{
				ID:          "test-event",
				Fingerprint: "test-fingerprint",
				RuleName:    "sentinelctl-test-rule",
				AgentID:     "agent-test",
				MetricName:  "cpu.usage",
				Severity:    "info",
				Status:      alert.EventFiring,
				Value:       99.9,
				Threshold:   80.0,
				FiredAtMs:   time.Now().UnixMilli(),
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := notifier.Send(ctx, event); err != nil {
				return fmt.Errorf("sentinelctl: notifier test failed: %w", err)
			}
			fmt.Fprintf(cmdOut, "sent test event via %s\n", notifier.Name())
			return nil
		},
	}
	test.Flags().StringVar(&kind, "type", "webhook", "notifier type: webhook|slack|discord|smtp")
	test.Flags().StringVar(&url, "url", "", "webhook/slack/discord URL")
	test.Flags().StringVar(&smtpHost, "smtp-host", "", "SMTP host")
	test.Flags().IntVar(&smtpPort, "smtp-port", 587, "SMTP port")
	test.Flags().StringVar(&smtpFrom, "smtp-from", "", "SMTP from address")
	test.Flags().StringVar(&smtpTo, "smtp-to", "", "SMTP recipient address")
	cmd.AddCommand(test)

	return cmd
}

func buildNotifier(kind, url, smtpHost string, smtpPort int, smtpFrom, smtpTo string) (notify.Notifier, error) {
	switch kind {
	case "webhook":
		if url == "" {
			return nil, fmt.Errorf("sentinelctl: --url is required for webhook notifier")
		}
		return notify.NewWebhookNotifier("webhook", url, nil), nil
	case "slack":
		if url == "" {
			return nil, fmt.Errorf("sentinelctl: --url is required for slack notifier")
		}
		return notify.NewSlackNotifier(url), nil
	case "discord":
		if url == "" {
			return nil, fmt.Errorf("sentinelctl: --url is required for discord notifier")
		}
		return notify.NewDiscordNotifier(url), nil
	case "smtp":
		if smtpHost == "" || smtpFrom == "" || smtpTo == "" {
			return nil, fmt.Errorf("sentinelctl: --smtp-host, --smtp-from and --smtp-to are required for smtp notifier")
		}
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host: smtpHost,
			Port: smtpPort,
			From: smtpFrom,
			To:   []string{smtpTo},
		}), nil
	default:
		return nil, fmt.Errorf("sentinelctl: unknown notifier type %q", kind)
	}
}
