package alerting

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/rs/zerolog/log"

	"github.com/villu-ctrl/keri-ais-monitor/pkg/ais"
	"github.com/villu-ctrl/keri-ais-monitor/pkg/config"
)

// Notifier dispatches a breach alert and reports whether the dispatch
// succeeded. An error leaves the caller's cooldown state untouched.
type Notifier interface {
	Notify(ctx context.Context, breach ais.VesselObservation) error
}

// Mailer sends breach alerts over SMTP with STARTTLS.
type Mailer struct {
	cfg config.EmailConfig
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Notify sends one breach alert email. A missing password counts as a failed
// send so the breach can re-trigger once email is configured.
func (m *Mailer) Notify(ctx context.Context, breach ais.VesselObservation) error {
	if m.cfg.Password == "" {
		return fmt.Errorf("email not configured: AIS_EMAIL_PASSWORD is empty")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, m.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: m.cfg.SMTPHost}); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}

	auth := smtp.PlainAuth("", m.cfg.Sender, m.cfg.Password, m.cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}

	if err := client.Mail(m.cfg.Sender); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(m.cfg.Recipient); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}
	if _, err := writer.Write(m.compose(breach)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("QUIT failed: %w", err)
	}

	log.Info().Int("mmsi", breach.MMSI).Str("name", breach.Name).Msg("Alert email sent")
	return nil
}

func (m *Mailer) compose(breach ais.VesselObservation) []byte {
	subject := fmt.Sprintf("ALERT: %s entered restricted area", breach.Name)

	body := fmt.Sprintf(`VESSEL BREACH ALERT

Vessel: %s
MMSI: %d
Position: %.6f, %.6f
Speed: %.1f knots
Course: %.1f degrees

MarineTraffic: https://www.marinetraffic.com/en/ais/details/ships/mmsi:%d
VesselFinder: https://www.vesselfinder.com/vessels?mmsi=%d

---
Automated AIS Monitor
`,
		breach.Name, breach.MMSI,
		breach.Latitude, breach.Longitude,
		breach.Sog, breach.Cog,
		breach.MMSI, breach.MMSI,
	)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.Sender, m.cfg.Recipient, subject, body)

	return []byte(msg)
}
