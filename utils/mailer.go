// utils/mailer.go
package utils

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/cyphexlabs/cyphex_backend/config"
)

// Mailer sends plain-text email through the configured SMTP relay. It
// satisfies services.Notifier.
type Mailer struct {
	cfg config.SMTPConfig
}

// NewMailer creates a new mailer instance
func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		log.Printf("WARNING: SMTP_HOST not configured; outbound email will fail")
	}
	return &Mailer{cfg: cfg}
}

// Notify sends a single message and reports delivery failure to the caller.
func (m *Mailer) Notify(recipient, subject, body string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Pass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}

// NotifyAsync sends in the background and only logs failure. Used where
// delivery must not affect the triggering operation.
func (m *Mailer) NotifyAsync(recipient, subject, body string) {
	go func() {
		if err := m.Notify(recipient, subject, body); err != nil {
			log.Printf("Failed to send email to %s: %v", recipient, err)
		}
	}()
}
