// Package mail dispatches transactional email (invoices, quotes) over SMTP.
package mail

import (
	"bytes"
	"io"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"

	"github.com/simplifaq/simplifaq/internal/config"
)

// Sender sends an email with an optional PDF attachment.
type Sender interface {
	Send(to, subject, body string, attachment []byte, filename string) error
}

// New returns an SMTP sender when the config has a host, otherwise a no-op
// sender that only logs. Keeps development setups working without SMTP.
func New(cfg config.Config) Sender {
	if cfg.SMTPHost == "" {
		return &logSender{}
	}
	return &smtpSender{cfg: cfg}
}

type smtpSender struct{ cfg config.Config }

func (s *smtpSender) Send(to, subject, body string, attachment []byte, filename string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.MailFrom)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if len(attachment) > 0 {
		m.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(attachment))
			return err
		}))
	}
	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	return d.DialAndSend(m)
}

type logSender struct{}

func (l *logSender) Send(to, subject, _ string, attachment []byte, filename string) error {
	log.Info().Str("to", to).Str("subject", subject).
		Int("attachment_bytes", len(attachment)).Str("filename", filename).
		Msg("smtp not configured, mail not sent")
	return nil
}
