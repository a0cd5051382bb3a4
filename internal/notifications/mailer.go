// Package notifications delivers the plain-text emails the directory sends: the
// token-embedded registration invitation and the post-registration confirmation.
//
// Delivery goes through the Mailer interface. SMTPMailer talks to the configured relay;
// LogMailer is used when notifications are disabled so local setups can read the
// registration link from the log instead.
package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/talenttree/talenttree/internal/config"
)

// Message is one outbound email.
type Message struct {
	Subject string
	From    string
	To      []string
	Body    string
}

// bytes renders the message with RFC 5322 headers and CRLF line endings.
func (m Message) bytes() []byte {
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		m.From, strings.Join(m.To, ", "), m.Subject,
	)
	body := strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n")
	return []byte(headers + body + "\r\n")
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTPMailer when notifications are enabled and a LogMailer otherwise.
func New(cfg config.NotificationsConfig) Mailer {
	if !cfg.Enabled || cfg.SMTP.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg.SMTP)
}

// sendFunc matches smtp.SendMail and is swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	cfg      config.SMTPConfig
	sendMail sendFunc
	sendTLS  func(addr, host string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail, sendTLS: sendMailTLS}
}

// Send delivers msg. An empty From falls back to the configured sender. The relay call
// itself is not cancellable; ctx is checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	if msg.From == "" {
		msg.From = m.cfg.From
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var err error
	if m.cfg.UseTLS && m.cfg.Port == 465 {
		err = m.sendTLS(addr, m.cfg.Host, auth, msg.From, msg.To, msg.bytes())
	} else {
		// smtp.SendMail upgrades with STARTTLS when the server offers it.
		err = m.sendMail(addr, auth, msg.From, msg.To, msg.bytes())
	}
	if err != nil {
		return fmt.Errorf("failed to send %q via %s: %w", msg.Subject, addr, err)
	}
	return nil
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a message.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("smtp tls dial: %w", err)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

// LogMailer writes messages to the default logger instead of sending them.
type LogMailer struct{}

// Send logs msg at info level.
func (LogMailer) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent (notifications disabled)",
		"subject", msg.Subject,
		"to", strings.Join(msg.To, ","),
		"body", msg.Body,
	)
	return nil
}
