// Package smtp implements mailer.Sender over an SMTP relay using go-mail.
package smtp

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/mail.v2"

	"github.com/dmitrymomot/menumail/pkg/mailer"
)

// ErrMissingHost is returned by New when Config.Host is empty.
var ErrMissingHost = errors.New("smtp: missing host")

// Dialer sends composed messages. *mail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Sender implements mailer.Sender.
type Sender struct {
	dialer Dialer
}

// New creates a sender that dials the configured relay for every message.
func New(cfg Config) (*Sender, error) {
	if cfg.Host == "" {
		return nil, ErrMissingHost
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}
	if !cfg.SSL {
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}
	return NewWithDialer(d), nil
}

// NewWithDialer wraps an existing dialer.
func NewWithDialer(d Dialer) *Sender {
	return &Sender{dialer: d}
}

// Send implements mailer.Sender. The SMTP session itself is not cancellable;
// ctx is only checked before dialing.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(Message(email)); err != nil {
		return fmt.Errorf("smtp: failed to send email: %w", err)
	}
	return nil
}

// Message converts an Email to a multipart/alternative go-mail message.
func Message(email *mailer.Email) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", email.From)
	if len(email.To) > 0 {
		m.SetHeader("To", email.To...)
	}
	if len(email.CC) > 0 {
		m.SetHeader("Cc", email.CC...)
	}
	if len(email.BCC) > 0 {
		m.SetHeader("Bcc", email.BCC...)
	}
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}
	for k, v := range email.Headers {
		m.SetHeader(k, v)
	}
	m.SetHeader("Subject", email.Subject)

	if email.Text != "" {
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	} else {
		m.SetBody("text/html", email.HTML)
	}
	return m
}
