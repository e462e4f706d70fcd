// Package notifier delivers one rendered message to every opted-in subscriber.
//
// Subscribers are filtered by their opt-in flag and de-duplicated by address,
// ignoring case. When nobody remains, Notify succeeds without dispatching.
// Otherwise a single Send carries the whole recipient set: as BCC with the
// sender as the visible To (the default), or as a plain To list.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/dmitrymomot/menumail/pkg/mailer"
	"github.com/dmitrymomot/menumail/pkg/subscriber"
)

var (
	// ErrNoSender is returned in BCC mode when no sender address is configured.
	ErrNoSender = errors.New("notifier: sender address is required for bcc delivery")

	// ErrDispatch wraps a failed Send.
	ErrDispatch = errors.New("notifier: dispatch failed")
)

// Config controls recipient placement.
type Config struct {
	BCC bool `env:"NOTIFY_BCC" envDefault:"true"`
}

// Message is the rendered content to deliver.
type Message struct {
	Tags    mailer.Tags
	Subject string
	HTML    string
	Text    string
}

// Result summarizes one Notify call.
type Result struct {
	Recipients []string
	Total      int // rows received
	OptedOut   int
	Duplicates int
	Sent       bool
}

// Notifier dispatches messages through a mailer.Sender.
type Notifier struct {
	sender mailer.Sender
	logger *slog.Logger
	from   string
	bcc    bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithBCC switches between BCC delivery and a plain To list.
func WithBCC(enabled bool) Option {
	return func(n *Notifier) { n.bcc = enabled }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// New returns a Notifier sending as from. BCC mode is on by default.
func New(sender mailer.Sender, from string, opts ...Option) *Notifier {
	n := &Notifier{
		sender: sender,
		from:   from,
		bcc:    true,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Recipients returns the opted-in addresses in input order, keeping the first
// spelling of each address.
func Recipients(subs []subscriber.Subscriber) (recipients []string, optedOut, duplicates int) {
	seen := make(map[string]struct{}, len(subs))
	for _, s := range subs {
		if !s.Subscribed {
			optedOut++
			continue
		}
		email := strings.TrimSpace(s.Email)
		if email == "" {
			continue
		}
		key := strings.ToLower(email)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		recipients = append(recipients, email)
	}
	return recipients, optedOut, duplicates
}

// Notify sends msg to the opted-in subscribers with a single Send call.
func (n *Notifier) Notify(ctx context.Context, subs []subscriber.Subscriber, msg Message) (Result, error) {
	recipients, optedOut, duplicates := Recipients(subs)
	res := Result{
		Recipients: recipients,
		Total:      len(subs),
		OptedOut:   optedOut,
		Duplicates: duplicates,
	}

	if len(recipients) == 0 {
		n.logger.InfoContext(ctx, "no subscribed recipients, nothing to send",
			slog.Int("subscribers", res.Total),
			slog.Int("opted_out", optedOut),
		)
		return res, nil
	}

	email := &mailer.Email{
		From:    n.from,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		Tags:    msg.Tags,
	}

	if n.bcc {
		visible, err := bareAddress(n.from)
		if err != nil {
			return res, err
		}
		email.To = []string{visible}
		email.BCC = recipients
	} else {
		email.To = recipients
	}

	if err := n.sender.Send(ctx, email); err != nil {
		n.logger.ErrorContext(ctx, "menu email dispatch failed",
			slog.Int("recipients", len(recipients)),
			slog.Any("error", err),
		)
		return res, errors.Join(ErrDispatch, err)
	}

	res.Sent = true
	n.logger.InfoContext(ctx, "menu email sent",
		slog.Int("recipients", len(recipients)),
		slog.Int("opted_out", optedOut),
		slog.Int("duplicates", duplicates),
		slog.Bool("bcc", n.bcc),
	)
	return res, nil
}

func bareAddress(from string) (string, error) {
	if strings.TrimSpace(from) == "" {
		return "", ErrNoSender
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrNoSender, from, err)
	}
	return addr.Address, nil
}
