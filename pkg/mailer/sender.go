package mailer

import "context"

// Sender delivers a prepared Email. Implementations exist for Resend and SMTP.
type Sender interface {
	// Send delivers one message to all of its recipients.
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}
