package mailer

import (
	"bytes"
	"context"
	"errors"
	texttemplate "text/template"
)

// Mailer renders templated emails and hands them to a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	config   Config
}

// New creates a new Mailer with the given sender and renderer.
func New(sender Sender, renderer *Renderer, cfg Config) *Mailer {
	return &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
	}
}

// ComposeParams describes a templated email. Recipients are added by the caller.
type ComposeParams struct {
	Template string // template filename, e.g. "daily_menu.md"
	Data     any
	Subject  string // overrides the template subject
	Layout   string // overrides the default layout
	Tags     Tags
}

// Compose renders a template into an Email without recipients.
// Subject resolution: params.Subject > template metadata > config fallback.
// The chosen subject is itself executed as a template against Data.
func (m *Mailer) Compose(params ComposeParams) (*Email, error) {
	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}

	result, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	subject := params.Subject
	if subject == "" {
		if s, ok := result.Metadata["Subject"].(string); ok {
			subject = s
		} else {
			subject = m.config.FallbackSubject
		}
	}

	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return nil, errors.Join(ErrRenderFailed, err)
	}

	return &Email{
		Tags:    params.Tags,
		Subject: subject,
		HTML:    result.HTML,
		Text:    result.Text,
		From:    m.config.From(),
		ReplyTo: m.config.ReplyTo,
	}, nil
}

// Send validates email and delivers it. It implements Sender.
func (m *Mailer) Send(ctx context.Context, email *Email) error {
	if email.Recipients() == 0 {
		return ErrNoRecipient
	}
	if email.Subject == "" {
		return ErrNoSubject
	}
	if email.HTML == "" {
		return ErrNoContent
	}
	if email.From == "" {
		email.From = m.config.From()
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

// From returns the configured sender address.
func (m *Mailer) From() string {
	return m.config.From()
}

func executeSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
