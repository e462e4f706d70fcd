package mailer

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of Sender interface.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, email *Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func newTestMailer(sender Sender, cfg Config) *Mailer {
	fs := fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(`<html><body>{{.Content}}</body></html>`)},
		"daily_menu.md": &fstest.MapFile{Data: []byte(`---
Subject: "{{.day_name}}, {{.month}} {{.date}} at {{.venue}}"
---
Lunch at **{{.venue}}**
`)},
		"plain.md":       &fstest.MapFile{Data: []byte(`No subject here`)},
		"bad_subject.md": &fstest.MapFile{Data: []byte("---\nSubject: \"{{.x\"\n---\nbody")},
	}
	return New(sender, NewRenderer(fs), cfg)
}

var menuData = map[string]any{
	"day_name": "Thursday",
	"month":    "March",
	"date":     7,
	"venue":    "Cafe 9",
}

func TestMailer_Compose(t *testing.T) {
	t.Parallel()

	cfg := Config{
		FromEmail:       "menu@example.com",
		FromName:        "Daily Menu",
		ReplyTo:         "help@example.com",
		FallbackSubject: "Today's menu",
		DefaultLayout:   "base.html",
	}

	t.Run("subject from frontmatter", func(t *testing.T) {
		t.Parallel()
		m := newTestMailer(&MockSender{}, cfg)

		email, err := m.Compose(ComposeParams{Template: "daily_menu.md", Data: menuData, Tags: SimpleTags("daily_menu")})
		require.NoError(t, err)
		require.Equal(t, "Thursday, March 7 at Cafe 9", email.Subject)
		require.Equal(t, "Daily Menu <menu@example.com>", email.From)
		require.Equal(t, "help@example.com", email.ReplyTo)
		require.Contains(t, email.HTML, "<strong>Cafe 9</strong>")
		require.Contains(t, email.Text, "Lunch at **Cafe 9**")
		require.Contains(t, email.Tags, "daily_menu")
		require.Zero(t, email.Recipients())
	})

	t.Run("explicit subject wins", func(t *testing.T) {
		t.Parallel()
		m := newTestMailer(&MockSender{}, cfg)

		email, err := m.Compose(ComposeParams{Template: "daily_menu.md", Data: menuData, Subject: "Menu for {{.venue}}"})
		require.NoError(t, err)
		require.Equal(t, "Menu for Cafe 9", email.Subject)
	})

	t.Run("fallback subject", func(t *testing.T) {
		t.Parallel()
		m := newTestMailer(&MockSender{}, cfg)

		email, err := m.Compose(ComposeParams{Template: "plain.md"})
		require.NoError(t, err)
		require.Equal(t, "Today's menu", email.Subject)
	})

	t.Run("render failure", func(t *testing.T) {
		t.Parallel()
		m := newTestMailer(&MockSender{}, cfg)

		_, err := m.Compose(ComposeParams{Template: "missing.md"})
		require.ErrorIs(t, err, ErrRenderFailed)
		require.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("subject template failure", func(t *testing.T) {
		t.Parallel()
		m := newTestMailer(&MockSender{}, cfg)

		_, err := m.Compose(ComposeParams{Template: "bad_subject.md"})
		require.ErrorIs(t, err, ErrRenderFailed)
	})
}

func TestMailer_Send(t *testing.T) {
	t.Parallel()

	cfg := Config{FromEmail: "menu@example.com"}

	t.Run("delivers valid email", func(t *testing.T) {
		t.Parallel()

		sender := &MockSender{}
		sender.On("Send", mock.Anything, mock.MatchedBy(func(e *Email) bool {
			return e.From == "menu@example.com" && len(e.BCC) == 2
		})).Return(nil).Once()

		err := newTestMailer(sender, cfg).Send(context.Background(), &Email{
			Subject: "Menu",
			HTML:    "<p>menu</p>",
			BCC:     []string{"a@example.com", "b@example.com"},
		})
		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("wraps sender error", func(t *testing.T) {
		t.Parallel()

		sender := &MockSender{}
		sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		err := newTestMailer(sender, cfg).Send(context.Background(), &Email{
			Subject: "Menu",
			HTML:    "<p>menu</p>",
			To:      []string{"a@example.com"},
		})
		require.ErrorIs(t, err, ErrSendFailed)
		require.ErrorContains(t, err, "smtp down")
	})

	tests := []struct {
		name  string
		email *Email
		want  error
	}{
		{name: "no recipient", email: &Email{Subject: "s", HTML: "h"}, want: ErrNoRecipient},
		{name: "no subject", email: &Email{To: []string{"a@example.com"}, HTML: "h"}, want: ErrNoSubject},
		{name: "no content", email: &Email{To: []string{"a@example.com"}, Subject: "s"}, want: ErrNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &MockSender{}
			err := newTestMailer(sender, cfg).Send(context.Background(), tt.email)
			require.ErrorIs(t, err, tt.want)
			sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestSenderFunc(t *testing.T) {
	t.Parallel()

	var got *Email
	var s Sender = SenderFunc(func(_ context.Context, e *Email) error {
		got = e
		return nil
	})

	email := &Email{Subject: "x"}
	require.NoError(t, s.Send(context.Background(), email))
	require.Same(t, email, got)
}
