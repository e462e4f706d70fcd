// Package mailer renders markdown email templates and delivers them through a pluggable Sender.
//
// # Architecture
//
//   - Sender: the provider interface (see the resend and smtp subpackages)
//   - Renderer: markdown + YAML frontmatter → HTML inside an html/template layout,
//     optionally post-processed by an Inliner
//   - Mailer: composes an Email from a template and validates it before sending
//
// # Usage
//
//	renderer := mailer.NewRendererWithConfig(emails.FS, mailer.RendererConfig{
//		Funcs:   emails.Funcs(),
//		Inliner: mailer.NewPremailerInliner(),
//	})
//	m := mailer.New(sender, renderer, cfg.Mailer)
//
//	email, err := m.Compose(mailer.ComposeParams{
//		Template: "daily_menu.md",
//		Data:     data,
//	})
//	email.BCC = recipients
//	err = m.Send(ctx, email)
//
// # Templates
//
// Templates are markdown files with optional YAML frontmatter:
//
//	---
//	Subject: "{{.day_name}}, {{.month}} {{.date}}"
//	---
//
//	# Today's menu
//
// Subject is executed as a template against the same data as the body. Tables
// and strikethrough are enabled. The executed markdown doubles as the plain-text
// alternative.
//
// Layouts receive .Content (the converted body), .Metadata (the frontmatter) and
// .Data (the template data).
//
// # CSS Inlining
//
// Many mail clients drop <style> blocks. [PremailerInliner] rewrites stylesheet
// rules into style attributes after the layout is executed.
//
// # Errors
//
//   - ErrNoRecipient, ErrNoSubject, ErrNoContent: Send validation
//   - ErrTemplateNotFound, ErrLayoutNotFound: missing files
//   - ErrRenderFailed, ErrInvalidFrontmatter, ErrInlineFailed: rendering
//   - ErrSendFailed: wraps the provider error
package mailer
