package mailer

import (
	"github.com/vanng822/go-premailer/premailer"
)

// Inliner moves stylesheet rules into style attributes so mail clients that
// strip <style> blocks still render the layout.
type Inliner interface {
	Inline(html string) (string, error)
}

// PremailerInliner inlines CSS with go-premailer.
type PremailerInliner struct {
	options *premailer.Options
}

// NewPremailerInliner returns an inliner that keeps class attributes and !important.
func NewPremailerInliner() *PremailerInliner {
	opts := premailer.NewOptions()
	opts.RemoveClasses = false
	opts.KeepBangImportant = true
	return &PremailerInliner{options: opts}
}

// Inline implements Inliner.
func (p *PremailerInliner) Inline(html string) (string, error) {
	pm, err := premailer.NewPremailerFromString(html, p.options)
	if err != nil {
		return "", err
	}
	return pm.Transform()
}
