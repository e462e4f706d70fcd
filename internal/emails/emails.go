// Package emails holds the daily menu email templates and the functions they use.
package emails

import (
	"embed"
	"io/fs"
	texttemplate "text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/menumail/pkg/mailer"
	"github.com/dmitrymomot/menumail/pkg/menu"
	"github.com/dmitrymomot/menumail/pkg/sanitizer"
)

// DailyMenu is the template rendered for every delivery.
const DailyMenu = "daily_menu.md"

// BaseLayout wraps DailyMenu in the HTML shell.
const BaseLayout = "base.html"

//go:embed templates
var embedded embed.FS

// FS returns the template tree rooted so that layouts live under layouts/.
func FS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Funcs returns the template functions. Meals named in mealOrder are listed first.
func Funcs(mealOrder []string) texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"sections": func(m menu.Menu) []menu.Section {
			return m.Sections(mealOrder...)
		},
		"title": Title,
		"clean": sanitizer.Clean,
	}
}

// Title converts s to title case. A new Caser per call keeps it safe for concurrent renders.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// NewRenderer builds a mailer.Renderer over the embedded templates with CSS inlining.
func NewRenderer(mealOrder []string) *mailer.Renderer {
	return mailer.NewRendererWithConfig(FS(), mailer.RendererConfig{
		Funcs:   Funcs(mealOrder),
		Inliner: mailer.NewPremailerInliner(),
	})
}

// Data builds the template data for a menu served on date at venue.
func Data(d menu.DisplayFields, m menu.Menu, venue string) map[string]any {
	return map[string]any{
		"day_name": d.DayName,
		"month":    d.Month,
		"date":     d.Day,
		"menu":     m,
		"venue":    venue,
	}
}
