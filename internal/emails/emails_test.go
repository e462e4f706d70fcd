package emails_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menumail/internal/emails"
	"github.com/dmitrymomot/menumail/pkg/mailer"
	"github.com/dmitrymomot/menumail/pkg/menu"
)

func compose(t *testing.T, m menu.Menu) *mailer.Email {
	t.Helper()

	renderer := emails.NewRenderer([]string{"Breakfast", "Lunch", "Dinner"})
	ml := mailer.New(nil, renderer, mailer.Config{
		FromEmail:     "menu@example.com",
		FromName:      "Daily Menu",
		DefaultLayout: emails.BaseLayout,
	})

	date := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	email, err := ml.Compose(mailer.ComposeParams{
		Template: emails.DailyMenu,
		Data:     emails.Data(menu.Display(date), m, "Cafe 9"),
	})
	require.NoError(t, err)
	return email
}

func TestDailyMenu(t *testing.T) {
	t.Parallel()

	m := menu.Menu{}
	m.Add("Dinner", "Entree", menu.MenuItem{Name: "Tacos", Calories: 650})
	m.Add("Lunch", "Entree", menu.MenuItem{Name: "Pizza", Calories: 400})
	m.Add("Lunch", "Entree", menu.MenuItem{Name: "Mac & Cheese", Calories: 720, Description: "<b>Three</b> cheeses"})
	m.Add("Lunch", "soups", menu.MenuItem{Name: "Tomato Bisque", Calories: 0})

	email := compose(t, m)

	assert.Equal(t, "Thursday, March 7 at Cafe 9", email.Subject)
	assert.Equal(t, "Daily Menu <menu@example.com>", email.From)

	assert.Contains(t, email.Text, "# Thursday, March 7")
	assert.Contains(t, email.Text, "- **Pizza** (400 cal)")
	assert.Contains(t, email.Text, "- **Mac & Cheese** (720 cal): Three cheeses")
	assert.Contains(t, email.Text, "- **Tomato Bisque** (0 cal)")
	assert.Contains(t, email.Text, "### Soups")
	assert.NotContains(t, email.Text, "<b>")
	assert.Less(t, strings.Index(email.Text, "## Lunch"), strings.Index(email.Text, "## Dinner"))

	assert.Contains(t, email.HTML, "Thursday, March 7")
	assert.Contains(t, email.HTML, "<strong>Pizza</strong> (400 cal)")
	assert.Contains(t, email.HTML, "Mac &amp; Cheese")
	assert.Contains(t, email.HTML, "Menu from Cafe 9.")
	assert.Regexp(t, `<h2 style="[^"]*color:\s*#1e3a8a`, email.HTML)
}

func TestDailyMenu_SingleItem(t *testing.T) {
	t.Parallel()

	m := menu.Menu{}
	m.Add("Lunch", "Entree", menu.MenuItem{Name: "Pizza", Calories: 400})

	email := compose(t, m)
	assert.Equal(t, "Thursday, March 7 at Cafe 9", email.Subject)
	assert.Contains(t, email.Text, "## Lunch")
	assert.Contains(t, email.Text, "### Entree")
	assert.Contains(t, email.Text, "- **Pizza** (400 cal)")
	assert.NotContains(t, email.Text, "No menu has been published")
}

func TestDailyMenu_Empty(t *testing.T) {
	t.Parallel()

	email := compose(t, menu.Menu{})
	assert.Contains(t, email.Text, "No menu has been published for today.")
	assert.Contains(t, email.HTML, "No menu has been published for today.")
}

func TestTitle(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"lunch":       "Lunch",
		"ENTREE":      "Entree",
		"grill items": "Grill Items",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, emails.Title(in), in)
	}
}
