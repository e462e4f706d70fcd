package mailer

// Config holds mailer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	FromEmail       string `env:"MAIL_FROM_EMAIL"`
	FromName        string `env:"MAIL_FROM_NAME" envDefault:"Daily Menu"`
	ReplyTo         string `env:"MAIL_REPLY_TO"`
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Today's menu"`
	DefaultLayout   string `env:"MAILER_DEFAULT_LAYOUT" envDefault:"base.html"`
}

// From returns the formatted sender address, or "" when FromEmail is unset.
func (c Config) From() string {
	if c.FromEmail == "" {
		return ""
	}
	return Recipient(c.FromName, c.FromEmail)
}
