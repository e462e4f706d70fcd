// Package config loads the application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/menumail/pkg/cache"
	"github.com/dmitrymomot/menumail/pkg/db"
	"github.com/dmitrymomot/menumail/pkg/job"
	"github.com/dmitrymomot/menumail/pkg/logger"
	"github.com/dmitrymomot/menumail/pkg/mailer"
	"github.com/dmitrymomot/menumail/pkg/mailer/resend"
	"github.com/dmitrymomot/menumail/pkg/mailer/smtp"
	"github.com/dmitrymomot/menumail/pkg/menuapi"
	"github.com/dmitrymomot/menumail/pkg/notifier"
	"github.com/dmitrymomot/menumail/pkg/redis"
	"github.com/dmitrymomot/menumail/pkg/storage"
	"github.com/dmitrymomot/menumail/pkg/subscriber"
)

// Mail providers.
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
	// ProviderLog writes emails to the log instead of sending them.
	ProviderLog = "log"
)

var (
	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrLoadFailed    = errors.New("config: failed to load configuration")
)

// Config is the full application configuration.
type Config struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	Timezone  string   `env:"MENU_TIMEZONE" envDefault:"America/Chicago"`
	Schedule  string   `env:"MENU_SCHEDULE" envDefault:"0 6 * * 1-5"`
	Venue     string   `env:"MENU_VENUE" envDefault:"the Cafe"`
	MealOrder []string `env:"MENU_MEAL_ORDER" envSeparator:"," envDefault:"Breakfast,Lunch,Dinner"`
	SkipEmpty bool     `env:"SKIP_EMPTY" envDefault:"true"`

	ArchiveDir   string `env:"ARCHIVE_DIR" envDefault:"archive"`
	MailProvider string `env:"MAIL_PROVIDER" envDefault:"resend"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	// APIToken is the bearer token for /runs. Empty leaves those routes off.
	APIToken string `env:"API_TOKEN"`

	Log         logger.Config
	MenuAPI     menuapi.Config
	Subscribers subscriber.Config
	Mail        mailer.Config
	Resend      resend.Config
	SMTP        smtp.Config
	Notify      notifier.Config
	Cache       cache.Config
	Redis       redis.Config
	DB          db.Config
	S3          storage.Config
	Jobs        job.Config
}

// Load reads an optional .env file (a missing file is fine) and parses the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	return &cfg, nil
}

// Location resolves MENU_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: MENU_TIMEZONE %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the settings every command needs: the vendor API, time zone and schedule.
func (c *Config) Validate() error {
	var errs []error
	if err := c.MenuAPI.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if err := job.ValidateSchedule(c.Schedule); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// ValidateDryRun additionally checks the subscriber source, which a dry run reads
// to count recipients.
func (c *Config) ValidateDryRun() error {
	if err := c.Validate(); err != nil {
		return errors.Join(err, c.Subscribers.Validate())
	}
	return c.Subscribers.Validate()
}

// ValidateDelivery additionally checks the subscriber source and the selected mail provider.
func (c *Config) ValidateDelivery() error {
	var errs []error
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Subscribers.Validate(); err != nil {
		errs = append(errs, err)
	}

	provider := strings.ToLower(c.MailProvider)
	if provider != ProviderLog && strings.TrimSpace(c.Mail.FromEmail) == "" {
		errs = append(errs, fmt.Errorf("%w: MAIL_FROM_EMAIL is required", ErrInvalidConfig))
	}
	switch provider {
	case ProviderResend:
		if c.Resend.APIKey == "" {
			errs = append(errs, fmt.Errorf("%w: RESEND_API_KEY is required for the resend provider", ErrInvalidConfig))
		}
	case ProviderSMTP:
		if c.SMTP.Host == "" {
			errs = append(errs, fmt.Errorf("%w: SMTP_HOST is required for the smtp provider", ErrInvalidConfig))
		}
	case ProviderLog:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown MAIL_PROVIDER %q", ErrInvalidConfig, c.MailProvider))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ValidateServe additionally requires the database that backs the job queue.
func (c *Config) ValidateServe() error {
	var errs []error
	if err := c.ValidateDelivery(); err != nil {
		errs = append(errs, err)
	}
	if !c.DB.Enabled() {
		errs = append(errs, fmt.Errorf("%w: DATABASE_URL is required for serve", ErrInvalidConfig))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
